// Package main provides the FivePhase entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	appName     = "fivephase"
	displayName = "FivePhase"
	appID       = "com.fivephase.app"
)

type options struct {
	logLevel    string
	logLevelSet bool
	dataDir     string
	logger      *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Five-phase breathing tone sequencer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger = logger
			opts.logLevelSet = cmd.Flags().Changed("log-level")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDesktop(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory for session history (default: per-user data dir)")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newResetCmd(opts))
	return root
}
