package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fivephase/internal/audio"
	"fivephase/internal/core/clock"
	"fivephase/internal/core/engine"
	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
	"fivephase/internal/core/session"
	"fivephase/internal/core/synth"
	"fivephase/internal/ui/animation"
	"fivephase/internal/ui/term"
)

const logFileName = "fivephase.log"

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the sequence in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

func runTUI(ctx context.Context, opts *options) error {
	dir, err := resolveDataDir(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	opts.logger.SetOutput(logFile)

	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	config := rt.animationConfig()
	animationEngine := animation.New(config, sceneSource{engine: rt.engine}, nil)
	presenter := term.NewModel(ctx, animationEngine, rt.engine, rt.engine.Accountant(), config.Interval)

	if err := rt.engine.Start(ctx); err != nil {
		rt.Close(ctx)
		return err
	}
	_, runErr := tea.NewProgram(presenter, tea.WithAltScreen()).Run()
	rt.settings.ShowHUD = animationEngine.ShowHUD()
	rt.Close(ctx)
	if runErr != nil {
		return fmt.Errorf("run terminal ui: %w", runErr)
	}
	return nil
}

type renderFlags struct {
	phases     int
	out        string
	speed      string
	breath     string
	transition string
}

func newRenderCmd(opts *options) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render phases to a WAV file without an audio device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts, flags)
		},
	}
	cmd.Flags().IntVar(&flags.phases, "phases", model.PhaseCount, "number of phases to render")
	cmd.Flags().StringVar(&flags.out, "out", "fivephase.wav", "output WAV path")
	cmd.Flags().StringVar(&flags.speed, "speed", "", "speed: ignite|balance|harmony|zen|transcend (default: saved setting)")
	cmd.Flags().StringVar(&flags.breath, "breath", "", "breath: coherent|relaxed|deep_calm (default: saved setting)")
	cmd.Flags().StringVar(&flags.transition, "transition", "", "transition: hard|soft (default: saved setting)")
	return cmd
}

func runRender(cmd *cobra.Command, opts *options, flags *renderFlags) error {
	if flags.phases <= 0 {
		return fmt.Errorf("--phases must be positive, got %d", flags.phases)
	}
	config, err := renderConfiguration(loadSettings(opts).Configuration(), flags)
	if err != nil {
		return err
	}

	clk := clock.New()
	sink := audio.NewMemorySink()
	eng := engine.New(scheduler.New(clk, config), synth.New(sink, synth.NewGate()), clk, nil, engine.Config{
		Logger:    opts.logger,
		MaxPhases: flags.phases,
	})
	events := eng.Subscribe(2*flags.phases + 8)
	if err := eng.Start(cmd.Context()); err != nil {
		return err
	}
	eng.Wait()
	eng.Stop()
	for event := range events {
		if event.Type == engine.EventError {
			return fmt.Errorf("render: %w", event.Err)
		}
	}

	file, err := os.Create(flags.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := audio.WriteWAV(file, sink.Bytes()); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d phases, %s)\n",
		flags.out, flags.phases, session.FormatHMS(sink.Duration()))
	return nil
}

func renderConfiguration(config model.Configuration, flags *renderFlags) (model.Configuration, error) {
	if flags.speed != "" {
		speed, err := model.ParseSpeedMode(flags.speed)
		if err != nil {
			return config, err
		}
		config.Speed = speed
	}
	if flags.breath != "" {
		breath, err := model.ParseBreathStyle(flags.breath)
		if err != nil {
			return config, err
		}
		config.Breath = breath
	}
	if flags.transition != "" {
		transition, err := model.ParseTransitionMode(flags.transition)
		if err != nil {
			return config, err
		}
		config.Transition = transition
	}
	return config, nil
}

func newHistoryCmd(opts *options) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print lifetime session totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer history.Close()

			loaded, err := history.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range session.Report(loaded.Totals, loaded.Last) {
				_, _ = fmt.Fprintln(out, line)
			}
			if recent <= 0 {
				return nil
			}
			records, err := history.Recent(cmd.Context(), recent)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "Recent sessions:")
			for _, record := range records {
				_, _ = fmt.Fprintln(out, "  • "+record.Summary())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, "also list this many recent sessions")
	return cmd
}

func newResetCmd(opts *options) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("refusing to delete session history without --yes")
			}
			history, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer history.Close()
			if err := history.Reset(cmd.Context()); err != nil {
				return err
			}
			opts.logger.Info("session history cleared")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session history cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")
	return cmd
}
