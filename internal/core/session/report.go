package session

import (
	"fmt"
	"strings"

	"fivephase/internal/core/model"
)

// Report renders lifetime totals and the last session as the lines shown by
// history views.
func Report(totals Totals, last *Record) []string {
	lines := []string{
		fmt.Sprintf("Total sessions: %d", totals.Sessions),
		"Total time: " + FormatHMS(totals.Total),
		"Last session:",
	}
	if last == nil {
		lines = append(lines, "  none")
	} else {
		lines = append(lines, "  "+last.Summary())
		if len(last.Segments) > 0 {
			lines = append(lines, "Last session segments:")
			for _, segment := range last.Segments {
				lines = append(lines, fmt.Sprintf("  • %s - %s - %s - %s",
					FormatHMS(segment.Duration),
					segment.Config.Speed,
					segment.Config.Rotation.Label(),
					segment.Config.Transition.Label(),
				))
			}
		}
	}

	lines = append(lines, "Breath totals:")
	for _, breath := range model.BreathStyles {
		lines = append(lines, fmt.Sprintf("  %s: %s", titleToken(breath.String()), FormatHMS(totals.ByBreath[breath])))
	}
	lines = append(lines, "Speed totals:")
	for _, speed := range model.SpeedModes {
		lines = append(lines, fmt.Sprintf("  %s: %s", titleToken(speed.String()), FormatHMS(totals.BySpeed[speed])))
	}
	return lines
}

// titleToken turns "DEEP_CALM" into "Deep Calm".
func titleToken(token string) string {
	words := strings.Split(strings.ToLower(token), "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
