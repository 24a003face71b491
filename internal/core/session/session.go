package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fivephase/internal/core/model"
)

var (
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("active session already exists")
)

// Clock abstracts wall time so record timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Elapsed reports monotonic session time. The app passes the logical clock so
// paused intervals are not counted.
type Elapsed func() time.Duration

// Segment is a stretch of a session spent under one configuration.
type Segment struct {
	Start    time.Duration
	Duration time.Duration
	Config   model.Configuration
}

// Record is a finished session.
type Record struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Config    model.Configuration
	Segments  []Segment
}

// Summary is the one-line description shown in history views.
func (record Record) Summary() string {
	return fmt.Sprintf("%s %s (%s), %s, %s",
		record.StartedAt.Format("Mon"),
		record.StartedAt.Format("2006-01-02 15:04"),
		FormatHMS(record.Duration),
		record.Config.Transition.Label(),
		record.Config.Rotation.Label(),
	)
}

// Totals are lifetime sums.
type Totals struct {
	Sessions int
	Total    time.Duration
	ByBreath map[model.BreathStyle]time.Duration
	BySpeed  map[model.SpeedMode]time.Duration
}

// NewTotals returns empty totals with initialised maps.
func NewTotals() Totals {
	return Totals{
		ByBreath: make(map[model.BreathStyle]time.Duration),
		BySpeed:  make(map[model.SpeedMode]time.Duration),
	}
}

// Clone returns a deep copy.
func (totals Totals) Clone() Totals {
	clone := NewTotals()
	clone.Sessions = totals.Sessions
	clone.Total = totals.Total
	for breath, d := range totals.ByBreath {
		clone.ByBreath[breath] = d
	}
	for speed, d := range totals.BySpeed {
		clone.BySpeed[speed] = d
	}
	return clone
}

// Add folds a finished session into the totals. Segments of zero length are
// skipped; when no segment carries time the whole session duration counts.
func (totals *Totals) Add(record Record) {
	if totals.ByBreath == nil || totals.BySpeed == nil {
		*totals = totals.Clone()
	}
	totals.Sessions++
	var sum time.Duration
	for _, segment := range record.Segments {
		if segment.Duration <= 0 {
			continue
		}
		sum += segment.Duration
		totals.ByBreath[segment.Config.Breath] += segment.Duration
		totals.BySpeed[segment.Config.Speed] += segment.Duration
	}
	if sum > 0 {
		totals.Total += sum
		return
	}
	totals.Total += record.Duration
}

// History is what a store persists between runs.
type History struct {
	Totals Totals
	Last   *Record
}

// HistoryStore persists finished sessions.
type HistoryStore interface {
	Load(ctx context.Context) (History, error)
	Save(ctx context.Context, record Record) error
	Reset(ctx context.Context) error
}

// FormatHMS renders a duration as HH:MM:SS.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}
