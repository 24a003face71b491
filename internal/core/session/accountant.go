package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fivephase/internal/core/model"
)

// Option configures an Accountant.
type Option func(*Accountant)

// WithClock sets the wall clock used for record timestamps.
func WithClock(clock Clock) Option {
	return func(accountant *Accountant) {
		accountant.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(accountant *Accountant) {
		accountant.logger = logger
	}
}

// Accountant splits sessions into per-configuration segments and keeps
// lifetime totals.
type Accountant struct {
	mu        sync.Mutex
	store     HistoryStore
	elapsed   Elapsed
	clock     Clock
	logger    logrus.FieldLogger
	active    bool
	id        string
	startedAt time.Time
	segments  []Segment
	open      Segment
	totals    Totals
	last      *Record
}

// New creates an Accountant. A nil store keeps history in memory only.
func New(store HistoryStore, elapsed Elapsed, options ...Option) *Accountant {
	accountant := &Accountant{
		store:   store,
		elapsed: elapsed,
		clock:   SystemClock{},
		totals:  NewTotals(),
	}
	for _, option := range options {
		option(accountant)
	}
	if accountant.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		accountant.logger = logger
	}
	return accountant
}

// Restore loads persisted totals and the last session. On failure the
// in-memory history stays empty.
func (accountant *Accountant) Restore(ctx context.Context) error {
	if accountant.store == nil {
		return nil
	}
	history, err := accountant.store.Load(ctx)
	if err != nil {
		accountant.logger.WithError(err).Warn("load session history")
		return fmt.Errorf("load history: %w", err)
	}
	accountant.mu.Lock()
	accountant.totals = history.Totals.Clone()
	accountant.last = history.Last
	accountant.mu.Unlock()
	return nil
}

// Active reports whether a session is running.
func (accountant *Accountant) Active() bool {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	return accountant.active
}

// Start begins a session with one open segment.
func (accountant *Accountant) Start(config model.Configuration) error {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	if accountant.active {
		return ErrActiveSessionExists
	}
	accountant.active = true
	accountant.id = uuid.NewString()
	accountant.startedAt = accountant.clock.Now()
	accountant.segments = nil
	accountant.open = Segment{Start: accountant.elapsed(), Config: config}
	accountant.logger.WithField("session", accountant.id).Info("session started")
	return nil
}

// Reconfigure closes the open segment and opens a new one under config. It
// is a no-op without an active session or when config is unchanged.
func (accountant *Accountant) Reconfigure(config model.Configuration) {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	if !accountant.active || accountant.open.Config == config {
		return
	}
	now := accountant.elapsed()
	accountant.closeOpenLocked(now)
	accountant.open = Segment{Start: now, Config: config}
}

// Stop ends the session and persists it. The returned record is valid even
// when saving fails.
func (accountant *Accountant) Stop(ctx context.Context) (Record, error) {
	accountant.mu.Lock()
	if !accountant.active {
		accountant.mu.Unlock()
		return Record{}, ErrNoActiveSession
	}
	accountant.closeOpenLocked(accountant.elapsed())
	record := Record{
		ID:        accountant.id,
		StartedAt: accountant.startedAt,
		EndedAt:   accountant.clock.Now(),
		Config:    accountant.open.Config,
		Segments:  append([]Segment(nil), accountant.segments...),
	}
	for _, segment := range record.Segments {
		record.Duration += segment.Duration
	}
	accountant.active = false
	accountant.segments = nil
	logger := accountant.logger.WithField("session", record.ID)
	if record.Duration <= 0 {
		accountant.mu.Unlock()
		logger.Debug("empty session discarded")
		return record, nil
	}
	accountant.totals.Add(record)
	last := record
	accountant.last = &last
	accountant.mu.Unlock()

	logger.WithField("duration", FormatHMS(record.Duration)).Info("session stopped")
	if accountant.store == nil {
		return record, nil
	}
	if err := accountant.store.Save(ctx, record); err != nil {
		logger.WithError(err).Warn("save session")
		return record, fmt.Errorf("save session: %w", err)
	}
	return record, nil
}

// Reset clears lifetime totals and the last session, in memory and in the
// store. A running session keeps running.
func (accountant *Accountant) Reset(ctx context.Context) error {
	accountant.mu.Lock()
	accountant.totals = NewTotals()
	accountant.last = nil
	accountant.mu.Unlock()

	if accountant.store == nil {
		return nil
	}
	if err := accountant.store.Reset(ctx); err != nil {
		accountant.logger.WithError(err).Warn("reset session history")
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

// Live returns the elapsed time of the running session, or zero.
func (accountant *Accountant) Live() time.Duration {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	if !accountant.active {
		return 0
	}
	var total time.Duration
	for _, segment := range accountant.segments {
		total += segment.Duration
	}
	return total + accountant.openDurationLocked(accountant.elapsed())
}

// Segments returns the segments of the running session, including the open
// one with its duration so far.
func (accountant *Accountant) Segments() []Segment {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	if !accountant.active {
		return nil
	}
	segments := append([]Segment(nil), accountant.segments...)
	open := accountant.open
	open.Duration = accountant.openDurationLocked(accountant.elapsed())
	return append(segments, open)
}

// Lifetime returns persisted totals plus the running session.
func (accountant *Accountant) Lifetime() Totals {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	totals := accountant.totals.Clone()
	if !accountant.active {
		return totals
	}
	for _, segment := range accountant.segments {
		if segment.Duration > 0 {
			totals.Total += segment.Duration
			totals.ByBreath[segment.Config.Breath] += segment.Duration
			totals.BySpeed[segment.Config.Speed] += segment.Duration
		}
	}
	if open := accountant.openDurationLocked(accountant.elapsed()); open > 0 {
		totals.Total += open
		totals.ByBreath[accountant.open.Config.Breath] += open
		totals.BySpeed[accountant.open.Config.Speed] += open
	}
	return totals
}

// Last returns the most recent finished session, or nil.
func (accountant *Accountant) Last() *Record {
	accountant.mu.Lock()
	defer accountant.mu.Unlock()
	if accountant.last == nil {
		return nil
	}
	last := *accountant.last
	last.Segments = append([]Segment(nil), last.Segments...)
	return &last
}

func (accountant *Accountant) closeOpenLocked(now time.Duration) {
	accountant.open.Duration = accountant.openDurationLocked(now)
	accountant.segments = append(accountant.segments, accountant.open)
}

func (accountant *Accountant) openDurationLocked(now time.Duration) time.Duration {
	d := now - accountant.open.Start
	if d < 0 {
		return 0
	}
	return d
}
