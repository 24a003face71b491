package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fivephase/internal/core/model"
	"fivephase/internal/core/session"

	_ "modernc.org/sqlite" // SQLite driver.
)

const historyFileName = "history.db"

// History persists finished sessions in SQLite.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database and applies migrations.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	history := &History{db: db}
	if err := history.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return history, nil
}

// HistoryPath returns the database path inside dataDir.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, historyFileName)
}

// Close closes the underlying database.
func (history *History) Close() error {
	return history.db.Close()
}

func (history *History) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			speed TEXT NOT NULL,
			breath TEXT NOT NULL,
			transition TEXT NOT NULL,
			rotation TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS segments (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			start_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			speed TEXT NOT NULL,
			breath TEXT NOT NULL,
			transition TEXT NOT NULL,
			rotation TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_segments_breath ON segments(breath);`,
		`CREATE INDEX IF NOT EXISTS idx_segments_speed ON segments(speed);`,
	}
	for _, stmt := range stmts {
		if _, err := history.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save stores a finished session and its segments in one transaction.
func (history *History) Save(ctx context.Context, record session.Record) (err error) {
	tx, err := history.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, started_at, ended_at, duration_ms, speed, breath, transition, rotation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.StartedAt.Format(time.RFC3339Nano),
		record.EndedAt.Format(time.RFC3339Nano),
		record.Duration.Milliseconds(),
		record.Config.Speed.String(),
		record.Config.Breath.String(),
		record.Config.Transition.String(),
		record.Config.Rotation.String(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if len(record.Segments) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO segments (session_id, seq, start_ms, duration_ms, speed, breath, transition, rotation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if prepErr != nil {
			return fmt.Errorf("prepare segments: %w", prepErr)
		}
		defer stmt.Close()
		for i, segment := range record.Segments {
			if _, err = stmt.ExecContext(ctx, id, i,
				segment.Start.Milliseconds(),
				segment.Duration.Milliseconds(),
				segment.Config.Speed.String(),
				segment.Config.Breath.String(),
				segment.Config.Transition.String(),
				segment.Config.Rotation.String(),
			); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load rebuilds lifetime totals and the most recent session.
func (history *History) Load(ctx context.Context) (session.History, error) {
	result := session.History{Totals: session.NewTotals()}

	var totalMs int64
	err := history.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN seg_ms > 0 THEN seg_ms ELSE duration_ms END), 0)
		 FROM (
			SELECT s.duration_ms,
				COALESCE((SELECT SUM(g.duration_ms) FROM segments g WHERE g.session_id = s.id AND g.duration_ms > 0), 0) AS seg_ms
			FROM sessions s
		 )`).Scan(&result.Totals.Sessions, &totalMs)
	if err != nil {
		return result, fmt.Errorf("load totals: %w", err)
	}
	result.Totals.Total = time.Duration(totalMs) * time.Millisecond

	byBreath, err := history.sumBy(ctx, "breath")
	if err != nil {
		return result, err
	}
	for token, d := range byBreath {
		if breath, err := model.ParseBreathStyle(token); err == nil {
			result.Totals.ByBreath[breath] += d
		}
	}
	bySpeed, err := history.sumBy(ctx, "speed")
	if err != nil {
		return result, err
	}
	for token, d := range bySpeed {
		if speed, err := model.ParseSpeedMode(token); err == nil {
			result.Totals.BySpeed[speed] += d
		}
	}

	last, err := history.last(ctx)
	if err != nil {
		return result, err
	}
	result.Last = last
	return result, nil
}

// Reset deletes every stored session.
func (history *History) Reset(ctx context.Context) (err error) {
	tx, err := history.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM segments`); err != nil {
		return fmt.Errorf("delete segments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

// Recent returns up to limit finished sessions, newest first, without segments.
func (history *History) Recent(ctx context.Context, limit int) ([]session.Record, error) {
	rows, err := history.db.QueryContext(ctx,
		`SELECT id, uuid, started_at, ended_at, duration_ms, speed, breath, transition, rotation
		 FROM sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []session.Record
	for rows.Next() {
		_, record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return records, nil
}

// column is fixed by the caller, never user input.
func (history *History) sumBy(ctx context.Context, column string) (map[string]time.Duration, error) {
	rows, err := history.db.QueryContext(ctx,
		`SELECT `+column+`, SUM(duration_ms) FROM segments WHERE duration_ms > 0 GROUP BY `+column)
	if err != nil {
		return nil, fmt.Errorf("sum by %s: %w", column, err)
	}
	defer rows.Close()

	sums := make(map[string]time.Duration)
	for rows.Next() {
		var token string
		var ms int64
		if err := rows.Scan(&token, &ms); err != nil {
			return nil, fmt.Errorf("sum by %s: %w", column, err)
		}
		sums[token] = time.Duration(ms) * time.Millisecond
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum by %s: %w", column, err)
	}
	return sums, nil
}

func (history *History) last(ctx context.Context) (*session.Record, error) {
	row := history.db.QueryRowContext(ctx,
		`SELECT id, uuid, started_at, ended_at, duration_ms, speed, breath, transition, rotation
		 FROM sessions ORDER BY id DESC LIMIT 1`)
	id, record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := history.db.QueryContext(ctx,
		`SELECT start_ms, duration_ms, speed, breath, transition, rotation
		 FROM segments WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var startMs, durationMs int64
		var speed, breath, transition, rotation string
		if err := rows.Scan(&startMs, &durationMs, &speed, &breath, &transition, &rotation); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		record.Segments = append(record.Segments, session.Segment{
			Start:    time.Duration(startMs) * time.Millisecond,
			Duration: time.Duration(durationMs) * time.Millisecond,
			Config:   parseConfiguration(speed, breath, transition, rotation),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	return &record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (int64, session.Record, error) {
	var (
		id                                  int64
		record                              session.Record
		startedAt, endedAt                  string
		durationMs                          int64
		speed, breath, transition, rotation string
	)
	if err := row.Scan(&id, &record.ID, &startedAt, &endedAt, &durationMs, &speed, &breath, &transition, &rotation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, record, err
		}
		return 0, record, fmt.Errorf("scan session: %w", err)
	}
	var err error
	if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return 0, record, fmt.Errorf("parse started_at: %w", err)
	}
	if record.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return 0, record, fmt.Errorf("parse ended_at: %w", err)
	}
	record.Duration = time.Duration(durationMs) * time.Millisecond
	record.Config = parseConfiguration(speed, breath, transition, rotation)
	return id, record, nil
}

// Unknown tokens fall back to the defaults so old rows stay readable.
func parseConfiguration(speed, breath, transition, rotation string) model.Configuration {
	config := model.DefaultConfiguration()
	if value, err := model.ParseSpeedMode(speed); err == nil {
		config.Speed = value
	}
	if value, err := model.ParseBreathStyle(breath); err == nil {
		config.Breath = value
	}
	if value, err := model.ParseTransitionMode(transition); err == nil {
		config.Transition = value
	}
	if value, err := model.ParseRotationMode(rotation); err == nil {
		config.Rotation = value
	}
	return config
}

var _ session.HistoryStore = (*History)(nil)
