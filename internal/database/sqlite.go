package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hg-go/internal/database/migrations"
	"hg-go/internal/hg"
	"hg-go/internal/model"
	"hg-go/internal/timing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements hg.Store using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// A watch loop and a one-shot command may write at the same time.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const timerColumns = `id, created_at, updated_at, state, start_time, end_time, pause_time,
	start_kind, start_duration, start_at, start_repeat,
	title, loop_timer, show_time_elapsed, sound, loop_sound, close_when_expired`

// Timer operations

func (s *SQLiteDatabase) FindTimer(id string) (*model.Timer, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+timerColumns+` FROM timers WHERE id = ?`, id)

	t, err := scanTimer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding timer: %w", err)
	}
	return t, nil
}

func (s *SQLiteDatabase) ListTimers() ([]*model.Timer, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT `+timerColumns+` FROM timers ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing timers: %w", err)
	}
	defer rows.Close()

	var timers []*model.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning timer: %w", err)
		}
		timers = append(timers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing timers: %w", err)
	}
	return timers, nil
}

// SaveTimer upserts the timer. An update keeps the row, so its events are
// not cascaded away.
func (s *SQLiteDatabase) SaveTimer(t *model.Timer) error {
	r := t.Record
	var kind, duration, repeat sql.NullString
	var at sql.NullTime
	if r.TimerStart != nil {
		kind = nullString(r.TimerStart.Kind)
		duration = nullString(r.TimerStart.Duration)
		at = nullTime(r.TimerStart.At)
		repeat = nullString(r.TimerStart.Repeat)
	}

	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO timers (`+timerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = excluded.updated_at,
			state = excluded.state,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			pause_time = excluded.pause_time,
			start_kind = excluded.start_kind,
			start_duration = excluded.start_duration,
			start_at = excluded.start_at,
			start_repeat = excluded.start_repeat,
			title = excluded.title,
			loop_timer = excluded.loop_timer,
			show_time_elapsed = excluded.show_time_elapsed,
			sound = excluded.sound,
			loop_sound = excluded.loop_sound,
			close_when_expired = excluded.close_when_expired`,
		t.ID, t.CreatedAt, t.UpdatedAt, r.State,
		nullTime(r.StartTime), nullTime(r.EndTime), nullTime(r.PauseTime),
		kind, duration, at, repeat,
		r.Options.Title, r.Options.LoopTimer, r.Options.ShowTimeElapsed,
		r.Options.Sound, r.Options.LoopSound, r.Options.CloseWhenExpired,
	)
	if err != nil {
		return fmt.Errorf("saving timer: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteTimer(id string) error {
	if _, err := s.db.ExecContext(context.Background(), `DELETE FROM timers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting timer: %w", err)
	}
	return nil
}

// Event operations

func (s *SQLiteDatabase) AppendEvent(e *model.TimerEvent) error {
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO timer_events (timer_id, kind, state, occurred_at) VALUES (?, ?, ?, ?)`,
		e.TimerID, e.Kind, e.State, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event id: %w", err)
	}
	e.ID = id
	return nil
}

// ListEvents returns up to limit events, newest first. A limit of zero or
// less returns every event.
func (s *SQLiteDatabase) ListEvents(timerID string, limit int) ([]*model.TimerEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, timer_id, kind, state, occurred_at
		FROM timer_events
		WHERE timer_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`, timerID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []*model.TimerEvent
	for rows.Next() {
		var e model.TimerEvent
		if err := rows.Scan(&e.ID, &e.TimerID, &e.Kind, &e.State, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.Up(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ hg.Store = (*SQLiteDatabase)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanTimer(row scanner) (*model.Timer, error) {
	var (
		t                           model.Timer
		r                           timing.Record
		startTime, endTime, pauseAt sql.NullTime
		kind, duration, repeat      sql.NullString
		at                          sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt, &r.State,
		&startTime, &endTime, &pauseAt,
		&kind, &duration, &at, &repeat,
		&r.Options.Title, &r.Options.LoopTimer, &r.Options.ShowTimeElapsed,
		&r.Options.Sound, &r.Options.LoopSound, &r.Options.CloseWhenExpired,
	)
	if err != nil {
		return nil, err
	}

	r.StartTime = timeFromNull(startTime)
	r.EndTime = timeFromNull(endTime)
	r.PauseTime = timeFromNull(pauseAt)
	if kind.Valid {
		r.TimerStart = &timing.StartRecord{
			Kind:     kind.String,
			Duration: duration.String,
			At:       timeFromNull(at),
			Repeat:   repeat.String,
		}
	}

	t.Record = r
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNull(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
