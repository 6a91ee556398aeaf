package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"tempo/internal/core/model"
)

// SQLiteFileName is the database created inside the data directory.
const SQLiteFileName = "tempo.db"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alarms (
		position INTEGER PRIMARY KEY,
		id       TEXT NOT NULL UNIQUE,
		hour     INTEGER NOT NULL CHECK (hour BETWEEN 0 AND 23),
		minute   INTEGER NOT NULL CHECK (minute BETWEEN 0 AND 59),
		second   INTEGER NOT NULL CHECK (second BETWEEN 0 AND 59),
		label    TEXT NOT NULL DEFAULT '',
		enabled  INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		date         TEXT NOT NULL,
		tag          TEXT NOT NULL DEFAULT '',
		started_at   TEXT NOT NULL DEFAULT '',
		completed_at TEXT NOT NULL,
		minutes      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats_by_tag (
		tag     TEXT PRIMARY KEY,
		count   INTEGER NOT NULL,
		minutes INTEGER NOT NULL
	)`,
}

const (
	metaTheme          = "theme"
	metaSound          = "sound"
	metaTimeFormat     = "time_format"
	metaTimeOffset     = "time_offset"
	metaWindowMode     = "window_mode"
	metaTimerPresets   = "timer_presets"
	metaPomodoroTags   = "pomodoro_tags"
	metaTotalPomodoros = "total_pomodoros"
	metaTotalMinutes   = "total_minutes"
)

// SQLiteStore keeps the snapshot in a SQLite database. The session table is
// append-only: saves insert only sessions the database has not seen yet.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database at path, enabling WAL mode and running
// migrations. ":memory:" opens an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (store *SQLiteStore) Close() error {
	return store.db.Close()
}

// Load reads the snapshot. An empty database yields defaults and no error; a
// read failure yields defaults and an error wrapping ErrIO.
func (store *SQLiteStore) Load() (model.Snapshot, error) {
	ctx := context.Background()
	snapshot, err := store.load(ctx)
	if err != nil {
		return model.DefaultSnapshot(), fmt.Errorf("load snapshot: %w: %w", model.ErrIO, err)
	}
	return snapshot, nil
}

func (store *SQLiteStore) load(ctx context.Context) (model.Snapshot, error) {
	snapshot := model.DefaultSnapshot()

	meta, err := store.readMeta(ctx)
	if err != nil {
		return snapshot, err
	}
	if len(meta) == 0 {
		return snapshot, nil
	}
	if err := applyMeta(&snapshot, meta); err != nil {
		return snapshot, err
	}

	alarms, err := store.readAlarms(ctx)
	if err != nil {
		return snapshot, err
	}
	snapshot.Alarms = alarms

	history, err := store.readSessions(ctx)
	if err != nil {
		return snapshot, err
	}
	snapshot.History = history

	byTag, err := store.readTagStats(ctx)
	if err != nil {
		return snapshot, err
	}
	snapshot.Stats.ByTag = byTag
	return snapshot, nil
}

// Save replaces settings, alarms and stats and appends new sessions, all in
// one transaction.
func (store *SQLiteStore) Save(snapshot model.Snapshot) error {
	ctx := context.Background()
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := writeMeta(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := writeAlarms(ctx, tx, snapshot.Alarms); err != nil {
		return err
	}
	if err := appendSessions(ctx, tx, snapshot.History); err != nil {
		return err
	}
	if err := writeTagStats(ctx, tx, snapshot.Stats.ByTag); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

func (store *SQLiteStore) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := store.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning meta row: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meta: %w", err)
	}
	return meta, nil
}

func (store *SQLiteStore) readAlarms(ctx context.Context) ([]model.Alarm, error) {
	rows, err := store.db.QueryContext(ctx,
		`SELECT id, hour, minute, second, label, enabled FROM alarms ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("reading alarms: %w", err)
	}
	defer rows.Close()

	alarms := []model.Alarm{}
	for rows.Next() {
		var alarm model.Alarm
		var enabled int
		if err := rows.Scan(&alarm.ID, &alarm.Hour, &alarm.Minute, &alarm.Second, &alarm.Label, &enabled); err != nil {
			return nil, fmt.Errorf("scanning alarm row: %w", err)
		}
		alarm.Enabled = enabled != 0
		alarms = append(alarms, alarm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alarms: %w", err)
	}
	return alarms, nil
}

func (store *SQLiteStore) readSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := store.db.QueryContext(ctx,
		`SELECT date, tag, started_at, completed_at, minutes FROM sessions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	defer rows.Close()

	history := []model.Session{}
	for rows.Next() {
		var session model.Session
		var startedAtStr, completedAtStr string
		if err := rows.Scan(&session.Date, &session.Tag, &startedAtStr, &completedAtStr, &session.Minutes); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		if startedAtStr != "" {
			if session.StartedAt, err = time.Parse(time.RFC3339Nano, startedAtStr); err != nil {
				return nil, fmt.Errorf("parsing started_at: %w", err)
			}
		}
		if session.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAtStr); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		history = append(history, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return history, nil
}

func (store *SQLiteStore) readTagStats(ctx context.Context) (map[string]model.TagStats, error) {
	rows, err := store.db.QueryContext(ctx, `SELECT tag, count, minutes FROM stats_by_tag`)
	if err != nil {
		return nil, fmt.Errorf("reading tag stats: %w", err)
	}
	defer rows.Close()

	byTag := make(map[string]model.TagStats)
	for rows.Next() {
		var tag string
		var tagStats model.TagStats
		if err := rows.Scan(&tag, &tagStats.Count, &tagStats.Minutes); err != nil {
			return nil, fmt.Errorf("scanning tag stats row: %w", err)
		}
		byTag[tag] = tagStats
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag stats: %w", err)
	}
	return byTag, nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, snapshot model.Snapshot) error {
	settings := snapshot.Settings
	presets := make([]string, 0, len(settings.TimerPresets))
	for _, preset := range settings.TimerPresets {
		presets = append(presets, preset.String())
	}
	encodedPresets, err := yaml.Marshal(presets)
	if err != nil {
		return fmt.Errorf("encoding timer presets: %w", err)
	}
	encodedTags, err := yaml.Marshal(append([]string{}, settings.DefaultTags...))
	if err != nil {
		return fmt.Errorf("encoding pomodoro tags: %w", err)
	}

	values := map[string]string{
		metaTheme:          settings.Theme,
		metaSound:          settings.Sound,
		metaTimeFormat:     strconv.Itoa(settings.TimeFormat),
		metaTimeOffset:     settings.TimeOffset.String(),
		metaWindowMode:     settings.WindowMode,
		metaTimerPresets:   string(encodedPresets),
		metaPomodoroTags:   string(encodedTags),
		metaTotalPomodoros: strconv.Itoa(snapshot.Stats.TotalSessions),
		metaTotalMinutes:   strconv.Itoa(snapshot.Stats.TotalMinutes),
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("writing meta %s: %w", key, err)
		}
	}
	return nil
}

func writeAlarms(ctx context.Context, tx *sql.Tx, alarms []model.Alarm) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM alarms`); err != nil {
		return fmt.Errorf("clearing alarms: %w", err)
	}
	for position, alarm := range alarms {
		enabled := 0
		if alarm.Enabled {
			enabled = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alarms (position, id, hour, minute, second, label, enabled) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			position, alarm.ID, alarm.Hour, alarm.Minute, alarm.Second, alarm.Label, enabled); err != nil {
			return fmt.Errorf("inserting alarm %s: %w", alarm.ID, err)
		}
	}
	return nil
}

func appendSessions(ctx context.Context, tx *sql.Tx, history []model.Session) error {
	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stored); err != nil {
		return fmt.Errorf("counting sessions: %w", err)
	}
	if stored > len(history) {
		return fmt.Errorf("history has %d sessions but database holds %d: refusing to truncate", len(history), stored)
	}
	for _, session := range history[stored:] {
		startedAt := ""
		if !session.StartedAt.IsZero() {
			startedAt = session.StartedAt.Format(time.RFC3339Nano)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (date, tag, started_at, completed_at, minutes) VALUES (?, ?, ?, ?, ?)`,
			session.Date, session.Tag, startedAt, session.CompletedAt.Format(time.RFC3339Nano), session.Minutes); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	}
	return nil
}

func writeTagStats(ctx context.Context, tx *sql.Tx, byTag map[string]model.TagStats) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM stats_by_tag`); err != nil {
		return fmt.Errorf("clearing tag stats: %w", err)
	}
	for tag, tagStats := range byTag {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stats_by_tag (tag, count, minutes) VALUES (?, ?, ?)`,
			tag, tagStats.Count, tagStats.Minutes); err != nil {
			return fmt.Errorf("inserting tag stats %q: %w", tag, err)
		}
	}
	return nil
}

func applyMeta(snapshot *model.Snapshot, meta map[string]string) error {
	settings := &snapshot.Settings
	if value := meta[metaTheme]; value != "" {
		settings.Theme = value
	}
	if value := meta[metaSound]; value != "" {
		settings.Sound = value
	}
	if value := meta[metaWindowMode]; value != "" {
		settings.WindowMode = value
	}
	if value := meta[metaTimeFormat]; value != "" {
		format, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parsing time_format: %w", err)
		}
		settings.TimeFormat = format
	}
	if value := meta[metaTimeOffset]; value != "" {
		offset, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing time_offset: %w", err)
		}
		settings.TimeOffset = offset
	}
	if value := meta[metaTimerPresets]; value != "" {
		var raw []string
		if err := yaml.Unmarshal([]byte(value), &raw); err != nil {
			return fmt.Errorf("parsing timer_presets: %w", err)
		}
		presets := make([]time.Duration, 0, len(raw))
		for _, entry := range raw {
			preset, err := time.ParseDuration(entry)
			if err != nil {
				return fmt.Errorf("parsing timer preset: %w", err)
			}
			presets = append(presets, preset)
		}
		settings.TimerPresets = presets
	}
	if value, ok := meta[metaPomodoroTags]; ok {
		tags := []string{}
		if err := yaml.Unmarshal([]byte(value), &tags); err != nil {
			return fmt.Errorf("parsing pomodoro_tags: %w", err)
		}
		settings.DefaultTags = tags
	}
	*settings = settings.Normalize()

	var err error
	if snapshot.Stats.TotalSessions, err = atoiOrZero(meta[metaTotalPomodoros]); err != nil {
		return fmt.Errorf("parsing total_pomodoros: %w", err)
	}
	if snapshot.Stats.TotalMinutes, err = atoiOrZero(meta[metaTotalMinutes]); err != nil {
		return fmt.Errorf("parsing total_minutes: %w", err)
	}
	return nil
}

func atoiOrZero(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
