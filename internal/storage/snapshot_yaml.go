package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tempo/internal/core/model"
)

// YAMLFileName is the snapshot file created inside the data directory.
const YAMLFileName = "state.yaml"

type yamlSnapshot struct {
	Theme           string        `yaml:"theme"`
	Sound           string        `yaml:"sound"`
	TimeFormat      int           `yaml:"time_format"`
	TimeFormat24h   *bool         `yaml:"time_format_24h,omitempty"`
	TimeOffset      string        `yaml:"time_offset"`
	WindowMode      string        `yaml:"window_mode"`
	TimerPresets    []string      `yaml:"timer_presets"`
	PomodoroTags    []string      `yaml:"pomodoro_tags"`
	Alarms          []yamlAlarm   `yaml:"alarms"`
	PomodoroHistory []yamlSession `yaml:"pomodoro_history"`
	Stats           yamlStats     `yaml:"stats"`
}

// yamlAlarm also reads the older `time: "HH:MM:SS"` form, where a missing
// enabled flag means enabled.
type yamlAlarm struct {
	ID      string `yaml:"id"`
	Time    string `yaml:"time,omitempty"`
	Hour    int    `yaml:"hour"`
	Minute  int    `yaml:"minute"`
	Second  int    `yaml:"second"`
	Label   string `yaml:"label"`
	Enabled *bool  `yaml:"enabled"`
}

type yamlSession struct {
	Date      string `yaml:"date"`
	Tag       string `yaml:"tag"`
	Timestamp string `yaml:"timestamp"`
	StartedAt string `yaml:"started_at,omitempty"`
	Minutes   *int   `yaml:"minutes,omitempty"`
}

type yamlStats struct {
	TotalPomodoros int                     `yaml:"total_pomodoros"`
	TotalMinutes   int                     `yaml:"total_minutes"`
	SessionsByTag  map[string]yamlTagStats `yaml:"sessions_by_tag"`
}

type yamlTagStats struct {
	Count   int `yaml:"count"`
	Minutes int `yaml:"minutes"`
}

// UnmarshalYAML accepts a bare session count, which older files stored per
// tag, counting each session as one default-length work phase.
func (tagStats *yamlTagStats) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if err := node.Decode(&tagStats.Count); err != nil {
			return err
		}
		tagStats.Minutes = tagStats.Count * int(model.DefaultWorkDuration/time.Minute)
		return nil
	}
	type plain yamlTagStats
	return node.Decode((*plain)(tagStats))
}

// Zone-less layouts written by older versions; read in local time.
var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return parsed, nil
	}
	for _, layout := range localTimestampLayouts {
		if local, localErr := time.ParseInLocation(layout, raw, time.Local); localErr == nil {
			return local, nil
		}
	}
	return time.Time{}, err
}

// parseStoredDuration reads a Go duration string. A bare number is taken in
// unit, as older files stored offsets in seconds and presets in minutes.
func parseStoredDuration(raw string, unit time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if number, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(number) || math.IsInf(number, 0) {
			return 0, fmt.Errorf("duration %q is not finite", raw)
		}
		return time.Duration(number * float64(unit)), nil
	}
	return time.ParseDuration(raw)
}

// YAMLStore keeps the snapshot in a single YAML document.
type YAMLStore struct {
	path string
}

// NewYAMLStore returns a store writing to path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path returns the snapshot file path.
func (store *YAMLStore) Path() string {
	return store.path
}

// Load reads the snapshot. A missing file yields defaults and no error; an
// unreadable or corrupt file yields defaults and an error wrapping ErrIO. A
// corrupt file is renamed aside first so the next save cannot destroy it.
func (store *YAMLStore) Load() (model.Snapshot, error) {
	snapshot := model.DefaultSnapshot()

	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot, nil
		}
		return snapshot, fmt.Errorf("read snapshot file: %w: %w", model.ErrIO, err)
	}

	var fileData yamlSnapshot
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return snapshot, store.quarantine(fmt.Errorf("parse snapshot yaml: %w: %w", model.ErrIO, err))
	}

	if err := applyYAMLSnapshot(&snapshot, fileData); err != nil {
		return model.DefaultSnapshot(), store.quarantine(fmt.Errorf("decode snapshot: %w: %w", model.ErrIO, err))
	}
	return snapshot, nil
}

func (store *YAMLStore) quarantine(cause error) error {
	aside := fmt.Sprintf("%s.corrupt-%s", store.path, time.Now().Format("20060102T150405"))
	if err := os.Rename(store.path, aside); err != nil {
		return fmt.Errorf("%w (could not move it aside: %v)", cause, err)
	}
	return fmt.Errorf("%w (kept as %s)", cause, aside)
}

// Save writes the snapshot atomically: a crash leaves either the previous or
// the new document on disk.
func (store *YAMLStore) Save(snapshot model.Snapshot) error {
	serialized, err := yaml.Marshal(toYAMLSnapshot(snapshot))
	if err != nil {
		return fmt.Errorf("marshal snapshot yaml: %w", err)
	}
	if err := writeFileAtomic(store.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

// Close is a no-op; YAMLStore holds no open handles.
func (store *YAMLStore) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	committed = true
	return nil
}

func toYAMLSnapshot(snapshot model.Snapshot) yamlSnapshot {
	settings := snapshot.Settings
	fileData := yamlSnapshot{
		Theme:           settings.Theme,
		Sound:           settings.Sound,
		TimeFormat:      settings.TimeFormat,
		TimeOffset:      settings.TimeOffset.String(),
		WindowMode:      settings.WindowMode,
		TimerPresets:    make([]string, 0, len(settings.TimerPresets)),
		PomodoroTags:    append([]string{}, settings.DefaultTags...),
		Alarms:          make([]yamlAlarm, 0, len(snapshot.Alarms)),
		PomodoroHistory: make([]yamlSession, 0, len(snapshot.History)),
		Stats: yamlStats{
			TotalPomodoros: snapshot.Stats.TotalSessions,
			TotalMinutes:   snapshot.Stats.TotalMinutes,
			SessionsByTag:  make(map[string]yamlTagStats, len(snapshot.Stats.ByTag)),
		},
	}
	for _, preset := range settings.TimerPresets {
		fileData.TimerPresets = append(fileData.TimerPresets, preset.String())
	}
	for _, alarm := range snapshot.Alarms {
		enabled := alarm.Enabled
		fileData.Alarms = append(fileData.Alarms, yamlAlarm{
			ID:      alarm.ID,
			Hour:    alarm.Hour,
			Minute:  alarm.Minute,
			Second:  alarm.Second,
			Label:   alarm.Label,
			Enabled: &enabled,
		})
	}
	for _, session := range snapshot.History {
		minutes := session.Minutes
		entry := yamlSession{
			Date:      session.Date,
			Tag:       session.Tag,
			Timestamp: session.CompletedAt.Format(time.RFC3339Nano),
			Minutes:   &minutes,
		}
		if !session.StartedAt.IsZero() {
			entry.StartedAt = session.StartedAt.Format(time.RFC3339Nano)
		}
		fileData.PomodoroHistory = append(fileData.PomodoroHistory, entry)
	}
	for tag, tagStats := range snapshot.Stats.ByTag {
		fileData.Stats.SessionsByTag[tag] = yamlTagStats{Count: tagStats.Count, Minutes: tagStats.Minutes}
	}
	return fileData
}

func applyYAMLSnapshot(snapshot *model.Snapshot, fileData yamlSnapshot) error {
	settings := &snapshot.Settings
	if fileData.Theme != "" {
		settings.Theme = fileData.Theme
	}
	if fileData.Sound != "" {
		settings.Sound = fileData.Sound
	}
	switch {
	case fileData.TimeFormat == model.TimeFormat12 || fileData.TimeFormat == model.TimeFormat24:
		settings.TimeFormat = fileData.TimeFormat
	case fileData.TimeFormat24h != nil && *fileData.TimeFormat24h:
		settings.TimeFormat = model.TimeFormat24
	case fileData.TimeFormat24h != nil:
		settings.TimeFormat = model.TimeFormat12
	}
	if fileData.TimeOffset != "" {
		offset, err := parseStoredDuration(fileData.TimeOffset, time.Second)
		if err != nil {
			return fmt.Errorf("time_offset: %w", err)
		}
		settings.TimeOffset = offset
	}
	if fileData.WindowMode != "" {
		settings.WindowMode = fileData.WindowMode
	}
	if len(fileData.TimerPresets) > 0 {
		presets := make([]time.Duration, 0, len(fileData.TimerPresets))
		for _, raw := range fileData.TimerPresets {
			preset, err := parseStoredDuration(raw, time.Minute)
			if err != nil {
				return fmt.Errorf("timer_presets: %w", err)
			}
			presets = append(presets, preset)
		}
		settings.TimerPresets = presets
	}
	if fileData.PomodoroTags != nil {
		settings.DefaultTags = fileData.PomodoroTags
	}
	*settings = settings.Normalize()

	for _, entry := range fileData.Alarms {
		alarm := model.Alarm{
			ID:      entry.ID,
			Hour:    entry.Hour,
			Minute:  entry.Minute,
			Second:  entry.Second,
			Label:   entry.Label,
			Enabled: entry.Enabled == nil || *entry.Enabled,
		}
		if entry.Time != "" {
			hour, minute, second, err := model.ParseClock(entry.Time)
			if err != nil {
				return fmt.Errorf("alarms time: %w", err)
			}
			alarm.Hour, alarm.Minute, alarm.Second = hour, minute, second
		}
		snapshot.Alarms = append(snapshot.Alarms, alarm)
	}

	for _, entry := range fileData.PomodoroHistory {
		session, err := decodeYAMLSession(entry)
		if err != nil {
			return err
		}
		snapshot.History = append(snapshot.History, session)
	}

	snapshot.Stats = model.Stats{
		TotalSessions: fileData.Stats.TotalPomodoros,
		TotalMinutes:  fileData.Stats.TotalMinutes,
		ByTag:         make(map[string]model.TagStats, len(fileData.Stats.SessionsByTag)),
	}
	for tag, tagStats := range fileData.Stats.SessionsByTag {
		snapshot.Stats.ByTag[tag] = model.TagStats{Count: tagStats.Count, Minutes: tagStats.Minutes}
	}
	return nil
}

// decodeYAMLSession accepts entries written before started_at and minutes
// were recorded; those count as one default-length work phase.
func decodeYAMLSession(entry yamlSession) (model.Session, error) {
	session := model.Session{
		Date:    entry.Date,
		Tag:     entry.Tag,
		Minutes: int(model.DefaultWorkDuration / time.Minute),
	}
	if entry.Minutes != nil {
		session.Minutes = *entry.Minutes
	}
	if entry.Timestamp != "" {
		completedAt, err := parseTimestamp(entry.Timestamp)
		if err != nil {
			return model.Session{}, fmt.Errorf("pomodoro_history timestamp: %w", err)
		}
		session.CompletedAt = completedAt
	}
	if entry.StartedAt != "" {
		startedAt, err := parseTimestamp(entry.StartedAt)
		if err != nil {
			return model.Session{}, fmt.Errorf("pomodoro_history started_at: %w", err)
		}
		session.StartedAt = startedAt
	}
	if session.Date == "" && !session.CompletedAt.IsZero() {
		session.Date = session.CompletedAt.Format(model.DateLayout)
	}
	return session, nil
}
