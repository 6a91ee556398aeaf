package timekeeper

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"tempo/internal/core/alarm"
	"tempo/internal/core/clock"
	"tempo/internal/core/countdown"
	"tempo/internal/core/model"
	"tempo/internal/core/pomodoro"
	"tempo/internal/core/stats"
	"tempo/internal/core/stopwatch"
)

// Store persists the full snapshot.
type Store interface {
	Save(snapshot model.Snapshot) error
}

// Config contains runtime options for TimeKeeper.
type Config struct {
	TickInterval time.Duration
	// Clock overrides the offset wall clock built from the settings.
	Clock    clock.Clock
	Pomodoro model.PomodoroConfig
	Logger   *slog.Logger
}

type offsetSetter interface {
	SetOffset(offset time.Duration)
}

// TimeKeeper owns every state machine and serializes ticks and user
// operations behind one mutex. Each mutating operation saves the snapshot
// before returning.
type TimeKeeper struct {
	mu          sync.Mutex
	options     Config
	clock       clock.Clock
	logger      *slog.Logger
	store       Store
	settings    model.Settings
	alarms      *alarm.Registry
	timer       *countdown.Timer
	stopwatch   *stopwatch.Stopwatch
	pomodoro    *pomodoro.Engine
	stats       *stats.Aggregator
	lastSecond  int64
	lastTick    time.Time
	events      []chan Event
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	lastSaveErr error
}

// New creates a TimeKeeper from a loaded snapshot. A nil store disables
// persistence.
func New(snapshot model.Snapshot, store Store, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	settings := snapshot.Settings.Normalize().Clone()

	clk := options.Clock
	if clk == nil {
		clk = clock.New(settings.TimeOffset)
	}

	aggregator := stats.New(snapshot.History)
	if err := aggregator.Reconcile(snapshot.Stats); err != nil {
		logger.Warn("persisted stats disagree with history, using recomputed totals", "error", err)
	}

	registry := alarm.NewRegistry()
	registry.Restore(snapshot.Alarms)

	keeper := &TimeKeeper{
		options:    options,
		clock:      clk,
		logger:     logger,
		store:      store,
		settings:   settings,
		alarms:     registry,
		timer:      countdown.New(),
		stopwatch:  stopwatch.New(),
		stats:      aggregator,
		lastSecond: math.MinInt64,
	}
	keeper.pomodoro = pomodoro.New(options.Pomodoro, clk, aggregator)
	return keeper
}

// Subscribe registers a new observer channel. Sends never block: a full
// channel drops the event.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Start launches the ticking loop.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	keeper.lastTick = time.Time{}
	keeper.stopCh = make(chan struct{})
	keeper.doneCh = make(chan struct{})
	stopCh, doneCh := keeper.stopCh, keeper.doneCh
	keeper.mu.Unlock()

	go keeper.run(stopCh, doneCh)
}

// Stop terminates the ticking loop and closes observers.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	doneCh := keeper.doneCh
	keeper.mu.Unlock()

	<-doneCh

	keeper.mu.Lock()
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (keeper *TimeKeeper) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(keeper.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.C:
			keeper.tickAt(tickTime)
		}
	}
}

// tickAt derives the delta from the previous ticker fire so that late ticks
// still advance timers by the real elapsed time.
func (keeper *TimeKeeper) tickAt(tickTime time.Time) {
	keeper.mu.Lock()
	delta := keeper.options.TickInterval
	if !keeper.lastTick.IsZero() {
		if elapsed := tickTime.Sub(keeper.lastTick); elapsed > 0 {
			delta = elapsed
		}
	}
	keeper.lastTick = tickTime
	keeper.tickLocked(delta)
	keeper.mu.Unlock()
}

// Tick advances every state machine by delta in order: clock, alarms,
// countdown, stopwatch, pomodoro. It is the deterministic entry point used by
// the loop and by simulations.
func (keeper *TimeKeeper) Tick(delta time.Duration) {
	keeper.mu.Lock()
	keeper.tickLocked(delta)
	keeper.mu.Unlock()
}

func (keeper *TimeKeeper) tickLocked(delta time.Duration) {
	now := keeper.clock.Now()
	mutated := false

	// Each wall-clock second is evaluated at most once.
	if second := now.Unix(); second != keeper.lastSecond {
		keeper.lastSecond = second
		for _, fired := range keeper.alarms.EvaluateTick(now) {
			mutated = true
			keeper.logger.Info("alarm fired", "id", fired.ID, "time", fired.Clock(), "label", fired.Label)
			keeper.emitLocked(Event{Type: EventAlarmFired, Alarm: &fired, At: now})
		}
	}

	if keeper.timer.Tick(delta) {
		keeper.logger.Info("countdown finished", "total", keeper.timer.State().Total)
		keeper.emitLocked(Event{Type: EventTimerFinished, At: now})
	}

	keeper.stopwatch.Tick(delta)

	if completion, ok := keeper.pomodoro.Tick(delta); ok {
		if completion.Session != nil {
			mutated = true
			keeper.logger.Info("pomodoro session completed",
				"tag", completion.Session.Tag, "minutes", completion.Session.Minutes)
		} else {
			keeper.logger.Info("pomodoro break completed")
		}
		keeper.emitLocked(Event{
			Type:    EventPhaseCompleted,
			Phase:   completion.Phase,
			Session: completion.Session,
			At:      completion.At,
		})
	}

	if mutated {
		if err := keeper.saveLocked(); err != nil {
			keeper.emitLocked(Event{Type: EventPersistFailed, Message: err.Error(), At: now})
		}
	}

	keeper.emitLocked(Event{Type: EventProgress, Status: keeper.statusLocked(now), At: now})
}

// AddAlarm creates an enabled alarm. On a save failure the alarm is still
// added and the returned error wraps model.ErrIO.
func (keeper *TimeKeeper) AddAlarm(hour, minute, second int, label string) (model.Alarm, error) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	created, err := keeper.alarms.Add(hour, minute, second, label)
	if err != nil {
		return model.Alarm{}, err
	}
	keeper.logger.Debug("alarm added", "id", created.ID, "time", created.Clock())
	return created, keeper.saveLocked()
}

// RemoveAlarm deletes an alarm.
func (keeper *TimeKeeper) RemoveAlarm(id string) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.alarms.Remove(id); err != nil {
		return err
	}
	keeper.logger.Debug("alarm removed", "id", id)
	return keeper.saveLocked()
}

// ToggleAlarm flips an alarm's enabled flag.
func (keeper *TimeKeeper) ToggleAlarm(id string) (model.Alarm, error) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	toggled, err := keeper.alarms.Toggle(id)
	if err != nil {
		return model.Alarm{}, err
	}
	return toggled, keeper.saveLocked()
}

// Alarms lists alarms in insertion order.
func (keeper *TimeKeeper) Alarms() []model.Alarm {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.alarms.List()
}

// StartTimer arms and starts the countdown.
func (keeper *TimeKeeper) StartTimer(duration time.Duration) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.timer.Start(duration); err != nil {
		return err
	}
	keeper.emitStateChangeLocked()
	return keeper.saveLocked()
}

// StartTimerPreset starts the countdown with the preset at index.
func (keeper *TimeKeeper) StartTimerPreset(index int) error {
	keeper.mu.Lock()
	presets := keeper.settings.TimerPresets
	keeper.mu.Unlock()

	if index < 0 || index >= len(presets) {
		return fmt.Errorf("timer preset %d: %w", index, model.ErrNotFound)
	}
	return keeper.StartTimer(presets[index])
}

// PauseTimer freezes a running countdown.
func (keeper *TimeKeeper) PauseTimer() bool {
	return keeper.transition(keeper.timer.Pause)
}

// ResumeTimer continues a paused countdown.
func (keeper *TimeKeeper) ResumeTimer() bool {
	return keeper.transition(keeper.timer.Resume)
}

// StopTimer cancels the countdown.
func (keeper *TimeKeeper) StopTimer() bool {
	return keeper.transition(keeper.timer.Stop)
}

// StartStopwatch starts the stopwatch from zero.
func (keeper *TimeKeeper) StartStopwatch() bool {
	return keeper.transition(keeper.stopwatch.Start)
}

// PauseStopwatch freezes the stopwatch.
func (keeper *TimeKeeper) PauseStopwatch() bool {
	return keeper.transition(keeper.stopwatch.Pause)
}

// ResumeStopwatch continues the stopwatch.
func (keeper *TimeKeeper) ResumeStopwatch() bool {
	return keeper.transition(keeper.stopwatch.Resume)
}

// ResetStopwatch returns the stopwatch to zero.
func (keeper *TimeKeeper) ResetStopwatch() {
	keeper.transition(func() bool {
		keeper.stopwatch.Reset()
		return true
	})
}

// LapStopwatch records a split of the running stopwatch.
func (keeper *TimeKeeper) LapStopwatch() (time.Duration, bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.stopwatch.Lap()
}

// StartPomodoro begins a work phase.
func (keeper *TimeKeeper) StartPomodoro(tag string) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	if err := keeper.pomodoro.Start(tag); err != nil {
		return err
	}
	keeper.logger.Debug("pomodoro started", "tag", tag)
	keeper.emitStateChangeLocked()
	return nil
}

// StopPomodoro abandons the current phase; nothing is recorded.
func (keeper *TimeKeeper) StopPomodoro() bool {
	return keeper.transition(keeper.pomodoro.Stop)
}

// PausePomodoro freezes the current phase.
func (keeper *TimeKeeper) PausePomodoro() bool {
	return keeper.transition(keeper.pomodoro.Pause)
}

// ResumePomodoro continues the current phase.
func (keeper *TimeKeeper) ResumePomodoro() bool {
	return keeper.transition(keeper.pomodoro.Resume)
}

// SkipPomodoro ends the current phase early without recording a session.
func (keeper *TimeKeeper) SkipPomodoro() bool {
	return keeper.transition(keeper.pomodoro.Skip)
}

// Status returns the state of every state machine.
func (keeper *TimeKeeper) Status() Status {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.statusLocked(keeper.clock.Now())
}

// Now returns the engine clock's time.
func (keeper *TimeKeeper) Now() time.Time {
	return keeper.clock.Now()
}

// Stats returns aggregated pomodoro statistics.
func (keeper *TimeKeeper) Stats() model.Stats {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.stats.Stats()
}

// SessionsToday counts sessions completed on the engine clock's current date.
func (keeper *TimeKeeper) SessionsToday() int {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.stats.SessionsOn(keeper.clock.Now().Format(model.DateLayout))
}

// SessionsThisWeek counts sessions from the last seven days, today included.
func (keeper *TimeKeeper) SessionsThisWeek() int {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	since := keeper.clock.Now().AddDate(0, 0, -7).Format(model.DateLayout)
	return keeper.stats.SessionsSince(since)
}

// VerifyStats checks the running totals against a fold of the history.
func (keeper *TimeKeeper) VerifyStats() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.stats.Verify()
}

// ExportHistory returns completed sessions in insertion order.
func (keeper *TimeKeeper) ExportHistory() []model.Session {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.stats.ExportHistory()
}

// Settings returns the current user settings.
func (keeper *TimeKeeper) Settings() model.Settings {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings.Clone()
}

// UpdateSettings replaces the user settings and applies the time offset.
func (keeper *TimeKeeper) UpdateSettings(settings model.Settings) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.settings = settings.Normalize().Clone()
	if setter, ok := keeper.clock.(offsetSetter); ok {
		setter.SetOffset(keeper.settings.TimeOffset)
	}
	return keeper.saveLocked()
}

// Reload replaces settings, alarms and history with a freshly loaded
// snapshot. Running countdowns, stopwatch and Pomodoro are left alone.
func (keeper *TimeKeeper) Reload(snapshot model.Snapshot) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	keeper.settings = snapshot.Settings.Normalize().Clone()
	if setter, ok := keeper.clock.(offsetSetter); ok {
		setter.SetOffset(keeper.settings.TimeOffset)
	}
	keeper.alarms.Restore(snapshot.Alarms)
	keeper.stats.Restore(snapshot.History)
	if err := keeper.stats.Reconcile(snapshot.Stats); err != nil {
		keeper.logger.Warn("persisted stats disagree with history, using recomputed totals", "error", err)
	}
	keeper.emitStateChangeLocked()
}

// Snapshot returns the full persisted document.
func (keeper *TimeKeeper) Snapshot() model.Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.snapshotLocked()
}

// Save persists the snapshot outside of a mutating operation.
func (keeper *TimeKeeper) Save() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.saveLocked()
}

// LastSaveError returns the error of the most recent save, or nil.
func (keeper *TimeKeeper) LastSaveError() error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.lastSaveErr
}

func (keeper *TimeKeeper) transition(apply func() bool) bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if !apply() {
		return false
	}
	keeper.emitStateChangeLocked()
	return true
}

func (keeper *TimeKeeper) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Settings: keeper.settings.Clone(),
		Alarms:   keeper.alarms.List(),
		History:  keeper.stats.ExportHistory(),
		Stats:    keeper.stats.Stats(),
	}
}

// saveLocked writes the snapshot. In-memory state is never rolled back on
// failure.
func (keeper *TimeKeeper) saveLocked() error {
	if keeper.store == nil {
		return nil
	}
	if err := keeper.store.Save(keeper.snapshotLocked()); err != nil {
		keeper.lastSaveErr = fmt.Errorf("save snapshot: %w: %w", model.ErrIO, err)
		keeper.logger.Error("persisting snapshot failed", "error", err)
		return keeper.lastSaveErr
	}
	keeper.lastSaveErr = nil
	return nil
}

func (keeper *TimeKeeper) statusLocked(now time.Time) Status {
	return Status{
		Now:       now,
		Timer:     keeper.timer.State(),
		Stopwatch: keeper.stopwatch.State(),
		Pomodoro:  keeper.pomodoro.State(),
	}
}

func (keeper *TimeKeeper) emitStateChangeLocked() {
	now := keeper.clock.Now()
	keeper.emitLocked(Event{Type: EventStateChange, Status: keeper.statusLocked(now), At: now})
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	events := append([]chan Event(nil), keeper.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
