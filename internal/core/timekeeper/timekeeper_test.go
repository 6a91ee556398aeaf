package timekeeper

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempo/internal/core/clock"
	"tempo/internal/core/model"
)

type memoryStore struct {
	mu    sync.Mutex
	saves []model.Snapshot
	err   error
}

func (store *memoryStore) Save(snapshot model.Snapshot) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.err != nil {
		return store.err
	}
	store.saves = append(store.saves, snapshot)
	return nil
}

func (store *memoryStore) count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.saves)
}

func (store *memoryStore) last() model.Snapshot {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saves[len(store.saves)-1]
}

func newTestKeeper(t *testing.T, start time.Time) (*TimeKeeper, *clock.Manual, *memoryStore) {
	t.Helper()
	clk := clock.NewManual(start)
	store := &memoryStore{}
	keeper := New(model.DefaultSnapshot(), store, Config{Clock: clk})
	return keeper, clk, store
}

// step advances the manual clock and the keeper together, one second per tick.
func step(keeper *TimeKeeper, clk *clock.Manual, total time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += time.Second {
		clk.Advance(time.Second)
		keeper.Tick(time.Second)
	}
}

func drain(events <-chan Event, eventType EventType) []Event {
	var matched []Event
	for {
		select {
		case event := <-events:
			if event.Type == eventType {
				matched = append(matched, event)
			}
		default:
			return matched
		}
	}
}

func TestTimeKeeper_WakeScenario(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.Local))
	events := keeper.Subscribe(64)

	alarm, err := keeper.AddAlarm(7, 30, 0, "Wake")
	require.NoError(t, err)
	require.Equal(t, 1, store.count(), "add saves")

	keeper.Tick(time.Second)
	fired := drain(events, EventAlarmFired)
	require.Len(t, fired, 1)
	assert.Equal(t, alarm.ID, fired[0].Alarm.ID)
	assert.False(t, keeper.Alarms()[0].Enabled)
	assert.Equal(t, 2, store.count(), "auto-disable saves")
	assert.False(t, store.last().Alarms[0].Enabled)

	keeper.Tick(time.Second)
	clk.Set(time.Date(2026, 3, 2, 7, 30, 0, 0, time.Local))
	keeper.Tick(time.Second)
	assert.Empty(t, drain(events, EventAlarmFired))
}

func TestTimeKeeper_SameSecondEvaluatedOnce(t *testing.T) {
	keeper, _, _ := newTestKeeper(t, time.Date(2026, 3, 1, 7, 30, 0, 0, time.Local))
	events := keeper.Subscribe(64)

	alarm, err := keeper.AddAlarm(7, 30, 0, "Wake")
	require.NoError(t, err)
	keeper.Tick(500 * time.Millisecond)

	// Re-enabling within the same wall-clock second must not fire again.
	_, err = keeper.ToggleAlarm(alarm.ID)
	require.NoError(t, err)
	keeper.Tick(500 * time.Millisecond)

	assert.Len(t, drain(events, EventAlarmFired), 1)
	assert.True(t, keeper.Alarms()[0].Enabled)
}

func TestTimeKeeper_DisabledAlarmNeverFires(t *testing.T) {
	keeper, clk, _ := newTestKeeper(t, time.Date(2026, 3, 1, 7, 29, 58, 0, time.Local))
	events := keeper.Subscribe(64)

	alarm, err := keeper.AddAlarm(7, 30, 0, "Wake")
	require.NoError(t, err)
	_, err = keeper.ToggleAlarm(alarm.ID)
	require.NoError(t, err)

	step(keeper, clk, 5*time.Second)
	assert.Empty(t, drain(events, EventAlarmFired))
}

func TestTimeKeeper_InvalidInputLeavesStateAndStoreUntouched(t *testing.T) {
	keeper, _, store := newTestKeeper(t, time.Now())

	_, err := keeper.AddAlarm(24, 0, 0, "")
	assert.ErrorIs(t, err, model.ErrInvalidTime)
	assert.ErrorIs(t, keeper.RemoveAlarm("nope"), model.ErrNotFound)
	_, err = keeper.ToggleAlarm("nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, keeper.StartTimer(0), model.ErrInvalidDuration)

	assert.Empty(t, keeper.Alarms())
	assert.Zero(t, store.count())
}

func TestTimeKeeper_TimerFinishesOnce(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local))
	events := keeper.Subscribe(256)

	require.NoError(t, keeper.StartTimer(3*time.Second))
	assert.Equal(t, 1, store.count(), "timer start saves")

	step(keeper, clk, 10*time.Second)
	assert.Len(t, drain(events, EventTimerFinished), 1)

	status := keeper.Status()
	assert.Equal(t, model.TimerFinished, status.Timer.Mode)
	assert.Zero(t, status.Timer.Remaining)
}

func TestTimeKeeper_TimerPresets(t *testing.T) {
	keeper, _, _ := newTestKeeper(t, time.Now())

	require.NoError(t, keeper.StartTimerPreset(1))
	assert.Equal(t, 5*time.Minute, keeper.Status().Timer.Total)

	assert.ErrorIs(t, keeper.StartTimerPreset(99), model.ErrNotFound)
	assert.ErrorIs(t, keeper.StartTimerPreset(-1), model.ErrNotFound)
}

func TestTimeKeeper_TimerPauseResumeStop(t *testing.T) {
	keeper, clk, _ := newTestKeeper(t, time.Now())
	events := keeper.Subscribe(64)

	assert.False(t, keeper.PauseTimer())
	require.NoError(t, keeper.StartTimer(time.Minute))
	step(keeper, clk, 10*time.Second)

	assert.True(t, keeper.PauseTimer())
	step(keeper, clk, 10*time.Second)
	assert.Equal(t, 50*time.Second, keeper.Status().Timer.Remaining)

	assert.True(t, keeper.ResumeTimer())
	assert.True(t, keeper.StopTimer())
	assert.Equal(t, model.TimerIdle, keeper.Status().Timer.Mode)
	assert.NotEmpty(t, drain(events, EventStateChange))
}

func TestTimeKeeper_Stopwatch(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Now())

	assert.True(t, keeper.StartStopwatch())
	step(keeper, clk, 3*time.Second)
	split, ok := keeper.LapStopwatch()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, split)

	assert.True(t, keeper.PauseStopwatch())
	step(keeper, clk, 3*time.Second)
	assert.True(t, keeper.ResumeStopwatch())
	step(keeper, clk, time.Second)
	assert.Equal(t, 4*time.Second, keeper.Status().Stopwatch.Elapsed)

	keeper.ResetStopwatch()
	assert.Equal(t, model.StopwatchIdle, keeper.Status().Stopwatch.Mode)
	assert.Zero(t, store.count(), "stopwatch is not persisted")
}

func TestTimeKeeper_PomodoroCodeScenario(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local))
	events := keeper.Subscribe(4096)

	require.NoError(t, keeper.StartPomodoro("💻 Code"))
	step(keeper, clk, 25*time.Minute)

	stats := keeper.Stats()
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 25, stats.ByTag["💻 Code"].Minutes)
	assert.Equal(t, model.PhaseBreak, keeper.Status().Pomodoro.Phase)
	assert.Equal(t, 1, keeper.SessionsToday())

	completed := drain(events, EventPhaseCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, model.PhaseWorking, completed[0].Phase)
	require.NotNil(t, completed[0].Session)
	assert.Equal(t, "💻 Code", completed[0].Session.Tag)

	require.Equal(t, 1, store.count(), "session completion saves")
	assert.Len(t, store.last().History, 1)
	assert.Equal(t, 1, store.last().Stats.TotalSessions)

	step(keeper, clk, 5*time.Minute)
	completed = drain(events, EventPhaseCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, model.PhaseBreak, completed[0].Phase)
	assert.Nil(t, completed[0].Session)
	assert.Equal(t, model.PhaseIdle, keeper.Status().Pomodoro.Phase)
	assert.Len(t, keeper.ExportHistory(), 1)
	require.NoError(t, keeper.VerifyStats())
}

func TestTimeKeeper_PomodoroStopRecordsNothing(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Now())

	require.NoError(t, keeper.StartPomodoro("a"))
	assert.ErrorIs(t, keeper.StartPomodoro("b"), model.ErrAlreadyActive)
	step(keeper, clk, 10*time.Minute)

	assert.True(t, keeper.StopPomodoro())
	assert.Equal(t, model.PhaseIdle, keeper.Status().Pomodoro.Phase)
	assert.Empty(t, keeper.ExportHistory())
	assert.Zero(t, store.count())
}

func TestTimeKeeper_SkipPomodoro(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Now())
	assert.False(t, keeper.SkipPomodoro())

	require.NoError(t, keeper.StartPomodoro("a"))
	step(keeper, clk, time.Minute)
	assert.True(t, keeper.SkipPomodoro())
	assert.Equal(t, model.PhaseBreak, keeper.Status().Pomodoro.Phase)
	assert.Empty(t, keeper.ExportHistory(), "skipped work is not a session")

	assert.True(t, keeper.SkipPomodoro())
	assert.Equal(t, model.PhaseIdle, keeper.Status().Pomodoro.Phase)
	assert.Zero(t, store.count())
}

func TestTimeKeeper_PomodoroPauseResume(t *testing.T) {
	keeper, clk, _ := newTestKeeper(t, time.Now())

	require.NoError(t, keeper.StartPomodoro(""))
	assert.True(t, keeper.PausePomodoro())
	step(keeper, clk, 30*time.Minute)
	assert.Equal(t, model.PhaseWorking, keeper.Status().Pomodoro.Phase)
	assert.True(t, keeper.ResumePomodoro())
	step(keeper, clk, 25*time.Minute)
	assert.Equal(t, model.PhaseBreak, keeper.Status().Pomodoro.Phase)
}

func TestTimeKeeper_SaveFailureKeepsMemoryState(t *testing.T) {
	keeper, clk, store := newTestKeeper(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local))
	events := keeper.Subscribe(4096)
	store.err = errors.New("disk full")

	alarm, err := keeper.AddAlarm(9, 0, 5, "late")
	assert.ErrorIs(t, err, model.ErrIO)
	assert.NotEmpty(t, alarm.ID)
	assert.Len(t, keeper.Alarms(), 1, "in-memory state is authoritative")
	assert.ErrorIs(t, keeper.LastSaveError(), model.ErrIO)

	require.NoError(t, keeper.StartPomodoro("x"))
	step(keeper, clk, 25*time.Minute)
	assert.Equal(t, 1, keeper.Stats().TotalSessions)
	assert.NotEmpty(t, drain(events, EventPersistFailed))

	store.err = nil
	require.NoError(t, keeper.Save())
	assert.Len(t, store.last().History, 1)
	assert.NoError(t, keeper.LastSaveError())
}

func TestTimeKeeper_LoadsSnapshot(t *testing.T) {
	snapshot := model.DefaultSnapshot()
	snapshot.Alarms = []model.Alarm{{ID: "a1", Hour: 6, Minute: 45, Label: "Gym", Enabled: true}}
	snapshot.History = []model.Session{
		{Date: "2026-02-28", Tag: "📚 Study", Minutes: 25},
		{Date: "2026-02-28", Tag: "", Minutes: 25},
	}
	// A drifted stats block is replaced by the fold of the history.
	snapshot.Stats = model.Stats{TotalSessions: 7}

	keeper := New(snapshot, nil, Config{Clock: clock.NewManual(time.Now())})

	require.Len(t, keeper.Alarms(), 1)
	assert.Equal(t, "Gym", keeper.Alarms()[0].Label)
	stats := keeper.Stats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 50, stats.TotalMinutes)
	assert.Equal(t, 1, stats.ByTag[""].Count)
}

func TestTimeKeeper_ReloadReplacesPersistedState(t *testing.T) {
	keeper, _, store := newTestKeeper(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local))
	_, err := keeper.AddAlarm(7, 0, 0, "stale")
	require.NoError(t, err)
	require.NoError(t, keeper.StartTimer(time.Hour))

	fresh := model.DefaultSnapshot()
	fresh.Alarms = []model.Alarm{{ID: "b1", Hour: 8, Label: "Fresh", Enabled: true}}
	fresh.History = []model.Session{{Date: "2026-03-01", Tag: "other process", Minutes: 25}}
	saves := store.count()
	keeper.Reload(fresh)

	require.Len(t, keeper.Alarms(), 1)
	assert.Equal(t, "Fresh", keeper.Alarms()[0].Label)
	assert.Equal(t, 1, keeper.Stats().TotalSessions)
	assert.Equal(t, model.TimerRunning, keeper.Status().Timer.Mode, "running machines are kept")
	assert.Equal(t, saves, store.count(), "reload does not save")

	_, err = keeper.AddAlarm(9, 0, 0, "new")
	require.NoError(t, err)
	assert.Len(t, store.last().History, 1, "the next save keeps the reloaded history")
}

func TestTimeKeeper_SessionCounters(t *testing.T) {
	snapshot := model.DefaultSnapshot()
	snapshot.History = []model.Session{
		{Date: "2026-02-20", Tag: "old", Minutes: 25},
		{Date: "2026-02-22", Tag: "week", Minutes: 25},
		{Date: "2026-03-01", Tag: "today", Minutes: 25},
		{Date: "2026-03-01", Tag: "today", Minutes: 25},
	}
	keeper := New(snapshot, nil, Config{Clock: clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local))})

	assert.Equal(t, 2, keeper.SessionsToday())
	assert.Equal(t, 3, keeper.SessionsThisWeek())
}

func TestTimeKeeper_UpdateSettingsAppliesOffset(t *testing.T) {
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.Local)
	offsetClock := clock.NewWithSource(func() time.Time { return base }, 0)
	store := &memoryStore{}
	keeper := New(model.DefaultSnapshot(), store, Config{Clock: offsetClock})

	settings := keeper.Settings()
	settings.TimeOffset = 30 * time.Minute
	settings.TimeFormat = 7
	require.NoError(t, keeper.UpdateSettings(settings))

	assert.Equal(t, base.Add(30*time.Minute), keeper.Now())
	assert.Equal(t, model.TimeFormat24, keeper.Settings().TimeFormat, "invalid format normalized")
	assert.Equal(t, 30*time.Minute, store.last().Settings.TimeOffset)

	events := keeper.Subscribe(8)
	_, err := keeper.AddAlarm(7, 30, 0, "offset")
	require.NoError(t, err)
	keeper.Tick(time.Second)
	assert.Len(t, drain(events, EventAlarmFired), 1, "offset shifts alarm matching")
}

func TestTimeKeeper_LoopTicksAndStops(t *testing.T) {
	store := &memoryStore{}
	keeper := New(model.DefaultSnapshot(), store, Config{TickInterval: 10 * time.Millisecond})
	events := keeper.Subscribe(16)

	keeper.Start()
	keeper.Start()

	select {
	case event := <-events:
		assert.Equal(t, EventProgress, event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick observed")
	}

	keeper.Stop()
	keeper.Stop()
	for range events {
	}
}
