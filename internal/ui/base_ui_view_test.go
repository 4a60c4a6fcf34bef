package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/storage"
)

// fakeView records what BaseUIView asks the framework to show
type fakeView struct {
	mu           sync.Mutex
	initialized  bool
	keysSet      bool
	mode         UIMode
	timer        *TimerDisplay
	planLines    []string
	historyLines []string
	logLines     []string
	stopped      bool
}

func (v *fakeView) Initialize(*UIController) {
	v.mu.Lock()
	v.initialized = true
	v.mu.Unlock()
}

func (v *fakeView) SetupKeyboardHandlers(*UIController) {
	v.mu.Lock()
	v.keysSet = true
	v.mu.Unlock()
}

func (v *fakeView) Run() error { return nil }

func (v *fakeView) Stop() {
	v.mu.Lock()
	v.stopped = true
	v.mu.Unlock()
}

func (v *fakeView) Draw() error { return nil }

func (v *fakeView) SetMode(mode UIMode) {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
}

func (v *fakeView) GetCurrentMode() UIMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *fakeView) GetLogViewHeight() int { return 2 }

func (v *fakeView) ClearLogView() {
	v.mu.Lock()
	v.logLines = nil
	v.mu.Unlock()
}

func (v *fakeView) WriteLogLine(line string) error {
	v.mu.Lock()
	v.logLines = append(v.logLines, line)
	v.mu.Unlock()
	return nil
}

func (v *fakeView) UpdateTimer(d TimerDisplay) {
	v.mu.Lock()
	v.timer = &d
	v.mu.Unlock()
}

func (v *fakeView) UpdateTreadmill(string) {}

func (v *fakeView) SetPlanLines(lines []string) {
	v.mu.Lock()
	v.planLines = lines
	v.mu.Unlock()
}

func (v *fakeView) SetHistoryLines(lines []string) {
	v.mu.Lock()
	v.historyLines = lines
	v.mu.Unlock()
}

func (v *fakeView) read(fn func(v *fakeView) bool) func() bool {
	return func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return fn(v)
	}
}

type viewFixture struct {
	view       *fakeView
	base       *BaseUIView
	model      *UIModel
	controller *UIController
	snapshots  *fakeSnapshots
	logChan    chan string
}

func newViewFixture(t *testing.T) *viewFixture {
	t.Helper()
	model, snapshots, logChan := newTestModel(t, nil)
	controller := NewUIController(model, &fakeTimer{plan: interval.DefaultPlan()}, storage.NewMemoryStore(), nil, discardLogger())
	view := &fakeView{}
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: controller,
		Logger:       discardLogger(),
	})
	t.Cleanup(base.Shutdown)
	return &viewFixture{view: view, base: base, model: model, controller: controller, snapshots: snapshots, logChan: logChan}
}

func TestBaseUIView_InitializesView(t *testing.T) {
	f := newViewFixture(t)

	assert.True(t, f.view.read(func(v *fakeView) bool { return v.initialized && v.keysSet })())
	assert.Equal(t, UIModeTimer, f.view.GetCurrentMode())
	// the plan loaded by the controller is replayed to the view
	require.Eventually(t, f.view.read(func(v *fakeView) bool { return len(v.planLines) > 0 }), time.Second, time.Millisecond)
}

func TestBaseUIView_RendersSnapshots(t *testing.T) {
	f := newViewFixture(t)

	f.snapshots.event.Notify(runningSnapshot(1, 2, 0, 75))
	require.Eventually(t, f.view.read(func(v *fakeView) bool {
		return v.timer != nil && v.timer.Remaining == "01:15"
	}), time.Second, time.Millisecond)

	f.snapshots.event.Notify(engine.Snapshot{Status: engine.StatusPaused})
	require.Eventually(t, f.view.read(func(v *fakeView) bool {
		return v.timer.StatusLabel == "Paused"
	}), time.Second, time.Millisecond)
}

func TestBaseUIView_ModeChange(t *testing.T) {
	f := newViewFixture(t)

	f.controller.OnModeChange(UIModeHistory)
	require.Eventually(t, func() bool { return f.view.GetCurrentMode() == UIModeHistory }, time.Second, time.Millisecond)
	require.Eventually(t, f.view.read(func(v *fakeView) bool {
		return len(v.historyLines) > 0 && v.historyLines[len(v.historyLines)-1] == "No workouts yet"
	}), time.Second, time.Millisecond)
}

func TestBaseUIView_LogTail(t *testing.T) {
	f := newViewFixture(t)

	f.logChan <- "first\n"
	f.logChan <- "second\n"
	f.logChan <- "third\n"

	// the view is two lines high
	require.Eventually(t, f.view.read(func(v *fakeView) bool {
		return len(v.logLines) == 2 && v.logLines[0] == "second\n" && v.logLines[1] == "third\n"
	}), time.Second, time.Millisecond)
}

func TestBaseUIView_EscapeStopsView(t *testing.T) {
	f := newViewFixture(t)

	f.controller.OnEscapeKey()
	require.Eventually(t, f.view.read(func(v *fakeView) bool { return v.stopped }), time.Second, time.Millisecond)
}

func TestNewBaseUIView_Panics(t *testing.T) {
	model, _, _ := newTestModel(t, nil)
	controller := NewUIController(model, &fakeTimer{}, storage.NewMemoryStore(), nil, discardLogger())

	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIModel: model, UIController: controller, Logger: discardLogger()})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &fakeView{}, UIController: controller, Logger: discardLogger()})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &fakeView{}, UIModel: model, Logger: discardLogger()})
	})
	assert.Panics(t, func() {
		NewBaseUIView(NewBaseUIViewArg{UIViewImpl: &fakeView{}, UIModel: model, UIController: controller})
	})
}
