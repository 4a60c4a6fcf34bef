package ui

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/events"
	"github.com/lowaak/interval-split/internal/go_func_utils"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/treadmill"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode UIMode
}

// HistoryState is what the history screen shows
type HistoryState struct {
	Stats history.Stats
	Days  []history.DailyRecord
}

// SnapshotSource publishes timer snapshots
type SnapshotSource interface {
	ListenToSnapshots(ch chan<- engine.Snapshot) func()
}

// TreadmillSource publishes treadmill state
type TreadmillSource interface {
	ListenToState(ch chan<- treadmill.State) func()
}

type UIModel struct {
	logEvent              *events.ChannelEvent[string]
	closeApplicationEvent *events.ChannelEvent[struct{}]
	uiStateEvent          *events.ChannelEvent[UIState]
	uiState               UIState
	snapshotEvent         *events.ChannelEvent[engine.Snapshot]
	snapshot              engine.Snapshot
	planEvent             *events.ChannelEvent[interval.Plan]
	plan                  interval.Plan
	historyEvent          *events.ChannelEvent[HistoryState]
	history               HistoryState
	treadmillEvent        *events.ChannelEvent[treadmill.State]
	treadmillState        *treadmill.State
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

// NewUIModel follows snapshots and, when treadmillSource is not nil, the
// treadmill state. Log lines arrive on uiLogChan.
func NewUIModel(snapshots SnapshotSource, treadmillSource TreadmillSource, logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if snapshots == nil {
		panic("UIModel: snapshots cannot be nil")
	}
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewChannelEvent[string](false),
		closeApplicationEvent: events.NewChannelEvent[struct{}](true),
		uiStateEvent:          events.NewChannelEvent[UIState](true),
		uiState:               UIState{Mode: UIModeTimer},
		snapshotEvent:         events.NewChannelEvent[engine.Snapshot](true),
		planEvent:             events.NewChannelEvent[interval.Plan](true),
		historyEvent:          events.NewChannelEvent[HistoryState](true),
		treadmillEvent:        events.NewChannelEvent[treadmill.State](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModelSnapshots", func() { model.listenToSnapshots(ctx, snapshots) })

	if treadmillSource != nil {
		model.wg.Add(1)
		go_func_utils.SafeGo(model.logger, "UIModelTreadmill", func() { model.listenToTreadmill(ctx, treadmillSource) })
	}

	model.wg.Add(1)
	go_func_utils.SafeGo(model.logger, "UIModelLog", func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.mu.Lock()
	if m.uiState.Mode == mode {
		m.mu.Unlock()
		return
	}
	m.uiState.Mode = mode
	state := m.uiState
	m.mu.Unlock()

	m.uiStateEvent.Notify(state)
}

// ListenToSnapshot registers a channel for timer snapshots
func (m *UIModel) ListenToSnapshot(ch chan<- engine.Snapshot) func() {
	return m.snapshotEvent.Listen(ch)
}

func (m *UIModel) GetSnapshot() engine.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ListenToPlan registers a channel for the plan shown on the plan screen
func (m *UIModel) ListenToPlan(ch chan<- interval.Plan) func() {
	return m.planEvent.Listen(ch)
}

func (m *UIModel) GetPlan() interval.Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plan.Clone()
}

// SetPlan replaces the plan shown on the plan screen and notifies listeners
func (m *UIModel) SetPlan(plan interval.Plan) {
	m.mu.Lock()
	m.plan = plan.Clone()
	planCopy := m.plan.Clone()
	m.mu.Unlock()

	m.planEvent.Notify(planCopy)
}

// ListenToHistory registers a channel for history screen updates
func (m *UIModel) ListenToHistory(ch chan<- HistoryState) func() {
	return m.historyEvent.Listen(ch)
}

func (m *UIModel) GetHistory() HistoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history
}

// SetHistory replaces the history screen content and notifies listeners
func (m *UIModel) SetHistory(state HistoryState) {
	m.mu.Lock()
	m.history = state
	m.mu.Unlock()

	m.historyEvent.Notify(state)
}

// ListenToTreadmill registers a channel for treadmill state changes
func (m *UIModel) ListenToTreadmill(ch chan<- treadmill.State) func() {
	return m.treadmillEvent.Listen(ch)
}

// GetTreadmillState returns nil when no treadmill is attached
func (m *UIModel) GetTreadmillState() *treadmill.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.treadmillState == nil {
		return nil
	}
	state := *m.treadmillState
	return &state
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}
	if n > len(m.logLines) {
		n = len(m.logLines)
	}
	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}

func (m *UIModel) listenToSnapshots(ctx context.Context, source SnapshotSource) {
	defer m.wg.Done()

	ch := make(chan engine.Snapshot, 1)
	unregister := source.ListenToSnapshots(ch)
	defer unregister()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.snapshot = snap
			m.mu.Unlock()

			m.snapshotEvent.Notify(snap)
		}
	}
}

func (m *UIModel) listenToTreadmill(ctx context.Context, source TreadmillSource) {
	defer m.wg.Done()

	ch := make(chan treadmill.State, 1)
	unregister := source.ListenToState(ch)
	defer unregister()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			m.mu.Lock()
			m.treadmillState = &state
			m.mu.Unlock()

			m.treadmillEvent.Notify(state)
		}
	}
}
