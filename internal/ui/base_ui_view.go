package ui

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/go_func_utils"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/treadmill"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)
	args.UIViewImpl.SetMode(args.UIModel.GetUIState().Mode)

	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, "BaseUIViewLogResize", base.monitorLogResize)
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// forward runs handle for every value the model publishes until the view
// shuts down, redrawing after each one
func forward[T any](base *BaseUIView, name string, listen func(chan<- T) func(), handle func(T)) {
	ch := make(chan T, 1)
	unregister := listen(ch)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, name, func() {
		defer base.waitGroup.Done()
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case value, ok := <-ch:
				if !ok {
					return
				}
				handle(value)
				base.draw()
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	view := base.uiViewImpl

	forward(base, "BaseUIViewLog", base.uiModel.ListenToLog, func(string) {
		base.updateLogDisplay()
	})

	forward(base, "BaseUIViewUIState", base.uiModel.ListenToUIState, func(state UIState) {
		view.SetMode(state.Mode)
	})

	forward(base, "BaseUIViewSnapshot", base.uiModel.ListenToSnapshot, func(snap engine.Snapshot) {
		view.UpdateTimer(NewTimerDisplay(snap))
	})

	forward(base, "BaseUIViewPlan", base.uiModel.ListenToPlan, func(plan interval.Plan) {
		view.SetPlanLines(PlanLines(plan))
	})

	forward(base, "BaseUIViewHistory", base.uiModel.ListenToHistory, func(state HistoryState) {
		view.SetHistoryLines(HistoryLines(state.Stats, state.Days, base.uiController.Location()))
	})

	forward(base, "BaseUIViewTreadmill", base.uiModel.ListenToTreadmill, func(state treadmill.State) {
		view.UpdateTreadmill(TreadmillLine(&state))
	})

	// Close stops the framework once and ends the listener
	closeChan := make(chan struct{}, 1)
	closeUnregister := base.uiModel.ListenToCloseApplication(closeChan)
	base.waitGroup.Add(1)
	go_func_utils.SafeGo(base.logger, "BaseUIViewClose", func() {
		defer base.waitGroup.Done()
		defer closeUnregister()
		select {
		case <-base.context.Done():
		case <-closeChan:
			view.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	defer base.waitGroup.Done()
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
