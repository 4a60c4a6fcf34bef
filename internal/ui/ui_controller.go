package ui

import (
	"log"
	"time"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

// Timer is the part of the runner the screen drives
type Timer interface {
	Toggle() (engine.Snapshot, error)
	Reset() (engine.Snapshot, error)
	Plan() (interval.Plan, error)
}

// RecordSource lists stored workout records
type RecordSource interface {
	ListRecords() ([]history.WorkoutRecord, error)
}

var _ Timer = (*engine.Runner)(nil)

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model   *UIModel
	timer   Timer
	records RecordSource
	loc     *time.Location
	logger  *log.Logger
}

// NewUIController creates a new UIController. A nil loc groups history by
// UTC days.
func NewUIController(model *UIModel, timer Timer, records RecordSource, loc *time.Location, logger *log.Logger) *UIController {
	if model == nil {
		panic("UIController: model cannot be nil")
	}
	if timer == nil {
		panic("UIController: timer cannot be nil")
	}
	if records == nil {
		panic("UIController: records cannot be nil")
	}
	if logger == nil {
		panic("UIController: logger cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	c := &UIController{
		model:   model,
		timer:   timer,
		records: records,
		loc:     loc,
		logger:  logger,
	}
	c.RefreshPlan()
	return c
}

// ToggleTimer starts, pauses or resumes the run
func (c *UIController) ToggleTimer() {
	snap, err := c.timer.Toggle()
	if err != nil {
		c.logger.Printf("UI: Toggle failed: %v", err)
		return
	}
	if snap.Status == engine.StatusCompleted {
		c.logger.Printf("UI: Workout finished - press r to reset")
	}
}

// ResetTimer abandons the run and returns to the first block
func (c *UIController) ResetTimer() {
	if _, err := c.timer.Reset(); err != nil {
		c.logger.Printf("UI: Reset failed: %v", err)
		return
	}
	// a reset or a finished run may have added a record
	if c.model.GetUIState().Mode == UIModeHistory {
		c.RefreshHistory()
	}
}

// OnEscapeKey handles when the Escape key is pressed
func (c *UIController) OnEscapeKey() {
	c.model.RequestCloseApplication()
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("UI: Switching to %s mode", info.DisplayName)
	}
	switch mode {
	case UIModePlan:
		c.RefreshPlan()
	case UIModeHistory:
		c.RefreshHistory()
	}
	c.model.SetMode(mode)
}

// RefreshPlan copies the runner's plan into the model
func (c *UIController) RefreshPlan() {
	plan, err := c.timer.Plan()
	if err != nil {
		c.logger.Printf("UI: Failed to read plan: %v", err)
		return
	}
	c.model.SetPlan(plan)
}

// RefreshHistory recomputes the totals and the most recent days
func (c *UIController) RefreshHistory() {
	records, err := c.records.ListRecords()
	if err != nil {
		c.logger.Printf("UI: Failed to list records: %v", err)
		return
	}
	days := history.AllDailyRecords(records, c.loc)
	if len(days) > historyDays {
		days = days[:historyDays]
	}
	c.model.SetHistory(HistoryState{
		Stats: history.ComputeStats(records),
		Days:  days,
	})
}

// Location is the zone history days are grouped in
func (c *UIController) Location() *time.Location {
	return c.loc
}
