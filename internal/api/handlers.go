// Package api provides the REST API for the timer, the plan and the history.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/storage"
)

// Timer is the part of engine.Runner the handlers drive
type Timer interface {
	Snapshot() engine.Snapshot
	Start() (engine.Snapshot, error)
	Pause() (engine.Snapshot, error)
	Toggle() (engine.Snapshot, error)
	Reset() (engine.Snapshot, error)
	Load(plan interval.Plan) (engine.Snapshot, error)
	Plan() (interval.Plan, error)
}

var _ Timer = (*engine.Runner)(nil)

// Handler handles API requests
type Handler struct {
	timer   Timer
	plans   storage.PlanStore
	records storage.RecordStore
	loc     *time.Location
	logger  *log.Logger
}

// NewHandler creates the API handler. A nil loc groups history by UTC day.
func NewHandler(timer Timer, plans storage.PlanStore, records storage.RecordStore, loc *time.Location, logger *log.Logger) *Handler {
	if timer == nil {
		panic("Handler: timer cannot be nil")
	}
	if plans == nil {
		panic("Handler: plans cannot be nil")
	}
	if records == nil {
		panic("Handler: records cannot be nil")
	}
	if logger == nil {
		panic("Handler: logger cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{timer: timer, plans: plans, records: records, loc: loc, logger: logger}
}

// Response is a generic API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlanResponse reports a stored plan and whether the timer picked it up
type PlanResponse struct {
	Plan         interval.Plan `json:"plan"`
	TotalSeconds int           `json:"totalSeconds"`
	Loaded       bool          `json:"loaded"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		},
	})
}

// Timer handlers

// GetTimer handles GET /api/v1/timer
func (h *Handler) GetTimer(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: h.timer.Snapshot()})
}

func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, h.timer.Start)
}

func (h *Handler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, h.timer.Pause)
}

func (h *Handler) ToggleTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, h.timer.Toggle)
}

func (h *Handler) ResetTimer(w http.ResponseWriter, r *http.Request) {
	h.timerCommand(w, h.timer.Reset)
}

func (h *Handler) timerCommand(w http.ResponseWriter, cmd func() (engine.Snapshot, error)) {
	snap, err := cmd()
	if h.HandleError(w, err) {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: snap})
}

// Plan handlers

// GetPlan handles GET /api/v1/plan. It returns the plan the timer runs next.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.timer.Plan()
	if h.HandleError(w, err) {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    PlanResponse{Plan: plan, TotalSeconds: plan.TotalSeconds(), Loaded: true},
	})
}

// PutPlan handles PUT /api/v1/plan. The plan is always saved; it replaces
// the timer's plan only when no run is in progress.
func (h *Handler) PutPlan(w http.ResponseWriter, r *http.Request) {
	var plan interval.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		h.WriteAPIError(w, ErrInvalidJSON)
		return
	}
	if h.HandleError(w, plan.Validate()) {
		return
	}
	if h.HandleStoreError(w, h.plans.SavePlan(plan), "save plan") {
		return
	}
	h.respondPlan(w, plan)
}

// DeletePlan handles DELETE /api/v1/plan by restoring the default plan
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if h.HandleStoreError(w, h.plans.ResetPlan(), "reset plan") {
		return
	}
	h.respondPlan(w, interval.DefaultPlan())
}

func (h *Handler) respondPlan(w http.ResponseWriter, plan interval.Plan) {
	loaded := true
	if _, err := h.timer.Load(plan); err != nil {
		if !errors.Is(err, engine.ErrRunInProgress) {
			h.HandleError(w, err)
			return
		}
		h.logger.Printf("API: Plan saved, timer keeps its plan until reset")
		loaded = false
	}
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    PlanResponse{Plan: plan, TotalSeconds: plan.TotalSeconds(), Loaded: loaded},
	})
}

// Record handlers

// ListRecords handles GET /api/v1/records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecords()
	if h.HandleStoreError(w, err, "list records") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: records})
}

// ClearRecords handles DELETE /api/v1/records
func (h *Handler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	if h.HandleStoreError(w, h.records.ClearRecords(), "clear records") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true})
}

// GetRecord handles GET /api/v1/records/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.GetRecord(chi.URLParam(r, "id"))
	if h.HandleStoreError(w, err, "get record") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: record})
}

// DeleteRecord handles DELETE /api/v1/records/{id}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if h.HandleStoreError(w, h.records.DeleteRecord(chi.URLParam(r, "id")), "delete record") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true})
}

// Stats handlers

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecords()
	if h.HandleStoreError(w, err, "list records") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: history.ComputeStats(records)})
}

// GetDailyStats handles GET /api/v1/stats/daily?date=YYYY-MM-DD. The date
// defaults to today.
func (h *Handler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = history.DayKey(time.Now(), h.loc)
	} else if _, err := time.Parse(history.DateLayout, date); err != nil {
		h.WriteAPIError(w, ErrInvalidDate)
		return
	}

	records, err := h.records.ListRecords()
	if h.HandleStoreError(w, err, "list records") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: history.DailyRecords(records, date, h.loc)})
}

// ListDays handles GET /api/v1/stats/days
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.ListRecords()
	if h.HandleStoreError(w, err, "list records") {
		return
	}
	h.writeJSON(w, http.StatusOK, Response{Success: true, Data: history.AllDailyRecords(records, h.loc)})
}

// WriteAPIError writes an API error response
func (h *Handler) WriteAPIError(w http.ResponseWriter, err *APIError) {
	h.writeJSON(w, err.HTTPStatus, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    err.Code,
			Message: err.Message,
		},
	})
}

// HandleError maps a domain error to an API error and writes the response.
// Returns true if an error was handled, false if err was nil.
func (h *Handler) HandleError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	apiErr := MapDomainError(err)
	if apiErr.Code == ErrCodeInternalError {
		h.logger.Printf("API: Unexpected error: %v", err)
	}
	h.WriteAPIError(w, apiErr)
	return true
}

// HandleStoreError is HandleError for storage calls; unknown failures are
// reported as store errors naming the operation
func (h *Handler) HandleStoreError(w http.ResponseWriter, err error, operation string) bool {
	if err == nil {
		return false
	}
	apiErr := MapDomainError(err)
	if apiErr.Code == ErrCodeInternalError {
		h.logger.Printf("API: Failed to %s: %v", operation, err)
		apiErr = &APIError{
			HTTPStatus: http.StatusInternalServerError,
			Code:       ErrCodeStoreError,
			Message:    "Failed to " + operation,
		}
	}
	h.WriteAPIError(w, apiErr)
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("API: Failed to encode JSON response: %v", err)
	}
}
