// Package storage persists the interval plan and workout history.
package storage

import (
	"errors"
	"fmt"
	"log"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrRecordNotFound  = errors.New("record not found")
	ErrRecordExists    = errors.New("record already exists")
	ErrUnknownBackend  = errors.New("unknown storage backend")
	ErrMissingRecordID = errors.New("record id is required")
)

// PlanStore persists the user's plan
type PlanStore interface {
	// LoadPlan returns the saved plan, or ErrPlanNotFound when none was saved.
	LoadPlan() (interval.Plan, error)
	SavePlan(plan interval.Plan) error
	// ResetPlan forgets the saved plan. Loading afterwards yields ErrPlanNotFound.
	ResetPlan() error
}

// RecordStore persists finished workout records
type RecordStore interface {
	// AddRecord stores a new record. Returns ErrRecordExists if the id is taken.
	AddRecord(record history.WorkoutRecord) error
	// UpdateRecord replaces a record. Returns ErrRecordNotFound if missing.
	UpdateRecord(record history.WorkoutRecord) error
	DeleteRecord(id string) error
	GetRecord(id string) (history.WorkoutRecord, error)
	// ListRecords returns every record, newest start time first.
	ListRecords() ([]history.WorkoutRecord, error)
	ClearRecords() error
}

// Store is a plan store and record store sharing one backend
type Store interface {
	PlanStore
	RecordStore
	Close() error
}

const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names
var Backends = []string{BackendFile, BackendBadger, BackendMemory}

// Open creates the store for backend rooted at dir
func Open(backend, dir string, logger *log.Logger) (Store, error) {
	if logger == nil {
		panic("storage: logger cannot be nil")
	}
	switch backend {
	case BackendFile:
		return NewFileStore(dir, logger)
	case BackendBadger:
		return NewBadgerStore(dir, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// LoadPlanOrDefault returns the saved plan, falling back to the default plan
// when nothing has been saved
func LoadPlanOrDefault(store PlanStore) (interval.Plan, error) {
	plan, err := store.LoadPlan()
	if errors.Is(err, ErrPlanNotFound) {
		return interval.DefaultPlan(), nil
	}
	if err != nil {
		return interval.Plan{}, err
	}
	return plan, nil
}

func checkRecordID(record history.WorkoutRecord) error {
	if record.ID == "" {
		return ErrMissingRecordID
	}
	return nil
}
