package storage

import (
	"sync"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Useful for tests and
// throwaway sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	plan    *interval.Plan
	records []history.WorkoutRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadPlan() (interval.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.plan == nil {
		return interval.Plan{}, ErrPlanNotFound
	}
	return s.plan.Clone(), nil
}

func (s *MemoryStore) SavePlan(plan interval.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := plan.Clone()
	s.plan = &clone
	return nil
}

func (s *MemoryStore) ResetPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = nil
	return nil
}

func (s *MemoryStore) AddRecord(record history.WorkoutRecord) error {
	if err := checkRecordID(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(record.ID) >= 0 {
		return ErrRecordExists
	}
	s.records = append(s.records, record.Clone())
	history.SortNewestFirst(s.records)
	return nil
}

func (s *MemoryStore) UpdateRecord(record history.WorkoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(record.ID)
	if idx < 0 {
		return ErrRecordNotFound
	}
	s.records[idx] = record.Clone()
	history.SortNewestFirst(s.records)
	return nil
}

func (s *MemoryStore) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return ErrRecordNotFound
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return nil
}

func (s *MemoryStore) GetRecord(id string) (history.WorkoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return history.WorkoutRecord{}, ErrRecordNotFound
	}
	return s.records[idx].Clone(), nil
}

func (s *MemoryStore) ListRecords() ([]history.WorkoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]history.WorkoutRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *MemoryStore) ClearRecords() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// indexOf must be called with mu held
func (s *MemoryStore) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
