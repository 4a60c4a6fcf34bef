package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

var _ Store = (*FileStore)(nil)

const (
	planFileName    = "plan.json"
	recordsFileName = "records.json"
)

// FileStore keeps the plan and the record list as JSON files in a directory
type FileStore struct {
	dir    string
	logger *log.Logger
	mu     sync.Mutex
}

func NewFileStore(dir string, logger *log.Logger) (*FileStore, error) {
	if logger == nil {
		panic("FileStore: logger cannot be nil")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Printf("FileStore: Using %s", dir)
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) LoadPlan() (interval.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var plan interval.Plan
	if err := s.readJSON(planFileName, &plan); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return interval.Plan{}, ErrPlanNotFound
		}
		return interval.Plan{}, err
	}
	return plan, nil
}

func (s *FileStore) SavePlan(plan interval.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(planFileName, plan)
}

func (s *FileStore) ResetPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(planFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove plan: %w", err)
	}
	s.logger.Printf("FileStore: Plan reset")
	return nil
}

func (s *FileStore) AddRecord(record history.WorkoutRecord) error {
	if err := checkRecordID(record); err != nil {
		return err
	}
	return s.updateRecords(func(records []history.WorkoutRecord) ([]history.WorkoutRecord, error) {
		if indexOfRecord(records, record.ID) >= 0 {
			return nil, ErrRecordExists
		}
		return append(records, record), nil
	})
}

func (s *FileStore) UpdateRecord(record history.WorkoutRecord) error {
	return s.updateRecords(func(records []history.WorkoutRecord) ([]history.WorkoutRecord, error) {
		idx := indexOfRecord(records, record.ID)
		if idx < 0 {
			return nil, ErrRecordNotFound
		}
		records[idx] = record
		return records, nil
	})
}

func (s *FileStore) DeleteRecord(id string) error {
	return s.updateRecords(func(records []history.WorkoutRecord) ([]history.WorkoutRecord, error) {
		idx := indexOfRecord(records, id)
		if idx < 0 {
			return nil, ErrRecordNotFound
		}
		return append(records[:idx], records[idx+1:]...), nil
	})
}

func (s *FileStore) GetRecord(id string) (history.WorkoutRecord, error) {
	records, err := s.ListRecords()
	if err != nil {
		return history.WorkoutRecord{}, err
	}
	idx := indexOfRecord(records, id)
	if idx < 0 {
		return history.WorkoutRecord{}, ErrRecordNotFound
	}
	return records[idx], nil
}

func (s *FileStore) ListRecords() ([]history.WorkoutRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRecords()
}

func (s *FileStore) ClearRecords() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeJSON(recordsFileName, []history.WorkoutRecord{}); err != nil {
		return err
	}
	s.logger.Printf("FileStore: Records cleared")
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) updateRecords(fn func([]history.WorkoutRecord) ([]history.WorkoutRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadRecords()
	if err != nil {
		return err
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	history.SortNewestFirst(records)
	return s.writeJSON(recordsFileName, records)
}

// loadRecords must be called with mu held
func (s *FileStore) loadRecords() ([]history.WorkoutRecord, error) {
	records := []history.WorkoutRecord{}
	if err := s.readJSON(recordsFileName, &records); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []history.WorkoutRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) readJSON(name string, v any) error {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// writeJSON replaces the file through a rename so readers never see a
// partial write
func (s *FileStore) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func indexOfRecord(records []history.WorkoutRecord, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
