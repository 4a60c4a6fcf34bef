package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
)

var _ Store = (*BadgerStore)(nil)

// Key layout. Records are keyed by start time so a reverse prefix scan
// yields newest first; the index maps a record id to its primary key.
const (
	keyPlan           = "plan/current"
	prefixRecords     = "records/"
	prefixRecordIndex = "recordidx/"
)

const badgerGCInterval = 5 * time.Minute

// BadgerStore keeps the plan and history in an embedded BadgerDB
type BadgerStore struct {
	db     *badger.DB
	logger *log.Logger
	mu     sync.RWMutex
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewBadgerStore(dataDir string, logger *log.Logger) (*BadgerStore, error) {
	if logger == nil {
		panic("BadgerStore: logger cannot be nil")
	}
	dbPath := filepath.Join(dataDir, "interval-split.db")

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = true
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Printf("BadgerStore: Opened %s", dbPath)

	s := &BadgerStore{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runGC()

	return s, nil
}

// Close stops garbage collection and closes the database
func (s *BadgerStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *BadgerStore) runGC() {
	defer s.wg.Done()
	ticker := time.NewTicker(badgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Plan

func (s *BadgerStore) LoadPlan() (interval.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var plan interval.Plan
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPlan))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPlanNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &plan)
		})
	})
	if err != nil {
		return interval.Plan{}, err
	}
	return plan, nil
}

func (s *BadgerStore) SavePlan(plan interval.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPlan), data)
	})
}

func (s *BadgerStore) ResetPlan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPlan))
	})
}

// Records

func (s *BadgerStore) AddRecord(record history.WorkoutRecord) error {
	if err := checkRecordID(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(recordIndexKey(record.ID))
		if err == nil {
			return ErrRecordExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putRecord(txn, record)
	})
}

func (s *BadgerStore) UpdateRecord(record history.WorkoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		oldKey, err := lookupRecordKey(txn, record.ID)
		if err != nil {
			return err
		}
		if err := txn.Delete(oldKey); err != nil {
			return err
		}
		return putRecord(txn, record)
	})
}

func (s *BadgerStore) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		key, err := lookupRecordKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(recordIndexKey(id))
	})
}

func (s *BadgerStore) GetRecord(id string) (history.WorkoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var record history.WorkoutRecord
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := lookupRecordKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return history.WorkoutRecord{}, err
	}
	return record, nil
}

func (s *BadgerStore) ListRecords() ([]history.WorkoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []history.WorkoutRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRecords)

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true // Newest first
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(prefixRecords), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record history.WorkoutRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

func (s *BadgerStore) ClearRecords() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		var keysToDelete [][]byte
		for _, prefix := range []string{prefixRecords, prefixRecordIndex} {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = []byte(prefix)

			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
			}
			it.Close()
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func putRecord(txn *badger.Txn, record history.WorkoutRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key := recordKey(record)
	if err := txn.Set(key, data); err != nil {
		return err
	}
	return txn.Set(recordIndexKey(record.ID), key)
}

func lookupRecordKey(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(recordIndexKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func recordKey(record history.WorkoutRecord) []byte {
	var nanos int64
	if !record.StartTime.IsZero() {
		nanos = record.StartTime.UnixNano()
	}
	if nanos < 0 {
		nanos = 0
	}
	return []byte(fmt.Sprintf("%s%020d/%s", prefixRecords, nanos, record.ID))
}

func recordIndexKey(id string) []byte {
	return []byte(prefixRecordIndex + id)
}

// badgerLogger forwards badger warnings and errors to the application log
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Printf("BadgerStore: ERROR "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Printf("BadgerStore: WARN "+format, args...)
}

func (l *badgerLogger) Infof(string, ...interface{})  {}
func (l *badgerLogger) Debugf(string, ...interface{}) {}
