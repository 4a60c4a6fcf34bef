package history

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lowaak/interval-split/internal/events"
	"github.com/lowaak/interval-split/internal/go_func_utils"
)

// RecordWriter is the part of a record store the sink needs
type RecordWriter interface {
	AddRecord(record WorkoutRecord) error
}

var (
	ErrSinkFull   = errors.New("record sink queue is full")
	ErrSinkClosed = errors.New("record sink is closed")
)

const defaultSinkQueueSize = 16

// AsyncSink hands finished records to a store on its own goroutine so the
// timer never waits on disk. Write failures are logged and reported to
// failure listeners; they are not retried.
type AsyncSink struct {
	writer       RecordWriter
	logger       *log.Logger
	queue        chan WorkoutRecord
	failureEvent *events.CallbackEvent[error]

	mu           sync.RWMutex
	closed       bool
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewAsyncSink starts the writer goroutine. queueSize <= 0 selects a default.
func NewAsyncSink(writer RecordWriter, logger *log.Logger, queueSize int) *AsyncSink {
	if writer == nil {
		panic("AsyncSink: writer cannot be nil")
	}
	if logger == nil {
		panic("AsyncSink: logger cannot be nil")
	}
	if queueSize <= 0 {
		queueSize = defaultSinkQueueSize
	}

	s := &AsyncSink{
		writer:       writer,
		logger:       logger,
		queue:        make(chan WorkoutRecord, queueSize),
		failureEvent: events.NewCallbackEvent[error](false),
		doneChan:     make(chan struct{}),
	}

	s.wg.Add(1)
	go_func_utils.SafeGo(logger, "AsyncSink", s.run)

	return s
}

// Submit queues a record without blocking
func (s *AsyncSink) Submit(record WorkoutRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.queue <- record.Clone():
		return nil
	default:
		return fmt.Errorf("submit %s: %w", record.ID, ErrSinkFull)
	}
}

// ListenToFailures registers a callback invoked for every failed write
func (s *AsyncSink) ListenToFailures(callback func(error)) func() {
	return s.failureEvent.Listen(callback)
}

// Shutdown stops accepting records, writes whatever is queued and waits
// for the writer goroutine. Safe to call multiple times.
func (s *AsyncSink) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Printf("AsyncSink: Shutting down")
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.doneChan)
		s.wg.Wait()
		s.logger.Printf("AsyncSink: Shutdown complete")
	})
}

func (s *AsyncSink) run() {
	defer s.wg.Done()

	for {
		select {
		case record := <-s.queue:
			s.write(record)
		case <-s.doneChan:
			// drain anything submitted before close
			for {
				select {
				case record := <-s.queue:
					s.write(record)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncSink) write(record WorkoutRecord) {
	if err := s.writer.AddRecord(record); err != nil {
		s.logger.Printf("AsyncSink: Failed to save record %s: %v", record.ID, err)
		s.failureEvent.Notify(fmt.Errorf("save record %s: %w", record.ID, err))
		return
	}
	s.logger.Printf("AsyncSink: Saved record %s (%s, %ds)", record.ID, record.Status, record.TotalDuration)
}
