// Package trace records one append-only record per answered question.
// Recording is best effort and never blocks or fails the answer.
package trace

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/siherrmann/threadrag/model"
)

// DefaultBuffer is the number of records queued before new ones are dropped
const DefaultBuffer = 64

// Sink persists trace records
type Sink interface {
	Write(ctx context.Context, record *model.TraceRecord) error
}

// Recorder hands records to a sink on a background goroutine
type Recorder struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	records chan *model.TraceRecord
	done    chan struct{}
}

// NewRecorder starts a recorder writing to sink. buffer <= 0 uses DefaultBuffer.
func NewRecorder(sink Sink, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		timeout: 5 * time.Second,
		records: make(chan *model.TraceRecord, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues a record without blocking. It returns false when the record
// was dropped because the queue is full or the recorder is closed.
func (r *Recorder) Record(record *model.TraceRecord) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}

	select {
	case r.records <- record:
		return true
	default:
		r.logger.Warn("Trace queue full, dropping record", slog.String("trace_id", record.TraceID))
		return false
	}
}

// Close stops accepting records, writes the queued ones and closes the
// sink if it is an io.Closer
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return nil
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()

	<-r.done
	if closer, ok := r.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (r *Recorder) run() {
	defer close(r.done)
	for record := range r.records {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.sink.Write(ctx, record); err != nil {
			r.logger.Warn("Failed to write trace record", slog.String("trace_id", record.TraceID), slog.String("error", err.Error()))
		}
		cancel()
	}
}
