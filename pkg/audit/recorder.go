package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"strategos-hq/verdict/pkg/condition/engine"
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// BufferSize is the number of records held while the worker writes.
	// Records arriving at a full buffer are dropped.
	BufferSize int

	// WriteTimeout bounds each storage write.
	WriteTimeout time.Duration

	// Logger receives recorder events. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes evaluation passes to storage in the background. It
// implements engine.Observer and never blocks the pass it observes.
type Recorder struct {
	storage Storage
	config  *RecorderConfig
	logger  *slog.Logger

	records chan *PassRecord
	done    chan struct{}
	wg      sync.WaitGroup

	// mu guards closed against concurrent ObservePass and Close.
	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

var _ engine.Observer = (*Recorder)(nil)

// NewRecorder starts a recorder over storage. A nil config uses
// DefaultRecorderConfig.
func NewRecorder(storage Storage, config *RecorderConfig) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultRecorderConfig().BufferSize
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "audit.recorder"),
		records: make(chan *PassRecord, config.BufferSize),
		done:    make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"buffer_size", config.BufferSize,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// ObservePass converts a pass result into a record and queues it.
func (r *Recorder) ObservePass(ctx context.Context, result *engine.Result, err error) {
	if result == nil {
		return
	}
	if rerr := r.Record(NewPassRecord(result, err)); rerr != nil {
		r.logger.Debug("pass not recorded", "pass_id", result.PassID, "error", rerr)
	}
}

// Record queues a record for writing. It returns ErrClosed after Close and
// ErrBufferFull when the record was dropped.
func (r *Recorder) Record(record *PassRecord) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return ErrClosed
	}

	select {
	case r.records <- record:
		return nil
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit buffer full, dropping record",
			"pass_id", record.PassID,
			"buffer_size", r.config.BufferSize,
		)
		return ErrBufferFull
	}
}

// Close stops accepting records, writes everything already queued and
// waits for the worker to exit.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()

	r.logger.Info("audit recorder shut down",
		"written", r.written.Load(),
		"failed", r.failed.Load(),
		"dropped", r.dropped.Load(),
	)
	return nil
}

// Written returns the number of records stored.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Failed returns the number of records the storage rejected.
func (r *Recorder) Failed() int64 { return r.failed.Load() }

// Dropped returns the number of records discarded on a full buffer or after Close.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.records:
			r.write(record)

		case <-r.done:
			r.logger.Debug("draining audit buffer", "pending", len(r.records))
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *PassRecord) {
	ctx := context.Background()
	if r.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.WriteTimeout)
		defer cancel()
	}

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"pass_id", record.PassID,
			"error", err,
		)
		return
	}
	r.written.Add(1)

	duration := time.Since(start)
	if r.config.WriteTimeout > 0 && duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

// NewPassRecord builds an audit record from a pass result and its error.
func NewPassRecord(result *engine.Result, err error) *PassRecord {
	record := &PassRecord{
		ID:         uuid.New().String(),
		PassID:     result.PassID,
		RuleSet:    result.RuleSet,
		Version:    result.Version,
		Roots:      make([]RootOutcome, 0, len(result.Roots)),
		NodeCount:  result.NodeCount,
		Evaluated:  result.Evaluated,
		Seeded:     result.Seeded,
		StartTime:  result.StartTime,
		Duration:   result.Duration,
		RecordedAt: time.Now(),
	}
	for _, root := range result.Roots {
		record.Roots = append(record.Roots, RootOutcome{Key: root.Key, Satisfied: root.Satisfied})
	}
	if err != nil {
		record.Error = err.Error()
	}
	return record
}
