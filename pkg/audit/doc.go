// Package audit records evaluation passes.
//
// A Recorder is registered as an engine.Observer. Each pass becomes a
// PassRecord that a background worker writes to a Storage backend:
//
//	store, err := audit.Open(ctx, cfg.Audit)
//	if err != nil {
//	    return err
//	}
//	rec := audit.NewRecorder(store, &audit.RecorderConfig{
//	    BufferSize:   cfg.Audit.BufferSize,
//	    WriteTimeout: cfg.Audit.WriteTimeout,
//	    Logger:       logger,
//	})
//	defer rec.Close()
//
//	evaluator, err := engine.NewEvaluator(nil, engine.WithObserver(rec))
//
// Recording never blocks a pass. When the buffer is full the record is
// dropped and counted; Close writes whatever is still queued.
//
// # Backends
//
//   - "memory": MemoryStorage, lost on restart
//   - "sqlite": modernc.org/sqlite, pure Go
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//   - "postgres": PostgreSQL through the pgx database/sql driver
//
// The SQL backends share one schema. Times are stored as Unix nanoseconds.
//
// # Retention
//
// Pruner deletes records older than RetentionConfig.Days and keeps at most
// RetentionConfig.MaxRecords, optionally archiving them as JSON first.
// Scheduler runs the pruner on a cron schedule.
package audit
