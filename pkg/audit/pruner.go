package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"strategos-hq/verdict/pkg/config"
)

// archivePageSize is the page size used to read records before archiving.
const archivePageSize = 1000

// Pruner deletes audit records by age and by count.
type Pruner struct {
	storage Storage
	config  config.RetentionConfig
	logger  *slog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewPruner creates a pruner over storage.
func NewPruner(storage Storage, cfg config.RetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "audit.retention"),
		now:     time.Now,
	}
}

// Prune applies both retention limits and returns the number of deleted records.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("audit pruning completed",
			"deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no audit records pruned")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.Days)
	return p.deleteUpTo(ctx, cutoff, "age")
}

// pruneByCount deletes everything at or before the newest record beyond
// MaxRecords. Records sharing that timestamp are removed together.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	boundary, err := p.storage.Query(ctx, &Query{Offset: int(p.config.MaxRecords), Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("failed to find cutoff record: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}

	p.logger.Info("audit record count exceeds limit",
		"count", count,
		"max_records", p.config.MaxRecords,
	)
	return p.deleteUpTo(ctx, boundary[0].RecordedAt, "count")
}

func (p *Pruner) deleteUpTo(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	q := &Query{EndTime: &cutoff}

	if p.config.ArchivePath != "" {
		if err := p.archive(ctx, q, reason); err != nil {
			return 0, err
		}
	}

	deleted, err := p.storage.Delete(ctx, q)
	if err != nil {
		return 0, err
	}
	p.logger.Debug("pruned audit records", "reason", reason, "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// archive writes the records matched by q to a JSON file in ArchivePath.
func (p *Pruner) archive(ctx context.Context, q *Query, reason string) error {
	var records []*PassRecord
	page := *q
	page.Ascending = true
	page.Limit = archivePageSize
	for {
		batch, err := p.storage.Query(ctx, &page)
		if err != nil {
			return fmt.Errorf("failed to query records for archiving: %w", err)
		}
		records = append(records, batch...)
		if len(batch) < archivePageSize {
			break
		}
		page.Offset += len(batch)
	}
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("audit-%s-%s.json", reason, p.now().UTC().Format("2006-01-02-150405"))
	path := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	if err := NewJSONExporter(false).Export(ctx, records, f); err != nil {
		return fmt.Errorf("failed to archive records: %w", err)
	}

	p.logger.Info("audit records archived", "file", path, "records", len(records))
	return nil
}
