package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"accord/internal/types"
)

// LedgerArchive is the slice of the ledger repository the archival job uses.
type LedgerArchive interface {
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*types.NotificationRecord, error)
	DeleteIDs(ctx context.Context, ids []string) (int64, error)
}

// LedgerArchivalJob moves aged notification records out of the live queue
// table into zstd-compressed NDJSON segments on disk. Rows past retention
// can no longer influence dedup (daily keys age out in a day, milestone keys
// outlive their matches), so the table is kept lean without losing audit
// history.
//
// Rows are deleted only after their segment write is flushed; a crash
// between batches leaves unread rows for the next run.
type LedgerArchivalJob struct {
	ledger    LedgerArchive
	dir       string
	retention time.Duration
	batch     int
	logger    types.Logger
}

// NewLedgerArchivalJob creates the archival job.
func NewLedgerArchivalJob(ledger LedgerArchive, dir string, retention time.Duration, batch int, logger types.Logger) *LedgerArchivalJob {
	if logger == nil {
		logger = types.NopLogger{}
	}
	if batch <= 0 {
		batch = 500
	}
	return &LedgerArchivalJob{ledger: ledger, dir: dir, retention: retention, batch: batch, logger: logger}
}

func (j *LedgerArchivalJob) Name() string { return "ledger-archival" }

// archiveRow is the serialized form of one archived record. The payload is
// stored in its enveloped form so the kind discriminator survives.
type archiveRow struct {
	ID            string          `json:"id"`
	ProfileID     string          `json:"profile_id"`
	Kind          string          `json:"kind"`
	Title         string          `json:"title"`
	Body          string          `json:"body"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        string          `json:"status"`
	OccurrenceKey string          `json:"occurrence_key"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Run archives one segment's worth of aged rows per invocation.
func (j *LedgerArchivalJob) Run(ctx context.Context, now time.Time) RunReport {
	report := RunReport{Job: j.Name(), Success: true}
	cutoff := now.Add(-j.retention)

	rows, err := j.ledger.ListBefore(ctx, cutoff, j.batch)
	if err != nil {
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}
	if len(rows) == 0 {
		j.logger.Info("no records past retention, nothing to archive")
		return report
	}

	segment := filepath.Join(j.dir, fmt.Sprintf("notifications-%s.ndjson.zst", now.Format("20060102T150405Z")))
	if err := j.writeSegment(segment, rows); err != nil {
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}

	ids := make([]string, len(rows))
	for i, rec := range rows {
		ids[i] = rec.ID
	}
	deleted, err := j.ledger.DeleteIDs(ctx, ids)
	if err != nil {
		// The segment exists but the rows remain; the next run re-archives
		// them into a new segment, which is wasteful but safe.
		return failedRun(j.Name(), 0, 0, 0, 0, err)
	}

	j.logger.Info("ledger segment archived",
		"segment", segment, "rows", len(rows), "deleted", deleted)
	report.TotalQueued = len(rows)
	return report
}

// writeSegment writes the rows as zstd-compressed NDJSON and syncs the file
// before returning.
func (j *LedgerArchivalJob) writeSegment(path string, rows []*types.NotificationRecord) error {
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive segment: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	enc := json.NewEncoder(zw)
	for _, rec := range rows {
		row := archiveRow{
			ID:            rec.ID,
			ProfileID:     rec.ProfileID,
			Kind:          string(rec.Kind),
			Title:         rec.Title,
			Body:          rec.Body,
			Status:        string(rec.Status),
			OccurrenceKey: rec.OccurrenceKey,
			CreatedAt:     rec.CreatedAt,
		}
		if rec.Payload != nil {
			raw, err := types.MarshalPayload(rec.Payload)
			if err != nil {
				zw.Close()
				return fmt.Errorf("encode payload for %s: %w", rec.ID, err)
			}
			row.Payload = raw
		}
		if err := enc.Encode(row); err != nil {
			zw.Close()
			return fmt.Errorf("write archive row: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush zstd stream: %w", err)
	}
	return f.Sync()
}
