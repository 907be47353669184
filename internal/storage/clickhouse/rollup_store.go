package clickhouse

import (
	"context"
	"fmt"

	"property-analytics/internal/storage"
)

// RollupStore implements storage.RollupExportStore using ClickHouse.
// Rows are append-only; each rebuild writes a new built_at generation so
// offline queries can track rollup history over time.
type RollupStore struct {
	conn *Conn
}

// NewRollupStore creates a new RollupStore.
func NewRollupStore(conn *Conn) *RollupStore {
	return &RollupStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RollupExportStore = (*RollupStore)(nil)

// InsertBulk appends rollup rows in one batch.
func (s *RollupStore) InsertBulk(ctx context.Context, rows []*storage.RollupRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO rollup_exports (built_at, dimension, key, count, avg_psf, volume)
	`)
	if err != nil {
		return fmt.Errorf("prepare rollup batch: %w", err)
	}

	for _, r := range rows {
		if r.Dimension == "" || r.Key == "" {
			return storage.ErrInvalidInput
		}
		if err := batch.Append(r.BuiltAt, r.Dimension, r.Key, uint32(r.Count), r.AvgPSF, r.Volume); err != nil {
			return fmt.Errorf("append rollup row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send rollup batch: %w", err)
	}
	return nil
}
