package storage

import (
	"context"
	"time"

	"property-analytics/internal/bedroom"
	"property-analytics/internal/domain"
)

// Snapshot is one published rebuild result: the dashboard payload plus the
// retained record stores, bedroom model and project index that the
// filtered-query, search and project-detail paths read from. A snapshot is
// immutable once published.
type Snapshot struct {
	BuiltAt time.Time

	Payload *domain.DashboardPayload

	Sales   []*domain.SaleRecord
	Rentals []*domain.RentalRecord
	Rents   *domain.RentalAggregate

	Bedrooms     *bedroom.Model
	ProjectIndex map[string][]string // district -> sorted project names

	Dropped int
}

// SnapshotStore publishes and serves the current snapshot. Publish must be
// atomic with respect to Current so concurrent readers never observe a
// half-rebuilt store.
type SnapshotStore interface {
	// Current returns the latest published snapshot, nil before the first
	// rebuild completes.
	Current() *Snapshot

	// Publish replaces the current snapshot in one step.
	Publish(s *Snapshot)
}

// RecordStore persists the normalized records of a rebuild cycle.
type RecordStore interface {
	// ReplaceSales atomically replaces the persisted sale records for a
	// rebuild, tagged with its build time.
	ReplaceSales(ctx context.Context, builtAt time.Time, records []*domain.SaleRecord) error

	// ReplaceRentals does the same for rental records.
	ReplaceRentals(ctx context.Context, builtAt time.Time, records []*domain.RentalRecord) error

	// CountSales returns the number of persisted sale records.
	CountSales(ctx context.Context) (int, error)

	// GetSalesByDistrict retrieves persisted sales for one district,
	// ordered by date ASC.
	GetSalesByDistrict(ctx context.Context, district string) ([]*domain.SaleRecord, error)
}

// RollupRow is one exported rollup observation for offline analytics.
type RollupRow struct {
	BuiltAt   time.Time
	Dimension string // "year" | "quarter" | "district" | "segment"
	Key       string
	Count     int
	AvgPSF    float64
	Volume    float64
}

// RollupExportStore appends rollup rows per rebuild.
type RollupExportStore interface {
	InsertBulk(ctx context.Context, rows []*RollupRow) error
}
