// Package service coordinates the engine for the surrounding system: it
// drives full rebuilds (at most one in flight), publishes immutable
// snapshots, and serves full, filtered and project-detail reads.
package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"property-analytics/internal/aggregate"
	"property-analytics/internal/bedroom"
	"property-analytics/internal/domain"
	"property-analytics/internal/observability"
	"property-analytics/internal/query"
	"property-analytics/internal/storage"
)

// ErrNotReady is returned by read paths before the first rebuild publishes.
var ErrNotReady = errors.New("no snapshot published yet")

// Fetcher supplies raw project groups from the upstream data provider.
type Fetcher interface {
	FetchSales(ctx context.Context) ([]domain.ProjectSaleGroup, error)
	FetchRentals(ctx context.Context) ([]domain.ProjectRentalGroup, error)
}

// PayloadCache caches filtered payloads between rebuilds.
type PayloadCache interface {
	GetFiltered(ctx context.Context, key string) (*domain.FilteredPayload, bool)
	SetFiltered(ctx context.Context, key string, p *domain.FilteredPayload)
	Clear(ctx context.Context)
}

// Options wires the service's collaborators. Records, Rollups, Cache and
// Metrics are optional.
type Options struct {
	Fetcher   Fetcher
	Snapshots storage.SnapshotStore
	Records   storage.RecordStore
	Rollups   storage.RollupExportStore
	Cache     PayloadCache
	Metrics   *observability.Metrics
	Logger    *zap.Logger

	// NewRand seeds the engine's reservoir sampling; defaults to a
	// time-seeded source, tests inject a deterministic one.
	NewRand func() *rand.Rand
}

// Service owns the rebuild lifecycle and all read paths.
type Service struct {
	fetcher   Fetcher
	snapshots storage.SnapshotStore
	records   storage.RecordStore
	rollups   storage.RollupExportStore
	cache     PayloadCache
	metrics   *observability.Metrics
	logger    *zap.Logger
	newRand   func() *rand.Rand

	mu       sync.Mutex
	inflight *rebuildCall

	projects *projectCache
}

// rebuildCall is the shared in-flight rebuild: joiners await done and read
// the same result instead of starting a second rebuild.
type rebuildCall struct {
	done chan struct{}
	snap *storage.Snapshot
	err  error
}

// New creates the service.
func New(opts Options) *Service {
	newRand := opts.NewRand
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:   opts.Fetcher,
		snapshots: opts.Snapshots,
		records:   opts.Records,
		rollups:   opts.Rollups,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logger:    logger,
		newRand:   newRand,
		projects:  newProjectCache(projectCacheSize),
	}
}

// Rebuild runs a full rebuild, or joins the one already in flight. The
// rebuild itself is not cancellable; ctx only bounds how long this caller
// waits for the shared result.
func (s *Service) Rebuild(ctx context.Context) (*storage.Snapshot, error) {
	s.mu.Lock()
	if c := s.inflight; c != nil {
		s.mu.Unlock()
		select {
		case <-c.done:
			return c.snap, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &rebuildCall{done: make(chan struct{})}
	s.inflight = c
	s.mu.Unlock()

	c.snap, c.err = s.rebuild()
	close(c.done)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()

	return c.snap, c.err
}

// rebuild fetches, aggregates, builds and publishes one snapshot.
func (s *Service) rebuild() (*storage.Snapshot, error) {
	// Detached from any caller: an abandoned request must not abort a
	// rebuild other callers joined.
	ctx := context.Background()
	start := time.Now()

	saleGroups, err := s.fetcher.FetchSales(ctx)
	if err != nil {
		s.countRebuild("fetch_error")
		return nil, err
	}
	rentalGroups, err := s.fetcher.FetchRentals(ctx)
	if err != nil {
		s.countRebuild("fetch_error")
		return nil, err
	}

	agg := aggregate.New(s.newRand())
	for _, g := range saleGroups {
		if err := agg.Add(g); err != nil {
			s.countRebuild("error")
			return nil, err
		}
	}
	for _, g := range rentalGroups {
		if err := agg.AddRentals(g); err != nil {
			s.countRebuild("error")
			return nil, err
		}
	}

	res, err := agg.Build()
	if err != nil {
		s.countRebuild("error")
		return nil, err
	}

	snap := &storage.Snapshot{
		BuiltAt:      time.Now().UTC(),
		Payload:      res.Payload,
		Sales:        res.Sales,
		Rentals:      res.Rentals,
		Rents:        res.Rents,
		Bedrooms:     bedroom.Build(res.Rentals),
		ProjectIndex: res.ProjectIndex,
		Dropped:      res.Dropped,
	}

	s.export(ctx, snap)

	// Publish atomically, then invalidate everything derived from the
	// previous snapshot.
	s.snapshots.Publish(snap)
	s.projects.clear()
	if s.cache != nil {
		s.cache.Clear(ctx)
	}

	s.countRebuild("ok")
	if s.metrics != nil {
		s.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
		s.metrics.RecordsDropped.Add(float64(res.Dropped))
		s.metrics.SalesRetained.Set(float64(len(res.Sales)))
		s.metrics.RentalsRetained.Set(float64(len(res.Rentals)))
		s.metrics.LastRebuildUnix.Set(float64(snap.BuiltAt.Unix()))
	}
	s.logger.Info("rebuild published",
		zap.Int("sales", len(res.Sales)),
		zap.Int("rentals", len(res.Rentals)),
		zap.Int("dropped", res.Dropped),
		zap.Duration("took", time.Since(start)),
	)
	return snap, nil
}

// Payload returns the current full dashboard payload.
func (s *Service) Payload() (*domain.DashboardPayload, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap.Payload, nil
}

// Snapshot returns the current snapshot for collaborators that need the
// retained stores (search, project detail, exports).
func (s *Service) Snapshot() (*storage.Snapshot, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}

// Filtered re-aggregates the retained stores under f. Returns (nil, nil)
// when the filter combination matches no sales.
func (s *Service) Filtered(ctx context.Context, f domain.FilterSet) (*domain.FilteredPayload, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, ErrNotReady
	}

	if s.cache != nil {
		if p, ok := s.cache.GetFiltered(ctx, f.Key()); ok {
			s.countQuery("hit")
			return p, nil
		}
	}

	start := time.Now()
	p := query.Filtered(snap.Sales, snap.Rentals, f, s.newRand())
	if s.metrics != nil {
		s.metrics.FilteredQueryDuration.Observe(time.Since(start).Seconds())
	}
	if p == nil {
		s.countQuery("empty")
		return nil, nil
	}
	s.countQuery("miss")
	if s.cache != nil {
		s.cache.SetFiltered(ctx, f.Key(), p)
	}
	return p, nil
}

// export persists records and rollup rows, best-effort: the snapshot still
// publishes when persistence fails.
func (s *Service) export(ctx context.Context, snap *storage.Snapshot) {
	if s.records != nil {
		if err := s.records.ReplaceSales(ctx, snap.BuiltAt, snap.Sales); err != nil {
			s.countExportError("postgres")
			s.logger.Warn("persist sales failed", zap.Error(err))
		}
		if err := s.records.ReplaceRentals(ctx, snap.BuiltAt, snap.Rentals); err != nil {
			s.countExportError("postgres")
			s.logger.Warn("persist rentals failed", zap.Error(err))
		}
	}
	if s.rollups != nil {
		if err := s.rollups.InsertBulk(ctx, rollupRows(snap)); err != nil {
			s.countExportError("clickhouse")
			s.logger.Warn("export rollups failed", zap.Error(err))
		}
	}
}

// rollupRows flattens the payload's series into export rows.
func rollupRows(snap *storage.Snapshot) []*storage.RollupRow {
	p := snap.Payload
	rows := make([]*storage.RollupRow, 0, len(p.YearlyTrend)+len(p.Districts)+len(p.Segments))
	for _, y := range p.YearlyTrend {
		rows = append(rows, &storage.RollupRow{
			BuiltAt: snap.BuiltAt, Dimension: "year", Key: y.Year,
			Count: y.Count, AvgPSF: y.AvgPSF, Volume: y.Volume,
		})
	}
	for _, d := range p.Districts {
		rows = append(rows, &storage.RollupRow{
			BuiltAt: snap.BuiltAt, Dimension: "district", Key: d.Key,
			Count: d.Count, AvgPSF: d.Value,
		})
	}
	for _, seg := range p.Segments {
		rows = append(rows, &storage.RollupRow{
			BuiltAt: snap.BuiltAt, Dimension: "segment", Key: seg.Key,
			Count: seg.Count, AvgPSF: seg.Value,
		})
	}
	return rows
}

func (s *Service) countRebuild(status string) {
	if s.metrics != nil {
		s.metrics.RebuildsTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) countQuery(result string) {
	if s.metrics != nil {
		s.metrics.FilteredQueries.WithLabelValues(result).Inc()
	}
}

func (s *Service) countExportError(store string) {
	if s.metrics != nil {
		s.metrics.ExportErrors.WithLabelValues(store).Inc()
	}
}
