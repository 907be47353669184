package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"property-analytics/internal/domain"
	"property-analytics/internal/storage/memory"
)

// stubFetcher serves fixed groups and counts invocations; optional gates
// let tests hold a rebuild open while other callers try to join it.
type stubFetcher struct {
	sales    []domain.ProjectSaleGroup
	rentals  []domain.ProjectRentalGroup
	err      error
	calls    atomic.Int64
	started  chan struct{} // closed on first FetchSales entry, if set
	release  chan struct{} // FetchSales blocks on this, if set
	onceOpen sync.Once
}

func (f *stubFetcher) FetchSales(ctx context.Context) ([]domain.ProjectSaleGroup, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.onceOpen.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sales, nil
}

func (f *stubFetcher) FetchRentals(ctx context.Context) ([]domain.ProjectRentalGroup, error) {
	return f.rentals, nil
}

func testGroups() []domain.ProjectSaleGroup {
	return []domain.ProjectSaleGroup{
		{
			Project:       "Alpha",
			Street:        "Alpha Street",
			MarketSegment: "RCR",
			Transactions: []domain.RawSaleTx{
				{ContractDate: "0124", AreaSqm: "50.0", Price: "1000000", FloorRange: "06 to 10", Tenure: "Freehold", District: "09", PropertyType: "Condominium", TypeOfSale: "3"},
				{ContractDate: "0224", AreaSqm: "55.0", Price: "1100000", FloorRange: "11 to 15", Tenure: "Leasehold", District: "09", PropertyType: "Condominium", TypeOfSale: "3"},
			},
		},
		{
			Project:       "Beta",
			Street:        "Beta Road",
			MarketSegment: "CCR",
			Transactions: []domain.RawSaleTx{
				{ContractDate: "0623", AreaSqm: "80.0", Price: "2400000", FloorRange: "01 to 05", Tenure: "Freehold", District: "10", PropertyType: "Condominium", TypeOfSale: "1"},
			},
		},
	}
}

func newTestService(f *stubFetcher) *Service {
	return New(Options{
		Fetcher:   f,
		Snapshots: memory.NewSnapshotStore(),
		NewRand:   func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	})
}

func TestService_NotReadyBeforeFirstRebuild(t *testing.T) {
	s := newTestService(&stubFetcher{})

	if _, err := s.Payload(); err != ErrNotReady {
		t.Fatalf("Payload before rebuild: got %v, want ErrNotReady", err)
	}
	if _, err := s.Filtered(context.Background(), domain.FilterSet{}); err != ErrNotReady {
		t.Fatalf("Filtered before rebuild: got %v, want ErrNotReady", err)
	}
	if _, err := s.ProjectDetail("Alpha"); err != ErrNotReady {
		t.Fatalf("ProjectDetail before rebuild: got %v, want ErrNotReady", err)
	}
}

func TestService_RebuildPublishesSnapshot(t *testing.T) {
	s := newTestService(&stubFetcher{sales: testGroups()})

	snap, err := s.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if snap.Payload.TotalTx != 3 {
		t.Errorf("expected 3 retained transactions, got %d", snap.Payload.TotalTx)
	}

	p, err := s.Payload()
	if err != nil {
		t.Fatalf("Payload after rebuild: %v", err)
	}
	if p != snap.Payload {
		t.Error("Payload should serve the published snapshot")
	}
}

func TestService_SingleInflightRebuild(t *testing.T) {
	f := &stubFetcher{
		sales:   testGroups(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestService(f)

	const joiners = 5
	results := make(chan error, joiners+1)
	go func() {
		_, err := s.Rebuild(context.Background())
		results <- err
	}()
	<-f.started

	for i := 0; i < joiners; i++ {
		go func() {
			_, err := s.Rebuild(context.Background())
			results <- err
		}()
	}
	// Give the joiners time to reach the in-flight call before releasing.
	time.Sleep(50 * time.Millisecond)
	close(f.release)

	for i := 0; i < joiners+1; i++ {
		if err := <-results; err != nil {
			t.Fatalf("rebuild caller %d: %v", i, err)
		}
	}
	if got := f.calls.Load(); got != 1 {
		t.Errorf("expected a single upstream fetch across concurrent callers, got %d", got)
	}
}

func TestService_JoinerRespectsContext(t *testing.T) {
	f := &stubFetcher{
		sales:   testGroups(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestService(f)

	done := make(chan struct{})
	go func() {
		s.Rebuild(context.Background())
		close(done)
	}()
	<-f.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Rebuild(ctx); err != context.Canceled {
		t.Fatalf("cancelled joiner: got %v, want context.Canceled", err)
	}

	close(f.release)
	<-done
}

func TestService_FetchErrorLeavesSnapshotIntact(t *testing.T) {
	f := &stubFetcher{sales: testGroups()}
	s := newTestService(f)

	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}
	before, _ := s.Snapshot()

	f.err = fmt.Errorf("upstream unavailable")
	if _, err := s.Rebuild(context.Background()); err == nil {
		t.Fatal("expected rebuild error")
	}

	after, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot after failed rebuild: %v", err)
	}
	if after != before {
		t.Error("failed rebuild must not replace the published snapshot")
	}
}

func TestService_FilteredServesAndReturnsNilOnNoMatch(t *testing.T) {
	s := newTestService(&stubFetcher{sales: testGroups()})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	p, err := s.Filtered(context.Background(), domain.FilterSet{District: "09"})
	if err != nil {
		t.Fatalf("Filtered: %v", err)
	}
	if p == nil || p.FilteredSalesCount != 2 {
		t.Fatalf("expected 2 district-09 sales, got %+v", p)
	}

	p, err = s.Filtered(context.Background(), domain.FilterSet{District: "28"})
	if err != nil {
		t.Fatalf("Filtered no-match: %v", err)
	}
	if p != nil {
		t.Error("no-match filter should return nil payload")
	}
}

func TestService_ProjectDetail(t *testing.T) {
	s := newTestService(&stubFetcher{sales: testGroups()})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	d, err := s.ProjectDetail("alpha")
	if err != nil {
		t.Fatalf("ProjectDetail: %v", err)
	}
	if d == nil {
		t.Fatal("expected detail for Alpha")
	}
	if d.Project != "Alpha" || d.District != "09" || d.Count != 2 {
		t.Errorf("detail: %+v", d)
	}
	if len(d.Recent) != 2 || d.Recent[0].Date != "2024-02" {
		t.Errorf("recent rows should be newest first: %+v", d.Recent)
	}
	if d.Recent[0].SaleType != "Resale" {
		t.Errorf("recent row should carry the normalized sale type, got %q", d.Recent[0].SaleType)
	}

	missing, err := s.ProjectDetail("Gamma")
	if err != nil {
		t.Fatalf("ProjectDetail missing: %v", err)
	}
	if missing != nil {
		t.Error("unknown project should return nil detail")
	}
}

func TestService_RebuildClearsProjectCache(t *testing.T) {
	f := &stubFetcher{sales: testGroups()}
	s := newTestService(f)
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if _, err := s.ProjectDetail("Alpha"); err != nil {
		t.Fatalf("ProjectDetail: %v", err)
	}
	if len(s.projects.entries) != 1 {
		t.Fatalf("expected cached detail, got %d entries", len(s.projects.entries))
	}

	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if len(s.projects.entries) != 0 {
		t.Error("publish should clear the project-detail cache")
	}
}

func TestProjectCache_FIFOEviction(t *testing.T) {
	c := newProjectCache(3)
	for _, k := range []string{"A", "B", "C"} {
		c.put(k, &ProjectDetail{Project: k})
	}
	// Re-reading A must not refresh its insertion position.
	if _, ok := c.get("A"); !ok {
		t.Fatal("A should be cached")
	}
	c.put("D", &ProjectDetail{Project: "D"})

	if _, ok := c.get("A"); ok {
		t.Error("A was inserted first and should be evicted")
	}
	for _, k := range []string{"B", "C", "D"} {
		if _, ok := c.get(k); !ok {
			t.Errorf("%s should remain cached", k)
		}
	}
}
