// Package aggregate implements the streaming aggregation core: a single
// pass over per-project transaction groups that folds millions of raw rows
// into bounded-memory rollups, and the terminal build that derives the
// dashboard payload from them.
package aggregate

import (
	"errors"
	"math/rand"

	"property-analytics/internal/domain"
	"property-analytics/internal/normalization"
	"property-analytics/internal/sampling"
)

// Collector capacities and payload limits.
const (
	reservoirCapacity = 2000
	recentCapacity    = 500

	cmpPoolMinTx     = 5
	cmpPoolLimit     = 30
	topDistrictLimit = 10
	rankingLimit     = 8

	psfBucketWidth  = 200
	rentBucketWidth = 500
)

// ErrAlreadyBuilt is returned when Add or Build is called on an aggregator
// whose Build has already run. Aggregator instances are single-use.
var ErrAlreadyBuilt = errors.New("aggregator already built")

// Aggregator consumes project transaction groups and accumulates rollup
// buckets plus the bounded collectors. Not safe for concurrent use; the
// rebuild coordinator drives exactly one Add/Build sequence per instance.
type Aggregator struct {
	rollup    *Rollup
	reservoir *sampling.Reservoir
	recent    *sampling.TopN

	sales   []*domain.SaleRecord
	rentals []*domain.RentalRecord
	rents   *domain.RentalAggregate

	dropped int
	built   bool
}

// New creates a fresh aggregator. rng seeds the reservoir sample; tests
// inject a deterministic source.
func New(rng *rand.Rand) *Aggregator {
	return &Aggregator{
		rollup:    NewRollup(),
		reservoir: sampling.NewReservoir(reservoirCapacity, rng),
		recent:    sampling.NewTopN(recentCapacity, sampling.MostRecentFirst),
		rents:     domain.NewRentalAggregate(),
	}
}

// Add normalizes one project's sale transactions and folds the accepted
// records into every rollup dimension, the bounded collectors and the
// retained record store. Malformed rows are dropped silently; an unusable
// group (no project name) is skipped without aborting the pass.
func (a *Aggregator) Add(g domain.ProjectSaleGroup) error {
	if a.built {
		return ErrAlreadyBuilt
	}
	if g.Project == "" {
		return nil
	}
	for _, raw := range g.Transactions {
		rec, ok := normalization.SaleTx(g.Project, g.Street, g.MarketSegment, raw)
		if !ok {
			a.dropped++
			continue
		}
		a.rollup.Observe(rec)
		a.reservoir.Add(rec)
		a.recent.Add(rec)
		a.sales = append(a.sales, rec)
	}
	return nil
}

// AddRentals normalizes one project's rental contracts into the rental
// aggregate and the retained rental store.
func (a *Aggregator) AddRentals(g domain.ProjectRentalGroup) error {
	if a.built {
		return ErrAlreadyBuilt
	}
	if g.Project == "" {
		return nil
	}
	for _, raw := range g.Rentals {
		rec, ok := normalization.RentalTx(g.Project, g.Street, g.MarketSegment, raw)
		if !ok {
			a.dropped++
			continue
		}
		a.rents.Observe(rec)
		a.rentals = append(a.rentals, rec)
	}
	return nil
}

// Dropped returns the number of rows rejected at normalization.
func (a *Aggregator) Dropped() int { return a.dropped }

// Result is the terminal output of one aggregation pass: the payload plus
// the retained record stores handed to the snapshot publisher.
type Result struct {
	Payload      *domain.DashboardPayload
	Sales        []*domain.SaleRecord
	Rentals      []*domain.RentalRecord
	Rents        *domain.RentalAggregate
	ProjectIndex map[string][]string // district -> sorted project names
	Dropped      int
}

// Build derives the dashboard payload from the accumulated state. It is the
// terminal operation: the aggregator rejects further calls afterwards, so a
// stale instance cannot corrupt a published payload.
func (a *Aggregator) Build() (*Result, error) {
	if a.built {
		return nil, ErrAlreadyBuilt
	}
	a.built = true

	payload := BuildPayload(a.rollup, a.reservoir.Items(), a.recent.Result(), a.rents, a.rentals)

	return &Result{
		Payload:      payload,
		Sales:        a.sales,
		Rentals:      a.rentals,
		Rents:        a.rents,
		ProjectIndex: buildProjectIndex(a.rollup),
		Dropped:      a.dropped,
	}, nil
}
