// Package sampling provides the bounded collectors used to cap aggregator
// memory regardless of input size: a uniform reservoir sample and a
// fixed-capacity top-N structure.
package sampling

import (
	"math/rand"

	"property-analytics/internal/domain"
)

// Reservoir maintains a fixed-capacity uniform random sample over a stream
// of unknown length. After n >= capacity calls to Add, every item seen has
// probability capacity/n of being present.
type Reservoir struct {
	capacity int
	seen     int
	items    []*domain.SaleRecord
	rng      *rand.Rand
}

// NewReservoir creates a reservoir with the given capacity. rng must not be
// nil; tests inject a seeded source to make the uniformity property
// checkable without flakiness.
func NewReservoir(capacity int, rng *rand.Rand) *Reservoir {
	return &Reservoir{
		capacity: capacity,
		items:    make([]*domain.SaleRecord, 0, capacity),
		rng:      rng,
	}
}

// Add offers one record to the sample. The seen count increments on every
// call whether or not the record is kept.
func (r *Reservoir) Add(rec *domain.SaleRecord) {
	if len(r.items) < r.capacity {
		r.items = append(r.items, rec)
		r.seen++
		return
	}
	j := r.rng.Intn(r.seen + 1)
	if j < r.capacity {
		r.items[j] = rec
	}
	r.seen++
}

// Seen returns the total number of records offered.
func (r *Reservoir) Seen() int { return r.seen }

// Items returns the current sample. The slice is owned by the reservoir;
// callers must not mutate it.
func (r *Reservoir) Items() []*domain.SaleRecord { return r.items }
