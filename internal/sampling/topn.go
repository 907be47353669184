package sampling

import (
	"sort"

	"property-analytics/internal/domain"
)

// TopN maintains the capacity smallest records under a comparator without
// re-sorting the full stream: once full, a new record only displaces the
// current worst when it compares better.
type TopN struct {
	capacity int
	less     func(a, b *domain.SaleRecord) bool
	items    []*domain.SaleRecord
}

// NewTopN creates a TopN keeping the capacity smallest records under less.
func NewTopN(capacity int, less func(a, b *domain.SaleRecord) bool) *TopN {
	return &TopN{
		capacity: capacity,
		less:     less,
		items:    make([]*domain.SaleRecord, 0, capacity),
	}
}

// Add offers one record.
func (t *TopN) Add(rec *domain.SaleRecord) {
	if len(t.items) < t.capacity {
		t.items = append(t.items, rec)
		t.sortItems()
		return
	}
	worst := t.items[len(t.items)-1]
	if t.less(rec, worst) {
		t.items[len(t.items)-1] = rec
		t.sortItems()
	}
}

// Result returns the retained records, fully sorted by the comparator.
func (t *TopN) Result() []*domain.SaleRecord {
	out := make([]*domain.SaleRecord, len(t.items))
	copy(out, t.items)
	return out
}

func (t *TopN) sortItems() {
	sort.Slice(t.items, func(i, j int) bool {
		return t.less(t.items[i], t.items[j])
	})
}

// MostRecentFirst orders records newest date first, breaking ties by ID so
// the order is deterministic.
func MostRecentFirst(a, b *domain.SaleRecord) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID < b.ID
}
