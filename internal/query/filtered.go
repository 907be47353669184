// Package query implements the on-demand filtered re-aggregation path: it
// re-derives the full dashboard payload shape over a filtered subset of the
// retained canonical records, without re-fetching or re-normalizing source
// data. Everything runs as single-pass accumulation over the filtered
// slices so interactive queries stay fast.
package query

import (
	"math/rand"

	"property-analytics/internal/aggregate"
	"property-analytics/internal/domain"
	"property-analytics/internal/sampling"
)

// Collector capacities mirror the full-build path so both payloads carry
// samples of the same size.
const (
	reservoirCapacity = 2000
	recentCapacity    = 500
)

// minWindowRecords is the qualifying-record threshold for accepting a
// rolling window as the "current" average.
const minWindowRecords = 20

// Filtered re-aggregates the retained stores under the given filter set.
// Returns nil (not an empty payload) when no sale matches: callers present
// that as "no data for this filter combination", distinct from a zero-count
// but otherwise valid payload.
func Filtered(
	sales []*domain.SaleRecord,
	rentals []*domain.RentalRecord,
	f domain.FilterSet,
	rng *rand.Rand,
) *domain.FilteredPayload {
	roll := aggregate.NewRollup()
	reservoir := sampling.NewReservoir(reservoirCapacity, rng)
	recent := sampling.NewTopN(recentCapacity, sampling.MostRecentFirst)

	var matched []*domain.SaleRecord
	for _, r := range sales {
		if !f.MatchesSale(r) {
			continue
		}
		matched = append(matched, r)
		roll.Observe(r)
		reservoir.Add(r)
		recent.Add(r)
	}
	if len(matched) == 0 {
		return nil
	}

	rents := domain.NewRentalAggregate()
	var matchedRentals []*domain.RentalRecord
	for _, r := range rentals {
		if !f.MatchesRental(r) {
			continue
		}
		matchedRentals = append(matchedRentals, r)
		rents.Observe(r)
	}

	payload := aggregate.BuildPayload(roll, reservoir.Items(), recent.Result(), rents, matchedRentals)

	out := &domain.FilteredPayload{
		DashboardPayload:    *payload,
		AppliedFilters:      f,
		FilteredSalesCount:  len(matched),
		FilteredRentalCount: len(matchedRentals),
	}
	out.CurrentAvgPSF, out.CurrentPSFWindow = currentSalePSF(matched)
	out.CurrentAvgRent, out.CurrentRentWindow = currentRent(matchedRentals)
	return out
}
