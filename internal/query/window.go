package query

import (
	"time"

	"property-analytics/internal/domain"
	"property-analytics/internal/numstats"
)

// rollingWindows are tried narrowest first; the first one holding at least
// minWindowRecords qualifying records wins. This avoids reporting a
// "current average" computed from a statistically thin recent window.
var rollingWindows = []int{3, 6, 12}

// currentSalePSF derives the current average PSF for a filtered sale set.
// Falls back to the latest full year, then to the whole set. The returned
// window is 0 for either fallback.
func currentSalePSF(sales []*domain.SaleRecord) (float64, int) {
	if len(sales) == 0 {
		return 0, 0
	}

	anchor := sales[0].Date
	for _, r := range sales[1:] {
		if r.Date.After(anchor) {
			anchor = r.Date
		}
	}

	for _, months := range rollingWindows {
		cutoff := anchor.AddDate(0, -(months - 1), 0)
		sum, count := 0.0, 0
		for _, r := range sales {
			if !r.Date.Before(cutoff) {
				sum += r.PSF
				count++
			}
		}
		if count >= minWindowRecords {
			return numstats.Round2(sum / float64(count)), months
		}
	}

	// Latest full year of data.
	latestYear := yearOf(anchor)
	sum, count := 0.0, 0
	for _, r := range sales {
		if r.Year == latestYear {
			sum += r.PSF
			count++
		}
	}
	if count > 0 {
		return numstats.Round2(sum / float64(count)), 0
	}

	// Whole filtered set.
	sum = 0
	for _, r := range sales {
		sum += r.PSF
	}
	return numstats.Round2(sum / float64(len(sales))), 0
}

// currentRent mirrors currentSalePSF for rental records, with averages
// weighted by contract counts.
func currentRent(rentals []*domain.RentalRecord) (float64, int) {
	if len(rentals) == 0 {
		return 0, 0
	}

	anchor := rentals[0].Date
	for _, r := range rentals[1:] {
		if r.Date.After(anchor) {
			anchor = r.Date
		}
	}

	for _, months := range rollingWindows {
		cutoff := anchor.AddDate(0, -(months - 1), 0)
		if avg, count := weightedRent(rentals, func(r *domain.RentalRecord) bool {
			return !r.Date.Before(cutoff)
		}); count >= minWindowRecords {
			return avg, months
		}
	}

	latestYear := yearOf(anchor)
	if avg, count := weightedRent(rentals, func(r *domain.RentalRecord) bool {
		return r.Year == latestYear
	}); count > 0 {
		return avg, 0
	}

	avg, _ := weightedRent(rentals, func(*domain.RentalRecord) bool { return true })
	return avg, 0
}

func weightedRent(rentals []*domain.RentalRecord, keep func(*domain.RentalRecord) bool) (float64, int) {
	sum, weight, count := 0.0, 0.0, 0
	for _, r := range rentals {
		if !keep(r) {
			continue
		}
		w := float64(r.Contracts)
		if w <= 0 {
			w = 1
		}
		sum += r.Rent * w
		weight += w
		count++
	}
	if weight == 0 {
		return 0, 0
	}
	return numstats.Round2(sum / weight), count
}

func yearOf(t time.Time) string {
	return t.Format("2006")
}
