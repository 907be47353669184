// Package bedroom infers plausible bedroom counts for a floor area from
// the area ranges observed in rental contracts. The model is built once
// after rental ingestion and is read-only afterwards, so Infer is safe to
// call concurrently from every read path.
package bedroom

import (
	"sort"
	"strconv"
	"strings"

	"property-analytics/internal/domain"
)

// Observation thresholds for a usable scope.
const (
	minObservations   = 3 // per bedroom label
	minDistinctLabels = 2 // per scope
)

// Range is the learned area range for one bedroom count within a scope.
type Range struct {
	Bedrooms   string
	MinArea    int
	MaxArea    int
	MedianArea int
	Samples    int
}

// Model holds per-project and market-wide bedroom ranges.
type Model struct {
	market    []Range
	byProject map[string][]Range
}

// Build derives the model from rental records. Only numeric bedroom labels
// with positive areas count; a bedroom group needs at least 3 observations
// and a scope at least 2 distinct groups, otherwise the scope is unusable
// and lookups fall back to the broader one.
func Build(rentals []*domain.RentalRecord) *Model {
	marketAreas := make(map[string][]int)
	projectAreas := make(map[string]map[string][]int)

	for _, r := range rentals {
		if r.Area <= 0 || !isNumericLabel(r.Bedrooms) {
			continue
		}
		marketAreas[r.Bedrooms] = append(marketAreas[r.Bedrooms], r.Area)
		pa := projectAreas[r.Project]
		if pa == nil {
			pa = make(map[string][]int)
			projectAreas[r.Project] = pa
		}
		pa[r.Bedrooms] = append(pa[r.Bedrooms], r.Area)
	}

	m := &Model{
		market:    buildScope(marketAreas),
		byProject: make(map[string][]Range),
	}
	for project, areas := range projectAreas {
		if ranges := buildScope(areas); ranges != nil {
			m.byProject[project] = ranges
		}
	}
	return m
}

// buildScope turns label->areas groups into a median-sorted range list,
// or nil when the scope has too little data to be usable.
func buildScope(areasByLabel map[string][]int) []Range {
	ranges := make([]Range, 0, len(areasByLabel))
	for label, areas := range areasByLabel {
		if len(areas) < minObservations {
			continue
		}
		sort.Ints(areas)
		ranges = append(ranges, Range{
			Bedrooms:   label,
			MinArea:    areas[0],
			MaxArea:    areas[len(areas)-1],
			MedianArea: areas[len(areas)/2],
			Samples:    len(areas),
		})
	}
	if len(ranges) < minDistinctLabels {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].MedianArea < ranges[j].MedianArea
	})
	return ranges
}

// Infer classifies an area into one or more plausible bedroom counts.
// Project-specific ranges are preferred, falling back to market-wide.
// A single containment match returns its label; overlapping matches are
// surfaced joined by "/" rather than resolved; no match falls back to the
// nearest-median label. Returns "" when no scope is usable.
func (m *Model) Infer(project string, area int) string {
	ranges := m.byProject[project]
	if ranges == nil {
		ranges = m.market
	}
	if len(ranges) == 0 || area <= 0 {
		return ""
	}

	var matches []string
	for _, r := range ranges {
		if area >= r.MinArea && area <= r.MaxArea {
			matches = append(matches, r.Bedrooms)
		}
	}
	if len(matches) > 0 {
		sort.Slice(matches, func(i, j int) bool {
			a, _ := strconv.Atoi(matches[i])
			b, _ := strconv.Atoi(matches[j])
			return a < b
		})
		return strings.Join(matches, "/")
	}

	// Nearest-neighbor fallback on median area.
	best := ranges[0]
	bestDist := absInt(area - best.MedianArea)
	for _, r := range ranges[1:] {
		if d := absInt(area - r.MedianArea); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best.Bedrooms
}

// MarketRanges returns the market-wide range list, nil when unusable.
func (m *Model) MarketRanges() []Range { return m.market }

// ProjectRanges returns the project scope, nil when the project has no
// usable ranges of its own.
func (m *Model) ProjectRanges(project string) []Range { return m.byProject[project] }

func isNumericLabel(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
