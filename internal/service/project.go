package service

import (
	"fmt"
	"sort"
	"strings"

	"property-analytics/internal/domain"
	"property-analytics/internal/numstats"
	"property-analytics/internal/storage"
)

const (
	projectCacheSize   = 20
	projectRecentLimit = 20
	projectNearbyLimit = 10
)

// ProjectDetail is the drill-down view of one project, derived on demand
// from the current snapshot's retained records.
type ProjectDetail struct {
	Project  string              `json:"project"`
	Street   string              `json:"street"`
	District string              `json:"district"`
	Segment  string              `json:"segment"`
	Count    int                 `json:"count"`
	AvgPSF   float64             `json:"avgPsf"`
	ByYear   []domain.YearPoint  `json:"byYear"`
	Recent   []domain.RecentTx   `json:"recent"`
	Bedrooms map[string]string   `json:"bedrooms"` // area band -> inferred label
	Nearby   []string            `json:"nearby"`   // other projects in the district
}

// ProjectDetail computes (or serves cached) detail for one project. The
// lookup is case-insensitive on the project name. Returns ErrNotFound via
// nil when the project has no retained transactions.
func (s *Service) ProjectDetail(project string) (*ProjectDetail, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return nil, ErrNotReady
	}

	key := strings.ToUpper(strings.TrimSpace(project))
	if d, ok := s.projects.get(key); ok {
		s.countLookup("hit")
		return d, nil
	}

	d := buildProjectDetail(snap, key)
	if d == nil {
		s.countLookup("miss")
		return nil, nil
	}
	s.countLookup("miss")
	s.projects.put(key, d)
	return d, nil
}

func buildProjectDetail(snap *storage.Snapshot, key string) *ProjectDetail {
	var (
		recs   []*domain.SaleRecord
		psfSum float64
		byYear = map[string]*domain.Bucket{}
	)
	for _, r := range snap.Sales {
		if strings.ToUpper(r.Project) != key {
			continue
		}
		recs = append(recs, r)
		psfSum += r.PSF
		b := byYear[r.Year]
		if b == nil {
			b = &domain.Bucket{}
			byYear[r.Year] = b
		}
		b.Observe(r)
	}
	if len(recs) == 0 {
		return nil
	}

	first := recs[0]
	d := &ProjectDetail{
		Project:  first.Project,
		Street:   first.Street,
		District: first.District,
		Segment:  string(first.Segment),
		Count:    len(recs),
		AvgPSF:   numstats.Round2(psfSum / float64(len(recs))),
		Bedrooms: map[string]string{},
	}

	years := make([]string, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Strings(years)
	for _, y := range years {
		b := byYear[y]
		d.ByYear = append(d.ByYear, domain.YearPoint{
			Year: y, AvgPSF: b.AvgPSF(), Count: b.Count, Volume: b.PriceSum,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.After(recs[j].Date)
		}
		return recs[i].ID < recs[j].ID
	})
	for _, r := range recs {
		if len(d.Recent) == projectRecentLimit {
			break
		}
		d.Recent = append(d.Recent, domain.RecentTx{
			Date: r.Date.Format("2006-01"), Project: r.Project,
			District: r.District, Area: r.Area, Price: r.Price,
			PSF: r.PSF, SaleType: string(r.SaleType),
		})
		if snap.Bedrooms != nil {
			band := areaBand(r.Area)
			if _, seen := d.Bedrooms[band]; !seen {
				if label := snap.Bedrooms.Infer(first.Project, r.Area); label != "" {
					d.Bedrooms[band] = label
				}
			}
		}
	}

	for _, p := range snap.ProjectIndex[first.District] {
		if len(d.Nearby) == projectNearbyLimit {
			break
		}
		if strings.ToUpper(p) == key {
			continue
		}
		d.Nearby = append(d.Nearby, p)
	}
	return d
}

// areaBand groups transaction areas into 200 sqft bands for the bedroom
// inference summary.
func areaBand(area int) string {
	lo := area / 200 * 200
	return fmt.Sprintf("%d-%d sqft", lo, lo+200)
}

func (s *Service) countLookup(result string) {
	if s.metrics != nil {
		s.metrics.ProjectLookups.WithLabelValues(result).Inc()
	}
}
