package aggregate

import (
	"property-analytics/internal/domain"
)

// ProjectMeta carries the group-level attributes of a project, captured on
// first observation.
type ProjectMeta struct {
	District string
	Segment  domain.Segment
	Street   string
}

// Rollup is the single-pass fold state shared by the streaming aggregator
// and the filtered re-aggregator. Observe updates every dimension in one
// call; nothing is retroactively corrected.
type Rollup struct {
	TotalTx     int
	TotalVolume float64
	PSFSum      float64

	ByYear      map[string]*domain.Bucket
	ByQuarter   map[string]*domain.Bucket
	ByDistrict  map[string]*domain.Bucket // nested year + quarter sub-buckets
	BySegment   map[domain.Segment]*domain.Bucket
	ByType      map[string]*domain.Bucket
	ByTenure    map[domain.Tenure]*domain.Bucket
	ByProject   map[string]*domain.Bucket // nested year sub-buckets
	ByFloorBand map[string]*domain.Bucket

	Projects        map[string]ProjectMeta
	DistrictSegment map[string]domain.Segment
}

// NewRollup creates an empty rollup.
func NewRollup() *Rollup {
	return &Rollup{
		ByYear:          make(map[string]*domain.Bucket),
		ByQuarter:       make(map[string]*domain.Bucket),
		ByDistrict:      make(map[string]*domain.Bucket),
		BySegment:       make(map[domain.Segment]*domain.Bucket),
		ByType:          make(map[string]*domain.Bucket),
		ByTenure:        make(map[domain.Tenure]*domain.Bucket),
		ByProject:       make(map[string]*domain.Bucket),
		ByFloorBand:     make(map[string]*domain.Bucket),
		Projects:        make(map[string]ProjectMeta),
		DistrictSegment: make(map[string]domain.Segment),
	}
}

// Observe folds one canonical sale record into every rollup dimension.
func (r *Rollup) Observe(rec *domain.SaleRecord) {
	r.TotalTx++
	r.TotalVolume += rec.Price
	r.PSFSum += rec.PSF

	bucket(r.ByYear, rec.Year).Observe(rec)
	bucket(r.ByQuarter, rec.Quarter).Observe(rec)

	d := bucket(r.ByDistrict, rec.District)
	d.Observe(rec)
	d.ObserveYear(rec)
	d.ObserveQuarter(rec)

	seg := r.BySegment[rec.Segment]
	if seg == nil {
		seg = &domain.Bucket{}
		r.BySegment[rec.Segment] = seg
	}
	seg.Observe(rec)

	bucket(r.ByType, rec.PropertyType).Observe(rec)

	ten := r.ByTenure[rec.Tenure]
	if ten == nil {
		ten = &domain.Bucket{}
		r.ByTenure[rec.Tenure] = ten
	}
	ten.Observe(rec)

	p := bucket(r.ByProject, rec.Project)
	p.Observe(rec)
	p.ObserveYear(rec)

	if rec.FloorBand != "" {
		bucket(r.ByFloorBand, rec.FloorBand).Observe(rec)
	}

	if _, seen := r.Projects[rec.Project]; !seen {
		r.Projects[rec.Project] = ProjectMeta{
			District: rec.District,
			Segment:  rec.Segment,
			Street:   rec.Street,
		}
	}
	if _, seen := r.DistrictSegment[rec.District]; !seen {
		r.DistrictSegment[rec.District] = rec.Segment
	}
}

// DominantSegment returns the segment with the most transactions,
// defaulting to OCR when the rollup is empty.
func (r *Rollup) DominantSegment() domain.Segment {
	best := domain.SegmentOCR
	bestCount := -1
	for _, seg := range domain.Segments {
		if b := r.BySegment[seg]; b != nil && b.Count > bestCount {
			best = seg
			bestCount = b.Count
		}
	}
	return best
}

func bucket(m map[string]*domain.Bucket, key string) *domain.Bucket {
	b := m[key]
	if b == nil {
		b = &domain.Bucket{}
		m[key] = b
	}
	return b
}
