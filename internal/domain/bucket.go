package domain

import "math"

// Bucket is a rollup accumulator for one dimension value.
// Buckets are mutated in place during a single aggregation pass and are
// rebuilt from scratch on every full rebuild, never retroactively corrected.
type Bucket struct {
	Count    int
	PSFSum   float64
	PriceSum float64
	AreaSum  float64

	// Nested sub-buckets, allocated lazily by the aggregator for the
	// dimensions that need a year or quarter breakdown.
	ByYear    map[string]*Bucket
	ByQuarter map[string]*Bucket
}

// Observe folds one sale record into the bucket.
func (b *Bucket) Observe(r *SaleRecord) {
	b.Count++
	b.PSFSum += r.PSF
	b.PriceSum += r.Price
	b.AreaSum += float64(r.Area)
}

// ObserveYear folds the record into the nested per-year sub-bucket.
func (b *Bucket) ObserveYear(r *SaleRecord) {
	if b.ByYear == nil {
		b.ByYear = make(map[string]*Bucket)
	}
	sub := b.ByYear[r.Year]
	if sub == nil {
		sub = &Bucket{}
		b.ByYear[r.Year] = sub
	}
	sub.Observe(r)
}

// ObserveQuarter folds the record into the nested per-quarter sub-bucket.
func (b *Bucket) ObserveQuarter(r *SaleRecord) {
	if b.ByQuarter == nil {
		b.ByQuarter = make(map[string]*Bucket)
	}
	sub := b.ByQuarter[r.Quarter]
	if sub == nil {
		sub = &Bucket{}
		b.ByQuarter[r.Quarter] = sub
	}
	sub.Observe(r)
}

// AvgPSF returns the running average PSF, 0 for an empty bucket.
func (b *Bucket) AvgPSF() float64 {
	if b.Count == 0 {
		return 0
	}
	return math.Round(b.PSFSum/float64(b.Count)*100) / 100
}

// AvgArea returns the running average area in sqft, 0 for an empty bucket.
func (b *Bucket) AvgArea() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.AreaSum / float64(b.Count)
}

// RentStat accumulates real rental observations for one dimension value.
type RentStat struct {
	RentSum    float64
	RentPSFSum float64
	AreaSum    float64
	Count      int
}

// Observe folds one rental record into the stat. Contract counts weight
// the averages since one row can aggregate several contracts upstream.
func (s *RentStat) Observe(r *RentalRecord) {
	w := float64(r.Contracts)
	if w <= 0 {
		w = 1
	}
	s.RentSum += r.Rent * w
	s.RentPSFSum += r.RentPSF * w
	s.AreaSum += float64(r.Area) * w
	s.Count += int(w)
}

// AvgRent returns the weighted average monthly rent, 0 when empty.
func (s *RentStat) AvgRent() float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Round(s.RentSum/float64(s.Count)*100) / 100
}

// AvgRentPSF returns the weighted average rent per square foot.
func (s *RentStat) AvgRentPSF() float64 {
	if s.Count == 0 {
		return 0
	}
	return math.Round(s.RentPSFSum/float64(s.Count)*100) / 100
}

// RentalAggregate holds real rental rollups keyed by the dimensions the
// dashboard build consults: quarter, year, district and segment.
type RentalAggregate struct {
	ByQuarter  map[string]*RentStat
	ByYear     map[string]*RentStat
	ByDistrict map[string]*RentStat
	BySegment  map[Segment]*RentStat

	TotalContracts int
}

// NewRentalAggregate creates an empty rental aggregate.
func NewRentalAggregate() *RentalAggregate {
	return &RentalAggregate{
		ByQuarter:  make(map[string]*RentStat),
		ByYear:     make(map[string]*RentStat),
		ByDistrict: make(map[string]*RentStat),
		BySegment:  make(map[Segment]*RentStat),
	}
}

// Observe folds one rental record into all dimensions.
func (a *RentalAggregate) Observe(r *RentalRecord) {
	quarterStat(a.ByQuarter, r.Period).Observe(r)
	quarterStat(a.ByYear, r.Year).Observe(r)
	quarterStat(a.ByDistrict, r.District).Observe(r)
	seg := a.BySegment[r.Segment]
	if seg == nil {
		seg = &RentStat{}
		a.BySegment[r.Segment] = seg
	}
	seg.Observe(r)
	n := r.Contracts
	if n <= 0 {
		n = 1
	}
	a.TotalContracts += n
}

func quarterStat(m map[string]*RentStat, key string) *RentStat {
	s := m[key]
	if s == nil {
		s = &RentStat{}
		m[key] = s
	}
	return s
}
