package aggregate

import (
	"math"
	"testing"
	"time"

	"property-analytics/internal/domain"
)

func saleRec(district, year, quarter string, psf float64, seg domain.Segment) *domain.SaleRecord {
	y, _ := time.Parse("2006", year)
	return &domain.SaleRecord{
		ID:       district + year + quarter,
		Date:     y,
		Project:  "P-" + district,
		District: district,
		Segment:  seg,
		Tenure:   domain.TenureLeasehold,
		Area:     800,
		Price:    psf * 800,
		PSF:      psf,
		Year:     year,
		Quarter:  quarter,
		SaleType: domain.SaleTypeResale,
	}
}

func TestYoYFormula(t *testing.T) {
	roll := NewRollup()
	// Year 2023: sum 1000 over 10 records; year 2024: sum 1200 over 10.
	for i := 0; i < 10; i++ {
		roll.Observe(saleRec("09", "2023", "23Q1", 100, domain.SegmentCCR))
		roll.Observe(saleRec("09", "2024", "24Q1", 120, domain.SegmentCCR))
	}
	p := BuildPayload(roll, nil, nil, nil, nil)
	if p.YoYPct == nil {
		t.Fatal("expected YoY value with two adjacent years")
	}
	if math.Abs(*p.YoYPct-20.0) > 1e-9 {
		t.Errorf("expected YoY +20.0, got %v", *p.YoYPct)
	}
}

func TestYoY_NilWithoutPriorYear(t *testing.T) {
	roll := NewRollup()
	roll.Observe(saleRec("09", "2024", "24Q1", 100, domain.SegmentCCR))
	p := BuildPayload(roll, nil, nil, nil, nil)
	if p.YoYPct != nil {
		t.Errorf("expected nil YoY without a prior year, got %v", *p.YoYPct)
	}
}

func TestCAGRExclusion(t *testing.T) {
	roll := NewRollup()
	// District 09 spans both endpoint years; district 10 only the last.
	roll.Observe(saleRec("09", "2020", "20Q1", 1000, domain.SegmentCCR))
	roll.Observe(saleRec("09", "2024", "24Q1", 1500, domain.SegmentCCR))
	roll.Observe(saleRec("10", "2024", "24Q1", 2000, domain.SegmentCCR))

	p := BuildPayload(roll, nil, nil, nil, nil)
	for _, e := range p.CAGRRanking {
		if e.District == "10" {
			t.Error("district missing the start-year bucket must not appear in cagrData")
		}
	}
	if len(p.CAGRRanking) != 1 || p.CAGRRanking[0].District != "09" {
		t.Fatalf("expected district 09 only, got %+v", p.CAGRRanking)
	}
	// (1500/1000)^(1/4) - 1 = 10.67% to two decimals.
	if math.Abs(p.CAGRRanking[0].CAGR-10.67) > 1e-9 {
		t.Errorf("CAGR = %v, want 10.67", p.CAGRRanking[0].CAGR)
	}
}

func TestRentTrend_LegacyQuartersSortFirst(t *testing.T) {
	roll := NewRollup()
	// Legacy two-digit years sit above 50 and would sort after the 2000s
	// lexically.
	roll.Observe(saleRec("09", "2024", "24Q1", 2000, domain.SegmentCCR))
	roll.Observe(saleRec("09", "1999", "99Q4", 800, domain.SegmentCCR))
	roll.Observe(saleRec("09", "2001", "01Q2", 900, domain.SegmentCCR))

	p := BuildPayload(roll, nil, nil, nil, nil)
	got := make([]string, len(p.RentTrend))
	for i, pt := range p.RentTrend {
		got[i] = pt.Quarter
	}
	want := []string{"99Q4", "01Q2", "24Q1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("quarter order: got %v, want %v", got, want)
		}
	}
}

func TestRentTrend_PrefersRealRents(t *testing.T) {
	roll := NewRollup()
	roll.Observe(saleRec("09", "2024", "24Q1", 2000, domain.SegmentCCR))
	roll.Observe(saleRec("09", "2024", "24Q2", 2000, domain.SegmentCCR))

	rents := domain.NewRentalAggregate()
	rents.Observe(&domain.RentalRecord{
		Period: "24Q1", Year: "2024", District: "09", Segment: domain.SegmentCCR,
		Area: 800, Rent: 5000, RentPSF: 6.25, Contracts: 1,
	})

	p := BuildPayload(roll, nil, nil, rents, nil)
	if len(p.RentTrend) != 2 {
		t.Fatalf("expected 2 rent points, got %d", len(p.RentTrend))
	}
	q1, q2 := p.RentTrend[0], p.RentTrend[1]
	if q1.Estimated || q1.Rent != 5000 {
		t.Errorf("24Q1 should use the real rent: %+v", q1)
	}
	if !q2.Estimated {
		t.Errorf("24Q2 has no real observations and must be estimated: %+v", q2)
	}
	// Estimate: psf 2000 x CCR 2.5% / 12 x area 800.
	want := 2000 * 0.025 / 12 * 800
	if math.Abs(q2.Rent-want) > 0.01 {
		t.Errorf("estimated rent = %v, want %v", q2.Rent, want)
	}
}

func TestBreakdown_SortedDescending(t *testing.T) {
	roll := NewRollup()
	roll.Observe(saleRec("09", "2024", "24Q1", 2500, domain.SegmentCCR))
	roll.Observe(saleRec("19", "2024", "24Q1", 1200, domain.SegmentOCR))
	roll.Observe(saleRec("15", "2024", "24Q1", 1800, domain.SegmentRCR))

	p := BuildPayload(roll, nil, nil, nil, nil)
	if len(p.Districts) != 3 {
		t.Fatalf("expected 3 districts, got %d", len(p.Districts))
	}
	for i := 1; i < len(p.Districts); i++ {
		if p.Districts[i].Value > p.Districts[i-1].Value {
			t.Errorf("districts not sorted descending: %+v", p.Districts)
		}
	}
	if p.Districts[0].Key != "09" {
		t.Errorf("expected district 09 first, got %s", p.Districts[0].Key)
	}
}

func TestYieldRanking_RealVsEstimated(t *testing.T) {
	roll := NewRollup()
	roll.Observe(saleRec("09", "2024", "24Q1", 2000, domain.SegmentCCR))
	roll.Observe(saleRec("19", "2024", "24Q1", 1000, domain.SegmentOCR))

	rents := domain.NewRentalAggregate()
	rents.Observe(&domain.RentalRecord{
		Period: "24Q1", Year: "2024", District: "09", Segment: domain.SegmentCCR,
		Area: 800, Rent: 6400, RentPSF: 8, Contracts: 1,
	})

	p := BuildPayload(roll, nil, nil, rents, nil)
	byDistrict := map[string]domain.YieldEntry{}
	for _, e := range p.YieldRanking {
		byDistrict[e.District] = e
	}

	real := byDistrict["09"]
	if real.Estimated {
		t.Error("district 09 has real rental data and must not be estimated")
	}
	// 8 x 12 / 2000 x 100 = 4.8
	if math.Abs(real.GrossYield-4.8) > 1e-9 {
		t.Errorf("realized gross yield = %v, want 4.8", real.GrossYield)
	}

	est := byDistrict["19"]
	if !est.Estimated {
		t.Error("district 19 has no rental data and must be estimated")
	}
	// Estimated rentPSF = 1000 x 3.2% / 12 = 2.67 rounded; yield from rounded value.
	if math.Abs(est.GrossYield-3.2) > 0.05 {
		t.Errorf("estimated gross yield = %v, want about 3.2", est.GrossYield)
	}
}

func TestEmptyRollup(t *testing.T) {
	p := BuildPayload(NewRollup(), nil, nil, nil, nil)
	if p.TotalTx != 0 || p.YearlyTrend != nil || p.YoYPct != nil {
		t.Errorf("empty rollup must produce a zero payload: %+v", p)
	}
}
