package aggregate

import (
	"sort"
	"strconv"

	"property-analytics/internal/domain"
	"property-analytics/internal/numstats"
)

// BuildPayload derives the full dashboard payload from a completed rollup,
// the bounded collector contents and the (possibly empty) real rental
// aggregate. Shared by the full-build and filtered-build paths so the two
// can never diverge in shape.
func BuildPayload(
	roll *Rollup,
	sample []*domain.SaleRecord,
	recent []*domain.SaleRecord,
	rents *domain.RentalAggregate,
	rentals []*domain.RentalRecord,
) *domain.DashboardPayload {
	p := &domain.DashboardPayload{
		TotalTx:     roll.TotalTx,
		TotalVolume: roll.TotalVolume,
	}
	if roll.TotalTx == 0 {
		return p
	}

	p.AvgPSF = numstats.Round2(roll.PSFSum / float64(roll.TotalTx))
	p.MedianPSF = numstats.Round2(numstats.PercentileOf(samplePSFs(sample, ""), 0.50))

	years := sortedKeys(roll.ByYear)
	latest := years[len(years)-1]
	p.LatestYear = latest
	p.LatestYearAvgPSF = roll.ByYear[latest].AvgPSF()
	p.LatestYearMedianPSF = numstats.Round2(numstats.PercentileOf(samplePSFs(sample, latest), 0.50))
	p.YoYPct = yoyPct(roll, latest)

	p.YearlyTrend = yearlyTrend(roll, years)
	p.RentTrend = rentTrend(roll, rents)

	p.Districts = breakdown(roll.ByDistrict)
	p.TopDistricts = topK(p.Districts, topDistrictLimit)
	p.Segments = segmentBreakdown(roll)
	p.Types = breakdown(roll.ByType)
	p.Tenures = tenureBreakdown(roll)
	p.FloorBands = breakdown(roll.ByFloorBand)

	p.PSFHistogram = numstats.Histogram(samplePSFs(sample, ""), psfBucketWidth)
	p.RentHistogram = rentHistogram(sample, rentals, roll.DominantSegment())

	p.Scatter = scatter(sample)
	p.YieldRanking = yieldRanking(roll, rents)
	p.CAGRRanking = cagrRanking(roll, p.YieldRanking, years)
	p.Recent = recentRows(recent)
	p.CmpPool = cmpPool(roll)

	return p
}

// yoyPct computes the latest-year over prior-year percent change, nil when
// the prior calendar year has no bucket.
func yoyPct(roll *Rollup, latest string) *float64 {
	y, err := strconv.Atoi(latest)
	if err != nil {
		return nil
	}
	prev, ok := roll.ByYear[strconv.Itoa(y-1)]
	if !ok || prev.Count == 0 {
		return nil
	}
	prevAvg := prev.AvgPSF()
	if prevAvg == 0 {
		return nil
	}
	pct := numstats.Round2((roll.ByYear[latest].AvgPSF()/prevAvg - 1) * 100)
	return &pct
}

func yearlyTrend(roll *Rollup, years []string) []domain.YearPoint {
	out := make([]domain.YearPoint, 0, len(years))
	for _, y := range years {
		b := roll.ByYear[y]
		out = append(out, domain.YearPoint{
			Year:   y,
			AvgPSF: b.AvgPSF(),
			Count:  b.Count,
			Volume: b.PriceSum,
		})
	}
	return out
}

// rentTrend prefers the real rental aggregate for a quarter when it has at
// least one observation; otherwise the rent is estimated from that
// quarter's sale PSF, the dominant segment's yield rate and the observed
// average area.
func rentTrend(roll *Rollup, rents *domain.RentalAggregate) []domain.RentPoint {
	yield := roll.DominantSegment().YieldRate()
	quarters := sortedQuarters(roll.ByQuarter)
	out := make([]domain.RentPoint, 0, len(quarters))
	for _, q := range quarters {
		if rents != nil {
			if s, ok := rents.ByQuarter[q]; ok && s.Count >= 1 {
				out = append(out, domain.RentPoint{
					Quarter: q,
					Rent:    s.AvgRent(),
					RentPSF: s.AvgRentPSF(),
				})
				continue
			}
		}
		b := roll.ByQuarter[q]
		rentPSF := b.AvgPSF() * yield / 12
		out = append(out, domain.RentPoint{
			Quarter:   q,
			Rent:      numstats.Round2(rentPSF * b.AvgArea()),
			RentPSF:   numstats.Round2(rentPSF),
			Estimated: true,
		})
	}
	return out
}

// breakdown renders a rollup dimension as entries sorted by average PSF
// descending, key ascending on ties for deterministic output.
func breakdown(m map[string]*domain.Bucket) []domain.BreakdownEntry {
	out := make([]domain.BreakdownEntry, 0, len(m))
	for key, b := range m {
		out = append(out, domain.BreakdownEntry{Key: key, Value: b.AvgPSF(), Count: b.Count})
	}
	sortBreakdown(out)
	return out
}

func segmentBreakdown(roll *Rollup) []domain.BreakdownEntry {
	out := make([]domain.BreakdownEntry, 0, len(roll.BySegment))
	for seg, b := range roll.BySegment {
		out = append(out, domain.BreakdownEntry{Key: string(seg), Value: b.AvgPSF(), Count: b.Count})
	}
	sortBreakdown(out)
	return out
}

func tenureBreakdown(roll *Rollup) []domain.BreakdownEntry {
	out := make([]domain.BreakdownEntry, 0, len(roll.ByTenure))
	for ten, b := range roll.ByTenure {
		out = append(out, domain.BreakdownEntry{Key: string(ten), Value: b.AvgPSF(), Count: b.Count})
	}
	sortBreakdown(out)
	return out
}

func sortBreakdown(entries []domain.BreakdownEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Key < entries[j].Key
	})
}

func topK(entries []domain.BreakdownEntry, k int) []domain.BreakdownEntry {
	if len(entries) <= k {
		out := make([]domain.BreakdownEntry, len(entries))
		copy(out, entries)
		return out
	}
	out := make([]domain.BreakdownEntry, k)
	copy(out, entries[:k])
	return out
}

// rentHistogram buckets real rents when rental data exists, otherwise
// estimated rents derived from the reservoir sample.
func rentHistogram(sample []*domain.SaleRecord, rentals []*domain.RentalRecord, dominant domain.Segment) []domain.HistBucket {
	if len(rentals) > 0 {
		values := make([]float64, 0, len(rentals))
		for _, r := range rentals {
			values = append(values, r.Rent)
		}
		return numstats.Histogram(values, rentBucketWidth)
	}
	yield := dominant.YieldRate()
	values := make([]float64, 0, len(sample))
	for _, r := range sample {
		values = append(values, r.PSF*yield/12*float64(r.Area))
	}
	return numstats.Histogram(values, rentBucketWidth)
}

func scatter(sample []*domain.SaleRecord) []domain.ScatterPoint {
	out := make([]domain.ScatterPoint, 0, len(sample))
	for _, r := range sample {
		out = append(out, domain.ScatterPoint{Area: r.Area, Price: r.Price, PSF: r.PSF, Year: r.Year})
	}
	return out
}

// yieldRanking ranks districts by realized or estimated gross yield,
// descending, limited to rankingLimit.
func yieldRanking(roll *Rollup, rents *domain.RentalAggregate) []domain.YieldEntry {
	out := make([]domain.YieldEntry, 0, len(roll.ByDistrict))
	for district, b := range roll.ByDistrict {
		salePSF := b.AvgPSF()
		if salePSF <= 0 {
			continue
		}
		entry := domain.YieldEntry{District: district, SalePSF: salePSF}
		if rents != nil {
			if s, ok := rents.ByDistrict[district]; ok && s.Count >= 1 {
				entry.RentPSF = s.AvgRentPSF()
			}
		}
		if entry.RentPSF == 0 {
			entry.RentPSF = numstats.Round2(salePSF * roll.DistrictSegment[district].YieldRate() / 12)
			entry.Estimated = true
		}
		entry.GrossYield = numstats.Round2(entry.RentPSF * 12 / salePSF * 100)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GrossYield != out[j].GrossYield {
			return out[i].GrossYield > out[j].GrossYield
		}
		return out[i].District < out[j].District
	})
	if len(out) > rankingLimit {
		out = out[:rankingLimit]
	}
	return out
}

// cagrRanking ranks districts by CAGR between the globally observed first
// and last years, combined with gross yield into a total score. A district
// missing either endpoint year bucket is excluded, never zero-filled.
func cagrRanking(roll *Rollup, yields []domain.YieldEntry, years []string) []domain.CAGREntry {
	if len(years) < 2 {
		return nil
	}
	start, end := years[0], years[len(years)-1]
	startY, err1 := strconv.Atoi(start)
	endY, err2 := strconv.Atoi(end)
	if err1 != nil || err2 != nil || endY <= startY {
		return nil
	}

	yieldByDistrict := make(map[string]float64, len(yields))
	for _, y := range yields {
		yieldByDistrict[y.District] = y.GrossYield
	}

	out := make([]domain.CAGREntry, 0, len(roll.ByDistrict))
	for district, b := range roll.ByDistrict {
		sb, okStart := b.ByYear[start]
		eb, okEnd := b.ByYear[end]
		if !okStart || !okEnd || sb.Count == 0 || eb.Count == 0 {
			continue
		}
		cagr := numstats.CAGR(sb.AvgPSF(), eb.AvgPSF(), endY-startY)
		out = append(out, domain.CAGREntry{
			District:  district,
			StartYear: start,
			EndYear:   end,
			CAGR:      cagr,
			Yield:     yieldByDistrict[district],
			Total:     numstats.Round2(cagr + yieldByDistrict[district]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].District < out[j].District
	})
	if len(out) > rankingLimit {
		out = out[:rankingLimit]
	}
	return out
}

func recentRows(recent []*domain.SaleRecord) []domain.RecentTx {
	out := make([]domain.RecentTx, 0, len(recent))
	for _, r := range recent {
		out = append(out, domain.RecentTx{
			Date:     r.Date.Format("2006-01"),
			Project:  r.Project,
			District: r.District,
			Area:     r.Area,
			Price:    r.Price,
			PSF:      r.PSF,
			SaleType: string(r.SaleType),
		})
	}
	return out
}

// cmpPool selects projects with at least cmpPoolMinTx transactions, ranked
// by count descending, capped at cmpPoolLimit, each with its per-year PSF
// series.
func cmpPool(roll *Rollup) []domain.CmpProject {
	out := make([]domain.CmpProject, 0)
	for name, b := range roll.ByProject {
		if b.Count < cmpPoolMinTx {
			continue
		}
		meta := roll.Projects[name]
		entry := domain.CmpProject{
			Project:  name,
			District: meta.District,
			Segment:  string(meta.Segment),
			Count:    b.Count,
			AvgPSF:   b.AvgPSF(),
		}
		for _, y := range sortedKeys(b.ByYear) {
			yb := b.ByYear[y]
			entry.ByYear = append(entry.ByYear, domain.YearPoint{
				Year:   y,
				AvgPSF: yb.AvgPSF(),
				Count:  yb.Count,
				Volume: yb.PriceSum,
			})
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Project < out[j].Project
	})
	if len(out) > cmpPoolLimit {
		out = out[:cmpPoolLimit]
	}
	return out
}

func buildProjectIndex(roll *Rollup) map[string][]string {
	index := make(map[string][]string)
	for name, meta := range roll.Projects {
		index[meta.District] = append(index[meta.District], name)
	}
	for district := range index {
		sort.Strings(index[district])
	}
	return index
}

func samplePSFs(sample []*domain.SaleRecord, year string) []float64 {
	out := make([]float64, 0, len(sample))
	for _, r := range sample {
		if year != "" && r.Year != year {
			continue
		}
		out = append(out, r.PSF)
	}
	return out
}

func sortedKeys(m map[string]*domain.Bucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedQuarters orders quarter labels chronologically. The labels carry a
// two-digit year (yy > 50 is the 1900s), so plain lexical order would put
// legacy quarters after current ones.
func sortedQuarters(m map[string]*domain.Bucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return quarterOrd(keys[i]) < quarterOrd(keys[j])
	})
	return keys
}

// quarterOrd maps a "99Q4" label to a sortable ordinal with the century
// restored. Unparseable labels sort first.
func quarterOrd(q string) int {
	if len(q) != 4 {
		return 0
	}
	yy, err1 := strconv.Atoi(q[:2])
	n, err2 := strconv.Atoi(q[3:])
	if err1 != nil || err2 != nil {
		return 0
	}
	year := 2000 + yy
	if yy > 50 {
		year = 1900 + yy
	}
	return year*4 + n
}
