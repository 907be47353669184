package domain

// YearPoint is one point of the yearly PSF trend.
type YearPoint struct {
	Year   string  `json:"year"`
	AvgPSF float64 `json:"avgPsf"`
	Count  int     `json:"count"`
	Volume float64 `json:"volume"`
}

// RentPoint is one point of the quarterly rent trend. Estimated marks
// points derived from sale PSF and segment yield rather than real contracts.
type RentPoint struct {
	Quarter   string  `json:"quarter"`
	Rent      float64 `json:"rent"`
	RentPSF   float64 `json:"rentPsf"`
	Estimated bool    `json:"estimated"`
}

// BreakdownEntry is one row of a categorical breakdown (district, segment,
// property type, tenure), sorted by Value descending in the payload.
type BreakdownEntry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// HistBucket is one histogram bar over [Lo, Hi).
type HistBucket struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// ScatterPoint is one reservoir-sampled transaction for scatter charts.
type ScatterPoint struct {
	Area  int     `json:"area"`
	Price float64 `json:"price"`
	PSF   float64 `json:"psf"`
	Year  string  `json:"year"`
}

// YieldEntry is one row of the gross-yield investment ranking.
type YieldEntry struct {
	District   string  `json:"district"`
	SalePSF    float64 `json:"salePsf"`
	RentPSF    float64 `json:"rentPsf"`
	GrossYield float64 `json:"grossYield"`
	Estimated  bool    `json:"estimated"`
}

// CAGREntry is one row of the CAGR investment ranking. Districts missing
// either endpoint year bucket are excluded, never zero-filled.
type CAGREntry struct {
	District  string  `json:"district"`
	StartYear string  `json:"startYear"`
	EndYear   string  `json:"endYear"`
	CAGR      float64 `json:"cagr"`
	Yield     float64 `json:"yield"`
	Total     float64 `json:"total"`
}

// RecentTx is one row of the latest-transaction table.
type RecentTx struct {
	Date     string  `json:"date"` // "2006-01"
	Project  string  `json:"project"`
	District string  `json:"district"`
	Area     int     `json:"area"`
	Price    float64 `json:"price"`
	PSF      float64 `json:"psf"`
	SaleType string  `json:"saleType"`
}

// CmpProject is one comparison-pool project with its per-year PSF series.
type CmpProject struct {
	Project  string      `json:"project"`
	District string      `json:"district"`
	Segment  string      `json:"segment"`
	Count    int         `json:"count"`
	AvgPSF   float64     `json:"avgPsf"`
	ByYear   []YearPoint `json:"byYear"`
}

// DashboardPayload is the engine's terminal output: a flat object of
// precomputed series consumed as opaque JSON by the HTTP layer, the cache
// and the snapshot writer. Built once per rebuild or per distinct filter
// combination, never partially mutated after construction.
type DashboardPayload struct {
	TotalTx     int     `json:"totalTx"`
	TotalVolume float64 `json:"totalVolume"`

	AvgPSF              float64  `json:"avgPsf"`
	MedianPSF           float64  `json:"medianPsf"`
	LatestYear          string   `json:"latestYear"`
	LatestYearAvgPSF    float64  `json:"latestYearAvgPsf"`
	LatestYearMedianPSF float64  `json:"latestYearMedianPsf"`
	YoYPct              *float64 `json:"yoyPct"` // nil without a prior year

	YearlyTrend  []YearPoint `json:"yearlyTrend"`
	RentTrend    []RentPoint `json:"rentTrend"`

	Districts    []BreakdownEntry `json:"districts"`
	TopDistricts []BreakdownEntry `json:"topDistricts"`
	Segments     []BreakdownEntry `json:"segments"`
	Types        []BreakdownEntry `json:"types"`
	Tenures      []BreakdownEntry `json:"tenures"`
	FloorBands   []BreakdownEntry `json:"floorBands"`

	PSFHistogram  []HistBucket `json:"psfHistogram"`
	RentHistogram []HistBucket `json:"rentHistogram"`

	Scatter []ScatterPoint `json:"scatter"`

	YieldRanking []YieldEntry `json:"yd"`
	CAGRRanking  []CAGREntry  `json:"cagrData"`

	Recent  []RecentTx   `json:"recent"`
	CmpPool []CmpProject `json:"cmpPool"`
}

// FilterSet is one filtered-query filter combination. Empty string means
// "any" for that dimension. Sales honor all five dimensions; rentals only
// district, year and segment.
type FilterSet struct {
	District     string `json:"district"`
	Year         string `json:"year"`
	Segment      string `json:"segment"`
	PropertyType string `json:"propertyType"`
	Tenure       string `json:"tenure"`
}

// Key returns a stable cache key for the filter combination.
func (f FilterSet) Key() string {
	return f.District + "|" + f.Year + "|" + f.Segment + "|" + f.PropertyType + "|" + f.Tenure
}

// MatchesSale reports whether a sale record passes every set dimension.
func (f FilterSet) MatchesSale(r *SaleRecord) bool {
	if f.District != "" && r.District != f.District {
		return false
	}
	if f.Year != "" && r.Year != f.Year {
		return false
	}
	if f.Segment != "" && string(r.Segment) != f.Segment {
		return false
	}
	if f.PropertyType != "" && r.PropertyType != f.PropertyType {
		return false
	}
	if f.Tenure != "" && string(r.Tenure) != f.Tenure {
		return false
	}
	return true
}

// MatchesRental reports whether a rental record passes the rental dimensions.
func (f FilterSet) MatchesRental(r *RentalRecord) bool {
	if f.District != "" && r.District != f.District {
		return false
	}
	if f.Year != "" && r.Year != f.Year {
		return false
	}
	if f.Segment != "" && string(r.Segment) != f.Segment {
		return false
	}
	return true
}

// FilteredPayload is the filtered-query result: the full payload shape plus
// the applied filters and match counts. A nil *FilteredPayload (not an empty
// one) means the filter combination matched no sales.
type FilteredPayload struct {
	DashboardPayload

	AppliedFilters      FilterSet `json:"appliedFilters"`
	FilteredSalesCount  int       `json:"filteredSalesCount"`
	FilteredRentalCount int       `json:"filteredRentalCount"`

	// Current averages from the narrowest rolling window with enough
	// records (3, 6 or 12 months); window 0 means the value fell back to
	// the latest full year, or to the whole filtered set.
	CurrentAvgPSF      float64 `json:"currentAvgPsf"`
	CurrentAvgRent     float64 `json:"currentAvgRent"`
	CurrentPSFWindow   int     `json:"currentPsfWindow"`
	CurrentRentWindow  int     `json:"currentRentWindow"`
}
