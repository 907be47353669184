package aggregate

import (
	"math/rand"
	"testing"

	"property-analytics/internal/domain"
)

func newTestAggregator() *Aggregator {
	return New(rand.New(rand.NewSource(1)))
}

func alphaGroup() domain.ProjectSaleGroup {
	return domain.ProjectSaleGroup{
		Project:       "Alpha",
		Street:        "Alpha Street",
		MarketSegment: "RCR",
		Transactions: []domain.RawSaleTx{
			{ContractDate: "0124", AreaSqm: "50.0", Price: "1000000", FloorRange: "06 to 10", Tenure: "Freehold", District: "09", PropertyType: "Condominium", TypeOfSale: "3"},
			{ContractDate: "0224", AreaSqm: "55.0", Price: "1100000", FloorRange: "11 to 15", Tenure: "Leasehold", District: "09", PropertyType: "Condominium", TypeOfSale: "3"},
			{ContractDate: "0324", AreaSqm: "50.0", Price: "950000", FloorRange: "-", Tenure: "999 yrs", District: "09", PropertyType: "Condominium", TypeOfSale: "3"},
		},
	}
}

func TestAggregator_EndToEnd(t *testing.T) {
	agg := newTestAggregator()
	if err := agg.Add(alphaGroup()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	res, err := agg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	p := res.Payload

	if p.TotalTx != 3 {
		t.Errorf("expected total count 3, got %d", p.TotalTx)
	}
	if len(p.YearlyTrend) != 1 || p.YearlyTrend[0].Year != "2024" || p.YearlyTrend[0].Count != 3 {
		t.Errorf("expected single 2024 year bucket with count 3, got %+v", p.YearlyTrend)
	}
	if len(p.Districts) != 1 || p.Districts[0].Key != "09" {
		t.Errorf("expected district 09 from the raw district field, got %+v", p.Districts)
	}

	// 3 transactions is below the comparison-pool threshold of 5.
	for _, cp := range p.CmpPool {
		if cp.Project == "Alpha" {
			t.Error("Alpha must not appear in cmpPool with only 3 transactions")
		}
	}

	// Tenure normalization spread across the three raw strings.
	tenures := map[string]int{}
	for _, e := range p.Tenures {
		tenures[e.Key] = e.Count
	}
	if tenures["Freehold"] != 1 || tenures["Leasehold"] != 1 || tenures["999-yr"] != 1 {
		t.Errorf("unexpected tenure breakdown: %v", tenures)
	}

	if len(res.Sales) != 3 {
		t.Errorf("retained store should hold 3 records, got %d", len(res.Sales))
	}
	if got := res.ProjectIndex["09"]; len(got) != 1 || got[0] != "Alpha" {
		t.Errorf("project index: %v", res.ProjectIndex)
	}
}

func TestAggregator_CmpPoolAtThreshold(t *testing.T) {
	agg := newTestAggregator()
	g := alphaGroup()
	// Two more rows push Alpha to 5 transactions.
	g.Transactions = append(g.Transactions,
		domain.RawSaleTx{ContractDate: "0424", AreaSqm: "60", Price: "1200000", FloorRange: "01 to 05", Tenure: "Freehold", District: "09", PropertyType: "Condominium", TypeOfSale: "1"},
		domain.RawSaleTx{ContractDate: "0524", AreaSqm: "65", Price: "1300000", FloorRange: "01 to 05", Tenure: "Freehold", District: "09", PropertyType: "Condominium", TypeOfSale: "1"},
	)
	if err := agg.Add(g); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	res, err := agg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Payload.CmpPool) != 1 || res.Payload.CmpPool[0].Project != "Alpha" {
		t.Errorf("expected Alpha in cmpPool at 5 transactions, got %+v", res.Payload.CmpPool)
	}
	if len(res.Payload.CmpPool[0].ByYear) != 1 {
		t.Errorf("expected one-year PSF series, got %+v", res.Payload.CmpPool[0].ByYear)
	}
}

func TestAggregator_MalformedRowsDropped(t *testing.T) {
	agg := newTestAggregator()
	g := domain.ProjectSaleGroup{
		Project:       "Beta",
		MarketSegment: "OCR",
		Transactions: []domain.RawSaleTx{
			{ContractDate: "1324", AreaSqm: "50", Price: "1000000"},  // month 13
			{ContractDate: "0124", AreaSqm: "0", Price: "1000000"},   // zero area
			{ContractDate: "0124", AreaSqm: "50", Price: "0"},        // zero price
			{ContractDate: "0124", AreaSqm: "0.01", Price: "900000"}, // PSF out of range
			{ContractDate: "0124", AreaSqm: "50", Price: "1000000", District: "19", TypeOfSale: "1"},
		},
	}
	if err := agg.Add(g); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if agg.Dropped() != 4 {
		t.Errorf("expected 4 dropped rows, got %d", agg.Dropped())
	}
	res, err := agg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Payload.TotalTx != 1 {
		t.Errorf("expected 1 accepted row, got %d", res.Payload.TotalTx)
	}
}

func TestAggregator_UnusableGroupSkipped(t *testing.T) {
	agg := newTestAggregator()
	if err := agg.Add(domain.ProjectSaleGroup{Project: ""}); err != nil {
		t.Fatalf("unusable group must not abort the pass: %v", err)
	}
	res, err := agg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Payload.TotalTx != 0 {
		t.Errorf("expected empty payload, got %d", res.Payload.TotalTx)
	}
}

func TestAggregator_SingleUse(t *testing.T) {
	agg := newTestAggregator()
	if err := agg.Add(alphaGroup()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := agg.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := agg.Build(); err != ErrAlreadyBuilt {
		t.Errorf("second Build: expected ErrAlreadyBuilt, got %v", err)
	}
	if err := agg.Add(alphaGroup()); err != ErrAlreadyBuilt {
		t.Errorf("Add after Build: expected ErrAlreadyBuilt, got %v", err)
	}
	if err := agg.AddRentals(domain.ProjectRentalGroup{Project: "Alpha"}); err != ErrAlreadyBuilt {
		t.Errorf("AddRentals after Build: expected ErrAlreadyBuilt, got %v", err)
	}
}

func TestAggregator_RentalsFeedAggregate(t *testing.T) {
	agg := newTestAggregator()
	g := domain.ProjectRentalGroup{
		Project:       "Alpha",
		MarketSegment: "RCR",
		Rentals: []domain.RawRentalTx{
			{LeaseDate: "0124", AreaSqm: "70-80", Rent: "4200", Bedrooms: "2", District: "09", NoOfContracts: "3"},
			{LeaseDate: "0124", AreaSqm: "50", Rent: "3500", Bedrooms: "1", District: "09"},
			{LeaseDate: "0124", AreaSqm: "-", Rent: "3500"}, // dropped
		},
	}
	if err := agg.AddRentals(g); err != nil {
		t.Fatalf("AddRentals failed: %v", err)
	}
	res, err := agg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(res.Rentals) != 2 {
		t.Fatalf("expected 2 retained rentals, got %d", len(res.Rentals))
	}
	if res.Rents.TotalContracts != 4 {
		t.Errorf("expected 4 contracts (3 weighted + 1), got %d", res.Rents.TotalContracts)
	}
	if s := res.Rents.ByQuarter["24Q1"]; s == nil || s.Count != 4 {
		t.Errorf("quarter stat: %+v", s)
	}
}
