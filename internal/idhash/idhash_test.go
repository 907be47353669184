package idhash

import (
	"testing"
	"time"

	"property-analytics/internal/domain"
)

func makeRecord(project string, price float64) *domain.SaleRecord {
	return &domain.SaleRecord{
		Project:   project,
		Date:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		District:  "09",
		Area:      538,
		Price:     price,
		FloorBand: "06-10",
		SaleType:  domain.SaleTypeNew,
	}
}

func TestSaleID_Deterministic(t *testing.T) {
	a := SaleID(makeRecord("Alpha", 1000000))
	b := SaleID(makeRecord("Alpha", 1000000))
	if a != b {
		t.Errorf("expected identical IDs, got %s and %s", a, b)
	}
	if a == "" {
		t.Error("expected non-empty ID")
	}
}

func TestSaleID_DistinctInputs(t *testing.T) {
	a := SaleID(makeRecord("Alpha", 1000000))
	b := SaleID(makeRecord("Alpha", 1000001))
	c := SaleID(makeRecord("Beta", 1000000))
	if a == b {
		t.Error("price change should change the ID")
	}
	if a == c {
		t.Error("project change should change the ID")
	}
}
