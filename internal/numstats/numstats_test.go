package numstats

import (
	"math"
	"testing"
)

func TestPercentileOf(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.5, 7},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"median odd", []float64{3, 1, 2}, 0.5, 2},
		{"p90 interpolated", []float64{10, 20, 30, 40, 50}, 0.9, 46},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentileOf(tt.values, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PercentileOf(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
			}
		})
	}
}

func TestCAGR(t *testing.T) {
	// 100 -> 121 over 2 years is 10% per year.
	got := CAGR(100, 121, 2)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("CAGR(100, 121, 2) = %v, want 10", got)
	}
	if CAGR(0, 121, 2) != 0 {
		t.Error("zero start average must yield 0")
	}
	if CAGR(100, 121, 0) != 0 {
		t.Error("zero span must yield 0")
	}
}

func TestHistogram(t *testing.T) {
	buckets := Histogram([]float64{150, 250, 260, 399}, 200)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Lo != 0 || buckets[0].Hi != 200 || buckets[0].Count != 1 {
		t.Errorf("bucket 0 = %+v", buckets[0])
	}
	if buckets[1].Lo != 200 || buckets[1].Hi != 400 || buckets[1].Count != 3 {
		t.Errorf("bucket 1 = %+v", buckets[1])
	}
}

func TestHistogram_MaxOnBoundary(t *testing.T) {
	buckets := Histogram([]float64{200, 400}, 200)
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 2 {
		t.Errorf("all values must be counted, got %d", total)
	}
}
