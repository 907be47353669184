package domain

import "time"

// SaleRecord is the canonical form of one sale transaction.
// Immutable once created by normalization; records failing validation
// (area <= 0, price <= 0, PSF outside (0, 50000]) are never stored.
type SaleRecord struct {
	ID           string    // deterministic hash of identity fields
	Date         time.Time // month resolution, first of month UTC
	Project      string
	Street       string
	District     string // two-digit postal district code
	Segment      Segment
	PropertyType string
	Tenure       Tenure
	Area         int     // square feet, rounded
	Price        float64
	PSF          float64 // price per square foot, rounded
	FloorBand    string  // "06-10", empty when unknown
	FloorMid     float64 // midpoint of the floor band, 0 when unknown
	SaleType     SaleType
	Year         string // "2024"
	Quarter      string // "24Q1"
}

// RentalRecord is the canonical form of one rental contract row.
type RentalRecord struct {
	Date      time.Time // lease month, first of month UTC
	Period    string    // quarter label, "24Q1"
	Project   string
	Street    string
	District  string
	Segment   Segment
	Area      int    // square feet, midpoint of the reported range
	AreaBand  string // formatted range label, e.g. "700-900 sqft"
	Bedrooms  string // bedroom count label, empty when unknown
	Rent      float64
	RentPSF   float64
	Contracts int
	LeaseDate string // raw "MMYY" label
	Year      string
}
