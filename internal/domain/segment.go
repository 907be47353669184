package domain

// Segment is the coarse geographic market tier of a property.
type Segment string

// Market segment constants.
const (
	SegmentCCR Segment = "CCR" // Core Central Region
	SegmentRCR Segment = "RCR" // Rest of Central Region
	SegmentOCR Segment = "OCR" // Outside Central Region
)

// Segments lists all segments in display order.
var Segments = []Segment{SegmentCCR, SegmentRCR, SegmentOCR}

// ParseSegment maps a raw segment string to a Segment.
// Unknown values default to OCR, the broadest tier.
func ParseSegment(s string) Segment {
	switch s {
	case "CCR":
		return SegmentCCR
	case "RCR":
		return SegmentRCR
	case "OCR":
		return SegmentOCR
	default:
		return SegmentOCR
	}
}

// YieldRate returns the default annual gross yield assumed for the segment,
// used only as a last-resort fallback when no real rental data exists.
func (s Segment) YieldRate() float64 {
	switch s {
	case SegmentCCR:
		return 0.025
	case SegmentRCR:
		return 0.028
	default:
		return 0.032
	}
}

// Tenure is the normalized land tenure category.
type Tenure string

// Tenure constants.
const (
	TenureFreehold  Tenure = "Freehold"
	Tenure999Yr     Tenure = "999-yr"
	TenureLeasehold Tenure = "Leasehold"
)

// SaleType distinguishes developer sales from secondary-market sales.
type SaleType string

// Sale type constants.
const (
	SaleTypeNew    SaleType = "New Sale"
	SaleTypeSub    SaleType = "Sub Sale"
	SaleTypeResale SaleType = "Resale"
)

// ParseSaleType maps the upstream numeric sale-type code.
func ParseSaleType(code string) SaleType {
	switch code {
	case "1":
		return SaleTypeNew
	case "2":
		return SaleTypeSub
	default:
		return SaleTypeResale
	}
}
