// Package normalization converts raw upstream transaction rows into
// canonical records. All functions are pure and fail closed: a row that
// cannot be parsed or violates a record invariant is dropped, never stored
// and never an error, so dirty upstream data cannot abort a batch.
package normalization

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"property-analytics/internal/domain"
	"property-analytics/internal/idhash"
)

// sqmToSqft converts square meters to square feet.
const sqmToSqft = 10.7639

// maxPSF is the inclusive upper bound of a plausible price per square foot.
const maxPSF = 50000

// SaleTx normalizes one raw sale transaction for a project group.
// Returns (nil, false) when the row is malformed or violates the record
// invariants: area > 0, price > 0, PSF in (0, 50000].
func SaleTx(project, street, segment string, raw domain.RawSaleTx) (*domain.SaleRecord, bool) {
	date, year, quarter, ok := parseContractDate(raw.ContractDate)
	if !ok {
		return nil, false
	}

	sqm, err := strconv.ParseFloat(strings.TrimSpace(raw.AreaSqm), 64)
	if err != nil || sqm <= 0 {
		return nil, false
	}
	area := int(math.Round(sqm * sqmToSqft))
	if area <= 0 {
		return nil, false
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(raw.Price), 64)
	if err != nil || price <= 0 {
		return nil, false
	}

	psf := math.Round(price / float64(area))
	if psf <= 0 || psf > maxPSF {
		return nil, false
	}

	band, mid := parseFloorRange(raw.FloorRange)

	r := &domain.SaleRecord{
		Date:         date,
		Project:      project,
		Street:       street,
		District:     strings.TrimSpace(raw.District),
		Segment:      domain.ParseSegment(segment),
		PropertyType: raw.PropertyType,
		Tenure:       ParseTenure(raw.Tenure),
		Area:         area,
		Price:        price,
		PSF:          psf,
		FloorBand:    band,
		FloorMid:     mid,
		SaleType:     domain.ParseSaleType(raw.TypeOfSale),
		Year:         year,
		Quarter:      quarter,
	}
	r.ID = idhash.SaleID(r)
	return r, true
}

// parseFloorRange parses the upstream "lo to hi" floor range into a
// zero-padded band label and its numeric midpoint. Unparseable input and
// the "-" placeholder yield an empty band with midpoint 0.
func parseFloorRange(s string) (band string, mid float64) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return "", 0
	}
	parts := strings.Split(s, " to ")
	if len(parts) != 2 {
		return "", 0
	}
	lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return "", 0
	}
	return fmt.Sprintf("%02d-%02d", lo, hi), float64(lo+hi) / 2
}

// ParseTenure normalizes free-text tenure into the three categories by
// case-insensitive substring match.
func ParseTenure(s string) domain.Tenure {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "freehold"):
		return domain.TenureFreehold
	case strings.Contains(lower, "999"):
		return domain.Tenure999Yr
	default:
		return domain.TenureLeasehold
	}
}
