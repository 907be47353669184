package normalization

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"property-analytics/internal/domain"
)

// RentalTx normalizes one raw rental contract row for a project group.
// The upstream area field may be a single value or a "lo-hi" sqm range;
// the canonical area is the range midpoint converted to sqft. Rows without
// a positive area and rent are dropped.
func RentalTx(project, street, segment string, raw domain.RawRentalTx) (*domain.RentalRecord, bool) {
	date, year, quarter, ok := parseContractDate(raw.LeaseDate)
	if !ok {
		return nil, false
	}

	loSqm, hiSqm, ok := parseAreaRange(raw.AreaSqm)
	if !ok {
		return nil, false
	}
	area := int(math.Round((loSqm + hiSqm) / 2 * sqmToSqft))
	if area <= 0 {
		return nil, false
	}

	rent, err := strconv.ParseFloat(strings.TrimSpace(raw.Rent), 64)
	if err != nil || rent <= 0 {
		return nil, false
	}

	contracts := 1
	if n, err := strconv.Atoi(strings.TrimSpace(raw.NoOfContracts)); err == nil && n > 0 {
		contracts = n
	}

	bedrooms := strings.TrimSpace(raw.Bedrooms)
	if bedrooms == "-" {
		bedrooms = ""
	}

	return &domain.RentalRecord{
		Date:      date,
		Period:    quarter,
		Project:   project,
		Street:    street,
		District:  strings.TrimSpace(raw.District),
		Segment:   domain.ParseSegment(segment),
		Area:      area,
		AreaBand:  formatAreaBand(loSqm, hiSqm),
		Bedrooms:  bedrooms,
		Rent:      rent,
		RentPSF:   math.Round(rent/float64(area)*100) / 100,
		Contracts: contracts,
		LeaseDate: raw.LeaseDate,
		Year:      year,
	}, true
}

// parseAreaRange parses "70-80" or a single "75" sqm value.
func parseAreaRange(s string) (lo, hi float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, 0, false
	}
	if i := strings.Index(s, "-"); i > 0 {
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
		if err1 != nil || err2 != nil || lo <= 0 || hi < lo {
			return 0, 0, false
		}
		return lo, hi, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, 0, false
	}
	return v, v, true
}

// formatAreaBand renders the sqm range as a sqft band label.
func formatAreaBand(loSqm, hiSqm float64) string {
	lo := int(math.Round(loSqm * sqmToSqft))
	hi := int(math.Round(hiSqm * sqmToSqft))
	if lo == hi {
		return fmt.Sprintf("%d sqft", lo)
	}
	return fmt.Sprintf("%d-%d sqft", lo, hi)
}
