package normalization

import (
	"fmt"
	"strconv"
	"time"
)

// parseContractDate parses the upstream "MMYY" date label.
// Two-digit years above 50 map to the 1900s (legacy records), the rest to
// the 2000s. Returns ok=false for anything without a valid month 1-12.
func parseContractDate(mmyy string) (date time.Time, year, quarter string, ok bool) {
	if len(mmyy) != 4 {
		return time.Time{}, "", "", false
	}
	month, err := strconv.Atoi(mmyy[:2])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, "", "", false
	}
	yy, err := strconv.Atoi(mmyy[2:])
	if err != nil {
		return time.Time{}, "", "", false
	}
	fullYear := 2000 + yy
	if yy > 50 {
		fullYear = 1900 + yy
	}
	date = time.Date(fullYear, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	year = strconv.Itoa(fullYear)
	quarter = fmt.Sprintf("%02dQ%d", yy, (month+2)/3)
	return date, year, quarter, true
}
