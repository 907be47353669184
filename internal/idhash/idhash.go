// Package idhash computes deterministic record identifiers so that the
// same upstream row always maps to the same ID across rebuilds.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"property-analytics/internal/domain"
)

// SaleID computes a deterministic sale record ID.
// Formula: base58(SHA256(project|date|district|area|price|floorBand|saleType)).
func SaleID(r *domain.SaleRecord) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%.0f|%s|%s",
		r.Project,
		r.Date.Format("200601"),
		r.District,
		r.Area,
		r.Price,
		r.FloorBand,
		string(r.SaleType),
	)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
