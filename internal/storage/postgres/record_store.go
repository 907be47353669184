package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"property-analytics/internal/domain"
	"property-analytics/internal/storage"
)

// RecordStore implements storage.RecordStore using PostgreSQL. Each rebuild
// replaces the full record set inside one transaction, so readers of the
// tables never see a mix of two rebuild cycles.
type RecordStore struct {
	pool *Pool
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(pool *Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

// ReplaceSales atomically replaces the persisted sale records.
func (s *RecordStore) ReplaceSales(ctx context.Context, builtAt time.Time, records []*domain.SaleRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM sale_records`); err != nil {
		return fmt.Errorf("clear sale records: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID, r.Date, r.Project, r.Street, r.District, string(r.Segment),
			r.PropertyType, string(r.Tenure), r.Area, r.Price, r.PSF,
			r.FloorBand, r.FloorMid, string(r.SaleType), r.Year, r.Quarter, builtAt,
		})
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"sale_records"}, []string{
		"id", "date", "project", "street", "district", "segment",
		"property_type", "tenure", "area", "price", "psf",
		"floor_band", "floor_mid", "sale_type", "year", "quarter", "built_at",
	}, pgx.CopyFromRows(rows))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy sale records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReplaceRentals atomically replaces the persisted rental records.
func (s *RecordStore) ReplaceRentals(ctx context.Context, builtAt time.Time, records []*domain.RentalRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rental_records`); err != nil {
		return fmt.Errorf("clear rental records: %w", err)
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.Date, r.Period, r.Project, r.Street, r.District, string(r.Segment),
			r.Area, r.AreaBand, r.Bedrooms, r.Rent, r.RentPSF,
			r.Contracts, r.LeaseDate, r.Year, builtAt,
		})
	}
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"rental_records"}, []string{
		"date", "period", "project", "street", "district", "segment",
		"area", "area_band", "bedrooms", "rent", "rent_psf",
		"contracts", "lease_date", "year", "built_at",
	}, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy rental records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CountSales returns the number of persisted sale records.
func (s *RecordStore) CountSales(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sale_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sale records: %w", err)
	}
	return count, nil
}

// GetSalesByDistrict retrieves persisted sales for a district, date ASC.
func (s *RecordStore) GetSalesByDistrict(ctx context.Context, district string) ([]*domain.SaleRecord, error) {
	query := `
		SELECT id, date, project, street, district, segment,
		       property_type, tenure, area, price, psf,
		       floor_band, floor_mid, sale_type, year, quarter
		FROM sale_records
		WHERE district = $1
		ORDER BY date ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, district)
	if err != nil {
		return nil, fmt.Errorf("query sales by district: %w", err)
	}
	defer rows.Close()

	var out []*domain.SaleRecord
	for rows.Next() {
		var r domain.SaleRecord
		var segment, tenure, saleType string
		if err := rows.Scan(
			&r.ID, &r.Date, &r.Project, &r.Street, &r.District, &segment,
			&r.PropertyType, &tenure, &r.Area, &r.Price, &r.PSF,
			&r.FloorBand, &r.FloorMid, &saleType, &r.Year, &r.Quarter,
		); err != nil {
			return nil, fmt.Errorf("scan sale record: %w", err)
		}
		r.Segment = domain.Segment(segment)
		r.Tenure = domain.Tenure(tenure)
		r.SaleType = domain.SaleType(saleType)
		out = append(out, &r)
	}
	return out, rows.Err()
}
