package repository

import (
	"context"
	"database/sql"
	"errors"

	"metergrid/internal/domain"
)

// AddressRepository handles persistence of addresses.
type AddressRepository struct {
	pool *sql.DB
}

// NewAddressRepository returns repository.
func NewAddressRepository(pool *sql.DB) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// GetByID fetches one address.
func (r *AddressRepository) GetByID(ctx context.Context, id int64) (*domain.Address, error) {
	const query = `SELECT id, erp_ref, label, zone_id FROM addresses WHERE id = $1`
	var (
		a      domain.Address
		erpRef sql.NullString
	)
	err := r.pool.QueryRowContext(ctx, query, id).Scan(&a.ID, &erpRef, &a.Label, &a.ZoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("address %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	a.ERPRef = erpRef.String
	return &a, nil
}

// CountByZone counts addresses belonging to the zone. This is the
// workload figure the staffing heuristic runs on.
func (r *AddressRepository) CountByZone(ctx context.Context, zoneID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM addresses WHERE zone_id = $1`, zoneID).Scan(&count)
	return count, err
}

// CountGroupedByZone returns address counts for every zone that has at
// least one address.
func (r *AddressRepository) CountGroupedByZone(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.pool.QueryContext(ctx, `SELECT zone_id, COUNT(*) FROM addresses GROUP BY zone_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var (
			zoneID int64
			count  int64
		)
		if err := rows.Scan(&zoneID, &count); err != nil {
			return nil, err
		}
		counts[zoneID] = count
	}
	return counts, rows.Err()
}
