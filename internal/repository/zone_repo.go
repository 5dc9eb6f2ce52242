package repository

import (
	"context"
	"database/sql"
	"errors"

	"metergrid/internal/domain"
)

// ZoneRepository handles persistence of zones.
type ZoneRepository struct {
	pool *sql.DB
}

// NewZoneRepository returns repository.
func NewZoneRepository(pool *sql.DB) *ZoneRepository {
	return &ZoneRepository{pool: pool}
}

// GetByID fetches one zone.
func (r *ZoneRepository) GetByID(ctx context.Context, id int64) (*domain.Zone, error) {
	const query = `SELECT id, label, city FROM zones WHERE id = $1`
	var z domain.Zone
	err := r.pool.QueryRowContext(ctx, query, id).Scan(&z.ID, &z.Label, &z.City)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("zone %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}

// List returns all zones ordered by id.
func (r *ZoneRepository) List(ctx context.Context) ([]domain.Zone, error) {
	rows, err := r.pool.QueryContext(ctx, `SELECT id, label, city FROM zones ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Label, &z.City); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
