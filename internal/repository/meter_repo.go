package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"metergrid/internal/domain"
)

// MeterRepository handles persistence of meters.
type MeterRepository struct {
	pool *sql.DB
}

// NewMeterRepository returns repository.
func NewMeterRepository(pool *sql.DB) *MeterRepository {
	return &MeterRepository{pool: pool}
}

// GetBySerial fetches one meter.
func (r *MeterRepository) GetBySerial(ctx context.Context, serial string) (*domain.Meter, error) {
	const query = `
		SELECT serial, kind, current_index, address_id, client_id, installed_at
		FROM meters
		WHERE serial = $1
	`
	var m domain.Meter
	err := r.pool.QueryRowContext(ctx, query, serial).Scan(
		&m.Serial,
		&m.Kind,
		&m.CurrentIndex,
		&m.AddressID,
		&m.ClientID,
		&m.InstalledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("meter %s not found", serial)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns meters with address, zone and client annotations,
// ordered by serial.
func (r *MeterRepository) List(ctx context.Context, filter domain.MeterFilter) ([]domain.Meter, error) {
	query := `
		SELECT m.serial, m.kind, m.current_index, m.address_id, m.client_id, m.installed_at,
		       a.id, a.label, a.zone_id,
		       z.id, z.label, z.city,
		       c.id, c.erp_ref, c.full_name
		FROM meters m
		JOIN addresses a ON a.id = m.address_id
		JOIN zones z ON z.id = a.zone_id
		JOIN clients c ON c.id = m.client_id
	`
	var (
		conds []string
		args  []interface{}
	)
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conds = append(conds, fmt.Sprintf("m.kind = $%d", len(args)))
	}
	if filter.ZoneID != nil {
		args = append(args, *filter.ZoneID)
		conds = append(conds, fmt.Sprintf("a.zone_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.serial ASC"

	rows, err := r.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meters []domain.Meter
	for rows.Next() {
		var (
			m    domain.Meter
			addr domain.Address
			zone domain.Zone
			cli  domain.Client
		)
		if err := rows.Scan(
			&m.Serial,
			&m.Kind,
			&m.CurrentIndex,
			&m.AddressID,
			&m.ClientID,
			&m.InstalledAt,
			&addr.ID,
			&addr.Label,
			&addr.ZoneID,
			&zone.ID,
			&zone.Label,
			&zone.City,
			&cli.ID,
			&cli.ERPRef,
			&cli.FullName,
		); err != nil {
			return nil, err
		}
		addr.Zone = &zone
		m.Address = &addr
		m.Client = &cli
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// Create inserts a new meter with index zero.
func (r *MeterRepository) Create(ctx context.Context, m *domain.Meter) error {
	const query = `
		INSERT INTO meters (serial, kind, current_index, address_id, client_id, installed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING installed_at
	`
	return r.pool.QueryRowContext(ctx, query,
		m.Serial,
		m.Kind,
		m.CurrentIndex,
		m.AddressID,
		m.ClientID,
	).Scan(&m.InstalledAt)
}

// Update applies kind/address/client changes.
func (r *MeterRepository) Update(ctx context.Context, m *domain.Meter) error {
	const query = `
		UPDATE meters
		SET kind = $2, address_id = $3, client_id = $4
		WHERE serial = $1
	`
	result, err := r.pool.ExecContext(ctx, query, m.Serial, m.Kind, m.AddressID, m.ClientID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("meter %s not found", m.Serial)
	}
	return nil
}

// Delete removes a meter.
func (r *MeterRepository) Delete(ctx context.Context, serial string) error {
	result, err := r.pool.ExecContext(ctx, `DELETE FROM meters WHERE serial = $1`, serial)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("meter %s not found", serial)
	}
	return nil
}

// Count returns the total number of meters.
func (r *MeterRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM meters`).Scan(&count)
	return count, err
}

// CountByAddress returns how many meters an address holds.
func (r *MeterRepository) CountByAddress(ctx context.Context, addressID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM meters WHERE address_id = $1`, addressID).Scan(&count)
	return count, err
}

// MaxSerial returns the highest numeric serial, 0 when no meters
// exist. Used for serial auto-generation.
func (r *MeterRepository) MaxSerial(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	err := r.pool.QueryRowContext(ctx, `SELECT MAX(serial::bigint) FROM meters`).Scan(&max)
	if err != nil {
		return 0, err
	}
	return max.Int64, nil
}

// ListUnreadByZone returns the zone's meters without a reading since
// the given instant, annotated with address and client. Feeds the
// mobile rounds listing.
func (r *MeterRepository) ListUnreadByZone(ctx context.Context, zoneID int64, since time.Time) ([]domain.Meter, error) {
	const query = `
		SELECT m.serial, m.kind, m.current_index, m.address_id, m.client_id, m.installed_at,
		       a.id, a.label, a.zone_id,
		       z.id, z.label, z.city,
		       c.id, c.erp_ref, c.full_name
		FROM meters m
		JOIN addresses a ON a.id = m.address_id
		JOIN zones z ON z.id = a.zone_id
		JOIN clients c ON c.id = m.client_id
		WHERE a.zone_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM readings rd
			WHERE rd.meter_serial = m.serial AND rd.recorded_at >= $2
		  )
		ORDER BY m.serial ASC
	`
	rows, err := r.pool.QueryContext(ctx, query, zoneID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meters []domain.Meter
	for rows.Next() {
		var (
			m    domain.Meter
			addr domain.Address
			zone domain.Zone
			cli  domain.Client
		)
		if err := rows.Scan(
			&m.Serial,
			&m.Kind,
			&m.CurrentIndex,
			&m.AddressID,
			&m.ClientID,
			&m.InstalledAt,
			&addr.ID,
			&addr.Label,
			&addr.ZoneID,
			&zone.ID,
			&zone.Label,
			&zone.City,
			&cli.ID,
			&cli.ERPRef,
			&cli.FullName,
		); err != nil {
			return nil, err
		}
		addr.Zone = &zone
		m.Address = &addr
		m.Client = &cli
		meters = append(meters, m)
	}
	return meters, rows.Err()
}
