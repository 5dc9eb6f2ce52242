package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"metergrid/internal/domain"
)

// MaxReadingListSize bounds backoffice reading listings.
const MaxReadingListSize = 500

// ReadingRepository handles the append-only reading ledger.
type ReadingRepository struct {
	pool *sql.DB
}

// NewReadingRepository returns repository.
func NewReadingRepository(pool *sql.DB) *ReadingRepository {
	return &ReadingRepository{pool: pool}
}

// RecordAtomic inserts a reading and advances the meter's index as one
// transaction. The index update is conditional on the index still
// holding expectedIndex; a lost race rolls back everything and returns
// a Conflict, leaving no partial effect.
func (r *ReadingRepository) RecordAtomic(ctx context.Context, reading *domain.Reading, expectedIndex int64) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const updateQuery = `
		UPDATE meters
		SET current_index = $3
		WHERE serial = $1 AND current_index = $2
	`
	result, err := tx.ExecContext(ctx, updateQuery, reading.MeterSerial, expectedIndex, reading.NewIndex)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Conflict("meter %s index changed concurrently", reading.MeterSerial)
	}

	const insertQuery = `
		INSERT INTO readings (recorded_at, previous_index, new_index, consumption, meter_serial, agent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertQuery,
		reading.RecordedAt,
		reading.PreviousIndex,
		reading.NewIndex,
		reading.Consumption,
		reading.MeterSerial,
		reading.AgentID,
	).Scan(&reading.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// List returns readings newest-first, bounded to MaxReadingListSize.
func (r *ReadingRepository) List(ctx context.Context, filter domain.ReadingFilter) ([]domain.Reading, error) {
	query := `
		SELECT rd.id, rd.recorded_at, rd.previous_index, rd.new_index, rd.consumption, rd.meter_serial, rd.agent_id
		FROM readings rd
	`
	var (
		conds []string
		args  []interface{}
	)
	if filter.ZoneID != nil {
		args = append(args, *filter.ZoneID)
		query += `
		JOIN meters m ON m.serial = rd.meter_serial
		JOIN addresses a ON a.id = m.address_id
		`
		conds = append(conds, fmt.Sprintf("a.zone_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("rd.recorded_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("rd.recorded_at < $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxReadingListSize {
		limit = MaxReadingListSize
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY rd.recorded_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var rd domain.Reading
		if err := rows.Scan(
			&rd.ID,
			&rd.RecordedAt,
			&rd.PreviousIndex,
			&rd.NewIndex,
			&rd.Consumption,
			&rd.MeterSerial,
			&rd.AgentID,
		); err != nil {
			return nil, err
		}
		readings = append(readings, rd)
	}
	return readings, rows.Err()
}

// ListDetailsBetween returns one month-report scan: readings in
// [from, to) joined with meter kind, agent and zone dimensions.
func (r *ReadingRepository) ListDetailsBetween(ctx context.Context, from, to time.Time) ([]domain.ReadingDetail, error) {
	const query = `
		SELECT rd.id, rd.recorded_at, rd.previous_index, rd.new_index, rd.consumption, rd.meter_serial, rd.agent_id,
		       m.kind,
		       ag.last_name, ag.first_name,
		       z.id, z.label, z.city
		FROM readings rd
		JOIN meters m ON m.serial = rd.meter_serial
		JOIN agents ag ON ag.id = rd.agent_id
		JOIN addresses a ON a.id = m.address_id
		LEFT JOIN zones z ON z.id = a.zone_id
		WHERE rd.recorded_at >= $1 AND rd.recorded_at < $2
	`
	rows, err := r.pool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.ReadingDetail
	for rows.Next() {
		var (
			d         domain.ReadingDetail
			zoneID    sql.NullInt64
			zoneLabel sql.NullString
			zoneCity  sql.NullString
		)
		if err := rows.Scan(
			&d.ID,
			&d.RecordedAt,
			&d.PreviousIndex,
			&d.NewIndex,
			&d.Consumption,
			&d.MeterSerial,
			&d.AgentID,
			&d.MeterKind,
			&d.AgentLastName,
			&d.AgentFirstName,
			&zoneID,
			&zoneLabel,
			&zoneCity,
		); err != nil {
			return nil, err
		}
		if zoneID.Valid {
			id := zoneID.Int64
			d.ZoneID = &id
			d.ZoneLabel = zoneLabel.String
			d.ZoneCity = zoneCity.String
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// MonthlyKindTotals sums consumption per calendar month and meter kind
// over [from, to).
func (r *ReadingRepository) MonthlyKindTotals(ctx context.Context, from, to time.Time) ([]domain.MonthKindTotal, error) {
	const query = `
		SELECT EXTRACT(MONTH FROM rd.recorded_at)::int AS month, m.kind, COALESCE(SUM(rd.consumption), 0)
		FROM readings rd
		JOIN meters m ON m.serial = rd.meter_serial
		WHERE rd.recorded_at >= $1 AND rd.recorded_at < $2
		GROUP BY month, m.kind
		ORDER BY month ASC, m.kind ASC
	`
	rows, err := r.pool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []domain.MonthKindTotal
	for rows.Next() {
		var t domain.MonthKindTotal
		if err := rows.Scan(&t.Month, &t.Kind, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// MonthlyTotals sums combined consumption per year+month over
// [from, to]. Feeds the trailing dashboard series.
func (r *ReadingRepository) MonthlyTotals(ctx context.Context, from, to time.Time) ([]domain.MonthTotal, error) {
	const query = `
		SELECT EXTRACT(YEAR FROM recorded_at)::int AS year,
		       EXTRACT(MONTH FROM recorded_at)::int AS month,
		       COALESCE(SUM(consumption), 0)
		FROM readings
		WHERE recorded_at >= $1 AND recorded_at <= $2
		GROUP BY year, month
		ORDER BY year ASC, month ASC
	`
	rows, err := r.pool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []domain.MonthTotal
	for rows.Next() {
		var t domain.MonthTotal
		if err := rows.Scan(&t.Year, &t.Month, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// CountDistinctMeters counts distinct meters read within [from, to).
func (r *ReadingRepository) CountDistinctMeters(ctx context.Context, from, to time.Time) (int64, error) {
	const query = `
		SELECT COUNT(DISTINCT meter_serial)
		FROM readings
		WHERE recorded_at >= $1 AND recorded_at < $2
	`
	var count int64
	err := r.pool.QueryRowContext(ctx, query, from, to).Scan(&count)
	return count, err
}

// TopAgents ranks agents by total recorded readings.
func (r *ReadingRepository) TopAgents(ctx context.Context, limit int) ([]domain.AgentReadingCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT rd.agent_id, ag.last_name, ag.first_name, COUNT(rd.id) AS nb
		FROM readings rd
		JOIN agents ag ON ag.id = rd.agent_id
		GROUP BY rd.agent_id, ag.last_name, ag.first_name
		ORDER BY nb DESC
		LIMIT $1
	`
	rows, err := r.pool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []domain.AgentReadingCount
	for rows.Next() {
		var a domain.AgentReadingCount
		if err := rows.Scan(&a.AgentID, &a.LastName, &a.FirstName, &a.Readings); err != nil {
			return nil, err
		}
		top = append(top, a)
	}
	return top, rows.Err()
}
