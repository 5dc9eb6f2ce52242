package repository

import (
	"context"
	"database/sql"
	"errors"

	"metergrid/internal/domain"
)

// AgentRepository handles persistence of field agents.
type AgentRepository struct {
	pool *sql.DB
}

// NewAgentRepository returns repository.
func NewAgentRepository(pool *sql.DB) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// GetByID fetches one agent with its zone annotation.
func (r *AgentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	const query = `
		SELECT ag.id, ag.matricule, ag.last_name, ag.first_name, ag.zone_id,
		       z.id, z.label, z.city
		FROM agents ag
		LEFT JOIN zones z ON z.id = ag.zone_id
		WHERE ag.id = $1
	`
	var (
		a         domain.Agent
		zoneID    sql.NullInt64
		zID       sql.NullInt64
		zoneLabel sql.NullString
		zoneCity  sql.NullString
	)
	err := r.pool.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Matricule,
		&a.LastName,
		&a.FirstName,
		&zoneID,
		&zID,
		&zoneLabel,
		&zoneCity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("agent %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if zoneID.Valid {
		zid := zoneID.Int64
		a.ZoneID = &zid
		a.Zone = &domain.Zone{ID: zID.Int64, Label: zoneLabel.String, City: zoneCity.String}
	}
	return &a, nil
}

// List returns all agents with zone annotations, ordered by id.
func (r *AgentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	const query = `
		SELECT ag.id, ag.matricule, ag.last_name, ag.first_name, ag.zone_id,
		       z.id, z.label, z.city
		FROM agents ag
		LEFT JOIN zones z ON z.id = ag.zone_id
		ORDER BY ag.id ASC
	`
	rows, err := r.pool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		var (
			a         domain.Agent
			zoneID    sql.NullInt64
			zID       sql.NullInt64
			zoneLabel sql.NullString
			zoneCity  sql.NullString
		)
		if err := rows.Scan(
			&a.ID,
			&a.Matricule,
			&a.LastName,
			&a.FirstName,
			&zoneID,
			&zID,
			&zoneLabel,
			&zoneCity,
		); err != nil {
			return nil, err
		}
		if zoneID.Valid {
			zid := zoneID.Int64
			a.ZoneID = &zid
			a.Zone = &domain.Zone{ID: zID.Int64, Label: zoneLabel.String, City: zoneCity.String}
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// CountByZone counts agents currently assigned to the zone.
func (r *AgentRepository) CountByZone(ctx context.Context, zoneID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents WHERE zone_id = $1`, zoneID).Scan(&count)
	return count, err
}

// UpdateZone replaces the agent's zone assignment.
func (r *AgentRepository) UpdateZone(ctx context.Context, agentID, zoneID int64) error {
	result, err := r.pool.ExecContext(ctx, `UPDATE agents SET zone_id = $2 WHERE id = $1`, agentID, zoneID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("agent %d not found", agentID)
	}
	return nil
}
