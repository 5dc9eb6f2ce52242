package service

import (
	"context"
	"time"

	"metergrid/internal/domain"
)

// RoundMeterStore lists a zone's meters still awaiting a reading.
type RoundMeterStore interface {
	ListUnreadByZone(ctx context.Context, zoneID int64, since time.Time) ([]domain.Meter, error)
}

// AgentGetter resolves agents.
type AgentGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
}

// Round is an agent's remaining work for the current billing period.
type Round struct {
	Agent  domain.Agent   `json:"agent"`
	Meters []domain.Meter `json:"meters"`
}

// RoundsService builds field-agent tour lists.
type RoundsService struct {
	agents AgentGetter
	meters RoundMeterStore
	now    func() time.Time
}

// NewRoundsService builds the service. nowFn may be nil.
func NewRoundsService(agents AgentGetter, meters RoundMeterStore, nowFn func() time.Time) *RoundsService {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &RoundsService{agents: agents, meters: meters, now: nowFn}
}

// ForAgent returns the meters in the agent's zone that have no reading
// this month. An unassigned agent has no round.
func (s *RoundsService) ForAgent(ctx context.Context, agentID int64) (*Round, error) {
	if agentID <= 0 {
		return nil, domain.InvalidInput("agent id is required")
	}

	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.ZoneID == nil {
		return nil, domain.NotFound("agent %d is not assigned to a zone", agentID)
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	meters, err := s.meters.ListUnreadByZone(ctx, *agent.ZoneID, monthStart)
	if err != nil {
		return nil, err
	}
	return &Round{Agent: *agent, Meters: meters}, nil
}
