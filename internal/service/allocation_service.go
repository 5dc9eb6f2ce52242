package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"metergrid/internal/domain"
)

// Staffing advisories.
const (
	AdvisoryUnderstaffed = "UNDERSTAFFED"
	AdvisoryOverstaffed  = "OVERSTAFFED"
	AdvisoryOptimal      = "OPTIMAL"
)

// overstaffedFactor: a zone is overstaffed above 1.5x the recommended
// headcount.
const overstaffedFactor = 1.5

// AgentDirectory is the agent access the allocator needs.
type AgentDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	CountByZone(ctx context.Context, zoneID int64) (int64, error)
	UpdateZone(ctx context.Context, agentID, zoneID int64) error
}

// ZoneGetter resolves zones.
type ZoneGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Zone, error)
}

// AddressLoadStore exposes per-zone address workloads.
type AddressLoadStore interface {
	CountByZone(ctx context.Context, zoneID int64) (int64, error)
	CountGroupedByZone(ctx context.Context) (map[int64]int64, error)
}

// AllocationReport is the outcome of a reassignment, with the staffing
// recommendation for the target zone.
type AllocationReport struct {
	ZoneID            int64  `json:"zoneId"`
	AddressLoad       int64  `json:"addressLoad"`
	CurrentAgents     int64  `json:"currentAgents"`
	RecommendedAgents int64  `json:"recommendedAgents"`
	Advisory          string `json:"advisory"`
	Message           string `json:"message"`
}

// AgentWorkload annotates an agent with its zone's staffing picture.
type AgentWorkload struct {
	Agent             domain.Agent `json:"agent"`
	AddressLoad       int64        `json:"addressLoad"`
	RecommendedAgents int64        `json:"recommendedAgents"`
	CurrentAgents     int64        `json:"currentAgents"`
	OptimalRatio      *int64       `json:"optimalRatio"`
}

// AllocationService computes zone workloads and staffing
// recommendations, and moves agents between zones.
type AllocationService struct {
	agents            AgentDirectory
	zones             ZoneGetter
	addresses         AddressLoadStore
	addressesPerAgent int64
	logger            *zap.Logger
}

// NewAllocationService builds the service. addressesPerAgent is the
// staffing ratio; zero falls back to the historical 300.
func NewAllocationService(agents AgentDirectory, zones ZoneGetter, addresses AddressLoadStore, addressesPerAgent int, logger *zap.Logger) *AllocationService {
	if addressesPerAgent <= 0 {
		addressesPerAgent = 300
	}
	return &AllocationService{
		agents:            agents,
		zones:             zones,
		addresses:         addresses,
		addressesPerAgent: int64(addressesPerAgent),
		logger:            logger,
	}
}

// Reassign moves the agent to the zone and reports the zone's staffing
// level after the move.
func (s *AllocationService) Reassign(ctx context.Context, agentID, zoneID int64) (*AllocationReport, error) {
	if zoneID <= 0 {
		return nil, domain.InvalidInput("zone id is required")
	}

	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.zones.GetByID(ctx, zoneID); err != nil {
		return nil, err
	}

	load, err := s.addresses.CountByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	current, err := s.agents.CountByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	// The moving agent joins the headcount unless already there.
	if agent.ZoneID == nil || *agent.ZoneID != zoneID {
		current++
	}

	if err := s.agents.UpdateZone(ctx, agentID, zoneID); err != nil {
		return nil, err
	}

	recommended := s.recommendedAgents(load)
	report := &AllocationReport{
		ZoneID:            zoneID,
		AddressLoad:       load,
		CurrentAgents:     current,
		RecommendedAgents: recommended,
	}

	switch {
	case current < recommended:
		missing := recommended - current
		report.Advisory = AdvisoryUnderstaffed
		report.Message = fmt.Sprintf(
			"zone holds %d addresses; %d agent(s) recommended (1 per %d addresses), %d additional agent(s) needed",
			load, recommended, s.addressesPerAgent, missing,
		)
	case float64(current) > overstaffedFactor*float64(recommended):
		report.Advisory = AdvisoryOverstaffed
		report.Message = fmt.Sprintf(
			"zone holds %d addresses with %d agent(s); staffing exceeds the recommended level of %d",
			load, current, recommended,
		)
	default:
		report.Advisory = AdvisoryOptimal
		ratio := int64(math.Round(float64(load) / float64(current)))
		report.Message = fmt.Sprintf(
			"optimal assignment: %d agent(s) for %d addresses (ratio: %d addresses per agent)",
			current, load, ratio,
		)
	}

	s.logger.Info("agent reassigned",
		zap.Int64("agent_id", agentID),
		zap.Int64("zone_id", zoneID),
		zap.String("advisory", report.Advisory),
	)
	return report, nil
}

// ListWithLoad annotates every agent with its zone's address load and
// staffing recommendation. OptimalRatio is nil unless both the load
// and the headcount are positive.
func (s *AllocationService) ListWithLoad(ctx context.Context) ([]AgentWorkload, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, err
	}
	loadByZone, err := s.addresses.CountGroupedByZone(ctx)
	if err != nil {
		return nil, err
	}

	agentsByZone := make(map[int64]int64)
	for _, a := range agents {
		if a.ZoneID != nil {
			agentsByZone[*a.ZoneID]++
		}
	}

	workloads := make([]AgentWorkload, 0, len(agents))
	for _, a := range agents {
		w := AgentWorkload{Agent: a}
		if a.ZoneID != nil {
			w.AddressLoad = loadByZone[*a.ZoneID]
			w.CurrentAgents = agentsByZone[*a.ZoneID]
			if w.AddressLoad > 0 {
				w.RecommendedAgents = s.recommendedAgents(w.AddressLoad)
			}
			if w.AddressLoad > 0 && w.CurrentAgents > 0 {
				ratio := int64(math.Round(float64(w.AddressLoad) / float64(w.CurrentAgents)))
				w.OptimalRatio = &ratio
			}
		}
		workloads = append(workloads, w)
	}
	return workloads, nil
}

func (s *AllocationService) recommendedAgents(load int64) int64 {
	return int64(math.Ceil(float64(load) / float64(s.addressesPerAgent)))
}
