package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"metergrid/internal/domain"
)

const statsCacheKey = "dashboard:stats"

// topAgentsLimit bounds the agent leaderboard.
const topAgentsLimit = 10

// trailingMonths is the length of the dashboard consumption series.
const trailingMonths = 6

// MeterCounter counts the meter fleet.
type MeterCounter interface {
	Count(ctx context.Context) (int64, error)
}

// DashboardReadingStore is the ledger access the dashboard needs.
type DashboardReadingStore interface {
	CountDistinctMeters(ctx context.Context, from, to time.Time) (int64, error)
	TopAgents(ctx context.Context, limit int) ([]domain.AgentReadingCount, error)
	MonthlyTotals(ctx context.Context, from, to time.Time) ([]domain.MonthTotal, error)
}

// StatsCache is an optional short-TTL cache in front of the dashboard
// computation.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// DashboardStats is the operational overview payload.
type DashboardStats struct {
	CoverageRate        float64                    `json:"coverageRate"`
	TotalMeters         int64                      `json:"totalMeters"`
	MetersReadThisMonth int64                      `json:"metersReadThisMonth"`
	TopAgents           []domain.AgentReadingCount `json:"topAgents"`
	MonthlyConsumption  []domain.MonthTotal        `json:"monthlyConsumption"`
}

// DashboardService computes coverage and the operational overview.
type DashboardService struct {
	meters   MeterCounter
	readings DashboardReadingStore
	cache    StatsCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService builds the service. cache and nowFn may be nil.
func NewDashboardService(meters MeterCounter, readings DashboardReadingStore, cache StatsCache, nowFn func() time.Time, logger *zap.Logger) *DashboardService {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &DashboardService{
		meters:   meters,
		readings: readings,
		cache:    cache,
		logger:   logger,
		now:      nowFn,
	}
}

// Stats computes the current billing period coverage, the agent
// leaderboard and the trailing consumption series. A cached copy is
// served when fresh; cache failures fall through to the store.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil {
		var cached DashboardStats
		ok, err := s.cache.Get(ctx, statsCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if ok {
			return &cached, nil
		}
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonthStart := monthStart.AddDate(0, 1, 0)

	totalMeters, err := s.meters.Count(ctx)
	if err != nil {
		return nil, err
	}
	readThisMonth, err := s.readings.CountDistinctMeters(ctx, monthStart, nextMonthStart)
	if err != nil {
		return nil, err
	}
	topAgents, err := s.readings.TopAgents(ctx, topAgentsLimit)
	if err != nil {
		return nil, err
	}

	seriesStart := monthStart.AddDate(0, -(trailingMonths - 1), 0)
	series, err := s.readings.MonthlyTotals(ctx, seriesStart, now)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		CoverageRate:        CoverageRate(readThisMonth, totalMeters),
		TotalMeters:         totalMeters,
		MetersReadThisMonth: readThisMonth,
		TopAgents:           topAgents,
		MonthlyConsumption:  series,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
