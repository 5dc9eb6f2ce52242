package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"metergrid/internal/domain"
)

// ReportStore is the read-only ledger access the aggregation engine
// needs.
type ReportStore interface {
	ListDetailsBetween(ctx context.Context, from, to time.Time) ([]domain.ReadingDetail, error)
	MonthlyKindTotals(ctx context.Context, from, to time.Time) ([]domain.MonthKindTotal, error)
}

// KindRollup counts readings and consumption for one meter kind.
type KindRollup struct {
	Readings         int   `json:"nbReadings"`
	TotalConsumption int64 `json:"totalConsumption"`
}

// AgentZoneRollup counts one agent's readings inside one zone.
type AgentZoneRollup struct {
	ZoneID            int64   `json:"zoneId"`
	Label             string  `json:"label"`
	Readings          int     `json:"nbReadings"`
	AvgReadingsPerDay float64 `json:"avgReadingsPerDay"`
}

// AgentRollup is one agent's monthly activity.
type AgentRollup struct {
	AgentID           int64                           `json:"agentId"`
	LastName          string                          `json:"lastName"`
	FirstName         string                          `json:"firstName"`
	Readings          int                             `json:"nbReadings"`
	TotalConsumption  int64                           `json:"totalConsumption"`
	AvgReadingsPerDay float64                         `json:"avgReadingsPerDay"`
	ByKind            map[domain.MeterKind]*KindRollup `json:"byKind"`
	ByZone            []AgentZoneRollup               `json:"byZone"`
}

// ZoneRollup is one zone's monthly activity.
type ZoneRollup struct {
	ZoneID           int64                           `json:"zoneId"`
	Label            string                          `json:"label"`
	City             string                          `json:"city"`
	Readings         int                             `json:"nbReadings"`
	TotalConsumption int64                           `json:"totalConsumption"`
	ByKind           map[domain.MeterKind]*KindRollup `json:"byKind"`
}

// Period identifies the reporting window.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

// MonthlyReport is the full month rollup across all grouping
// dimensions.
type MonthlyReport struct {
	Period        Period                          `json:"period"`
	DaysInMonth   int                             `json:"daysInMonth"`
	TotalReadings int                             `json:"totalReadings"`
	ByKind        map[domain.MeterKind]*KindRollup `json:"byKind"`
	ByAgent       []AgentRollup                   `json:"byAgent"`
	ByZone        []ZoneRollup                    `json:"byZone"`
}

// MonthBucket holds one month's consumption split by kind. The kind
// keys mirror the ERP nomenclature.
type MonthBucket struct {
	Month       int   `json:"month"`
	Water       int64 `json:"EAU"`
	Electricity int64 `json:"ELECTRICITE"`
	Total       int64 `json:"total"`
}

// YearlyComparison pairs a year's monthly buckets with the previous
// year's.
type YearlyComparison struct {
	Year     int           `json:"year"`
	Current  []MonthBucket `json:"current"`
	Previous []MonthBucket `json:"previous"`
}

// TrendPeriod identifies a trailing trend window.
type TrendPeriod struct {
	Year   int `json:"year"`
	Months int `json:"months"`
}

// KindTrends holds the fitted trends for the combined series and each
// kind series.
type KindTrends struct {
	Total       Trend `json:"total"`
	Water       Trend `json:"EAU"`
	Electricity Trend `json:"ELECTRICITE"`
}

// TrendReport is the trailing-window trend analysis.
type TrendReport struct {
	Period TrendPeriod   `json:"period"`
	Data   []MonthBucket `json:"data"`
	Trends KindTrends    `json:"trends"`
}

// DefaultTrendMonths is the trailing window when the caller does not
// specify one.
const DefaultTrendMonths = 6

// ReportService aggregates the reading ledger into operational
// statistics. All aggregations are read-only: each call scans its
// window once, builds the rollups in memory and discards them.
type ReportService struct {
	readings ReportStore
	logger   *zap.Logger
}

// NewReportService builds the service.
func NewReportService(readings ReportStore, logger *zap.Logger) *ReportService {
	return &ReportService{readings: readings, logger: logger}
}

// Monthly builds the full report for one calendar month.
func (s *ReportService) Monthly(ctx context.Context, year, month int) (*MonthlyReport, error) {
	if year <= 0 {
		return nil, domain.InvalidInput("year is required")
	}
	if month < 1 || month > 12 {
		return nil, domain.InvalidInput("month must be between 1 and 12")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	daysInMonth := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()

	details, err := s.readings.ListDetailsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{
		Period:        Period{Year: year, Month: month},
		DaysInMonth:   daysInMonth,
		TotalReadings: len(details),
		ByKind:        newKindRollups(),
	}

	agentRollups := make(map[int64]*AgentRollup)
	agentZones := make(map[int64]map[int64]*AgentZoneRollup)
	zoneRollups := make(map[int64]*ZoneRollup)

	for _, d := range details {
		knownKind := d.MeterKind.Valid()
		if knownKind {
			bucket := report.ByKind[d.MeterKind]
			bucket.Readings++
			bucket.TotalConsumption += d.Consumption
		}

		agent, ok := agentRollups[d.AgentID]
		if !ok {
			agent = &AgentRollup{
				AgentID:   d.AgentID,
				LastName:  d.AgentLastName,
				FirstName: d.AgentFirstName,
				ByKind:    newKindRollups(),
			}
			agentRollups[d.AgentID] = agent
			agentZones[d.AgentID] = make(map[int64]*AgentZoneRollup)
		}
		agent.Readings++
		agent.TotalConsumption += d.Consumption
		if knownKind {
			agent.ByKind[d.MeterKind].Readings++
			agent.ByKind[d.MeterKind].TotalConsumption += d.Consumption
		}

		if d.ZoneID != nil {
			az, ok := agentZones[d.AgentID][*d.ZoneID]
			if !ok {
				az = &AgentZoneRollup{ZoneID: *d.ZoneID, Label: d.ZoneLabel}
				agentZones[d.AgentID][*d.ZoneID] = az
			}
			az.Readings++

			zone, ok := zoneRollups[*d.ZoneID]
			if !ok {
				zone = &ZoneRollup{
					ZoneID: *d.ZoneID,
					Label:  d.ZoneLabel,
					City:   d.ZoneCity,
					ByKind: newKindRollups(),
				}
				zoneRollups[*d.ZoneID] = zone
			}
			zone.Readings++
			zone.TotalConsumption += d.Consumption
			if knownKind {
				zone.ByKind[d.MeterKind].Readings++
				zone.ByKind[d.MeterKind].TotalConsumption += d.Consumption
			}
		}
	}

	for agentID, agent := range agentRollups {
		agent.AvgReadingsPerDay = round2(float64(agent.Readings) / float64(daysInMonth))
		zones := make([]AgentZoneRollup, 0, len(agentZones[agentID]))
		for _, az := range agentZones[agentID] {
			az.AvgReadingsPerDay = round2(float64(az.Readings) / float64(daysInMonth))
			zones = append(zones, *az)
		}
		sort.Slice(zones, func(i, j int) bool { return zones[i].ZoneID < zones[j].ZoneID })
		agent.ByZone = zones
		report.ByAgent = append(report.ByAgent, *agent)
	}
	sort.Slice(report.ByAgent, func(i, j int) bool { return report.ByAgent[i].AgentID < report.ByAgent[j].AgentID })

	for _, zone := range zoneRollups {
		report.ByZone = append(report.ByZone, *zone)
	}
	sort.Slice(report.ByZone, func(i, j int) bool { return report.ByZone[i].ZoneID < report.ByZone[j].ZoneID })

	return report, nil
}

// YearlyComparison aggregates monthly kind totals for the year and the
// one before it.
func (s *ReportService) YearlyComparison(ctx context.Context, year int) (*YearlyComparison, error) {
	if year <= 0 {
		return nil, domain.InvalidInput("year is required")
	}

	current, err := s.monthlyBuckets(ctx, year)
	if err != nil {
		return nil, err
	}
	previous, err := s.monthlyBuckets(ctx, year-1)
	if err != nil {
		return nil, err
	}

	return &YearlyComparison{Year: year, Current: current, Previous: previous}, nil
}

// Trends fits the trailing monthly consumption series of the year,
// combined and per kind.
func (s *ReportService) Trends(ctx context.Context, year, months int) (*TrendReport, error) {
	if year <= 0 {
		return nil, domain.InvalidInput("year is required")
	}
	if months <= 0 {
		months = DefaultTrendMonths
	}

	buckets, err := s.monthlyBuckets(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(buckets) > months {
		buckets = buckets[len(buckets)-months:]
	}

	total := make([]float64, len(buckets))
	water := make([]float64, len(buckets))
	electricity := make([]float64, len(buckets))
	for i, b := range buckets {
		total[i] = float64(b.Total)
		water[i] = float64(b.Water)
		electricity[i] = float64(b.Electricity)
	}

	return &TrendReport{
		Period: TrendPeriod{Year: year, Months: months},
		Data:   buckets,
		Trends: KindTrends{
			Total:       FitTrend(total),
			Water:       FitTrend(water),
			Electricity: FitTrend(electricity),
		},
	}, nil
}

// monthlyBuckets folds the year's month x kind totals into ordered
// buckets. Months without readings produce no bucket; unknown kinds
// count only toward the bucket total.
func (s *ReportService) monthlyBuckets(ctx context.Context, year int) ([]MonthBucket, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	totals, err := s.readings.MonthlyKindTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]*MonthBucket)
	for _, t := range totals {
		bucket, ok := byMonth[t.Month]
		if !ok {
			bucket = &MonthBucket{Month: t.Month}
			byMonth[t.Month] = bucket
		}
		switch t.Kind {
		case domain.KindWater:
			bucket.Water = t.Total
		case domain.KindElectricity:
			bucket.Electricity = t.Total
		}
		bucket.Total += t.Total
	}

	buckets := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets, nil
}

func newKindRollups() map[domain.MeterKind]*KindRollup {
	return map[domain.MeterKind]*KindRollup{
		domain.KindWater:       {},
		domain.KindElectricity: {},
	}
}
