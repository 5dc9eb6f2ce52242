package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

type fakeReportStore struct {
	details      []domain.ReadingDetail
	totalsByYear map[int][]domain.MonthKindTotal
}

func (s *fakeReportStore) ListDetailsBetween(_ context.Context, from, to time.Time) ([]domain.ReadingDetail, error) {
	out := make([]domain.ReadingDetail, 0, len(s.details))
	for _, d := range s.details {
		if !d.RecordedAt.Before(from) && d.RecordedAt.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeReportStore) MonthlyKindTotals(_ context.Context, from, to time.Time) ([]domain.MonthKindTotal, error) {
	return s.totalsByYear[from.Year()], nil
}

func detail(id int64, day int, kind domain.MeterKind, consumption, agentID int64, lastName string, zoneID int64, zoneLabel string) domain.ReadingDetail {
	d := domain.ReadingDetail{
		Reading: domain.Reading{
			ID:          id,
			RecordedAt:  time.Date(2025, time.June, day, 9, 0, 0, 0, time.UTC),
			Consumption: consumption,
			AgentID:     agentID,
		},
		MeterKind:     kind,
		AgentLastName: lastName,
	}
	if zoneID > 0 {
		d.ZoneID = &zoneID
		d.ZoneLabel = zoneLabel
		d.ZoneCity = "Rabat"
	}
	return d
}

func TestMonthlyReport_GroupsByKindAgentAndZone(t *testing.T) {
	store := &fakeReportStore{details: []domain.ReadingDetail{
		detail(1, 2, domain.KindWater, 30, 1, "Alami", 10, "Agdal"),
		detail(2, 3, domain.KindElectricity, 50, 1, "Alami", 10, "Agdal"),
		detail(3, 4, domain.KindWater, 10, 2, "Berrada", 11, "Hassan"),
	}}
	svc := service.NewReportService(store, zap.NewNop())

	report, err := svc.Monthly(context.Background(), 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, 2025, report.Period.Year)
	assert.Equal(t, 6, report.Period.Month)
	assert.Equal(t, 30, report.DaysInMonth)
	assert.Equal(t, 3, report.TotalReadings)

	assert.Equal(t, 2, report.ByKind[domain.KindWater].Readings)
	assert.Equal(t, int64(40), report.ByKind[domain.KindWater].TotalConsumption)
	assert.Equal(t, 1, report.ByKind[domain.KindElectricity].Readings)
	assert.Equal(t, int64(50), report.ByKind[domain.KindElectricity].TotalConsumption)

	require.Len(t, report.ByAgent, 2)
	alami := report.ByAgent[0]
	assert.Equal(t, int64(1), alami.AgentID)
	assert.Equal(t, 2, alami.Readings)
	assert.Equal(t, int64(80), alami.TotalConsumption)
	assert.InDelta(t, 0.07, alami.AvgReadingsPerDay, 1e-9) // round2(2/30)
	require.Len(t, alami.ByZone, 1)
	assert.Equal(t, int64(10), alami.ByZone[0].ZoneID)
	assert.Equal(t, 2, alami.ByZone[0].Readings)

	require.Len(t, report.ByZone, 2)
	agdal := report.ByZone[0]
	assert.Equal(t, "Agdal", agdal.Label)
	assert.Equal(t, 2, agdal.Readings)
	assert.Equal(t, int64(80), agdal.TotalConsumption)
	assert.Equal(t, 1, agdal.ByKind[domain.KindWater].Readings)
}

func TestMonthlyReport_EmptyMonthHasZeroedKinds(t *testing.T) {
	svc := service.NewReportService(&fakeReportStore{}, zap.NewNop())

	report, err := svc.Monthly(context.Background(), 2025, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalReadings)
	assert.Equal(t, 28, report.DaysInMonth)
	require.Contains(t, report.ByKind, domain.KindWater)
	require.Contains(t, report.ByKind, domain.KindElectricity)
	assert.Equal(t, 0, report.ByKind[domain.KindWater].Readings)
	assert.Empty(t, report.ByAgent)
	assert.Empty(t, report.ByZone)
}

func TestMonthlyReport_UnknownKindCountsOnlyInTotals(t *testing.T) {
	store := &fakeReportStore{details: []domain.ReadingDetail{
		detail(1, 2, domain.MeterKind("GAZ"), 25, 1, "Alami", 10, "Agdal"),
	}}
	svc := service.NewReportService(store, zap.NewNop())

	report, err := svc.Monthly(context.Background(), 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalReadings)
	assert.Equal(t, 0, report.ByKind[domain.KindWater].Readings)
	assert.Equal(t, 0, report.ByKind[domain.KindElectricity].Readings)
	require.Len(t, report.ByAgent, 1)
	assert.Equal(t, int64(25), report.ByAgent[0].TotalConsumption)
}

func TestMonthlyReport_ValidatesPeriod(t *testing.T) {
	svc := service.NewReportService(&fakeReportStore{}, zap.NewNop())

	_, err := svc.Monthly(context.Background(), 0, 6)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))

	_, err = svc.Monthly(context.Background(), 2025, 13)
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}

func TestYearlyComparison_BucketsBothYears(t *testing.T) {
	store := &fakeReportStore{totalsByYear: map[int][]domain.MonthKindTotal{
		2025: {
			{Month: 1, Kind: domain.KindWater, Total: 100},
			{Month: 1, Kind: domain.KindElectricity, Total: 200},
			{Month: 3, Kind: domain.KindWater, Total: 50},
		},
		2024: {
			{Month: 12, Kind: domain.KindElectricity, Total: 75},
		},
	}}
	svc := service.NewReportService(store, zap.NewNop())

	cmp, err := svc.YearlyComparison(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, cmp.Year)
	require.Len(t, cmp.Current, 2)
	january := cmp.Current[0]
	assert.Equal(t, 1, january.Month)
	assert.Equal(t, int64(100), january.Water)
	assert.Equal(t, int64(200), january.Electricity)
	assert.Equal(t, int64(300), january.Total)
	assert.Equal(t, 3, cmp.Current[1].Month)

	require.Len(t, cmp.Previous, 1)
	assert.Equal(t, 12, cmp.Previous[0].Month)
	assert.Equal(t, int64(75), cmp.Previous[0].Total)
}

func TestTrends_FitsTrailingWindow(t *testing.T) {
	totals := make([]domain.MonthKindTotal, 0, 12)
	for m := 1; m <= 12; m++ {
		totals = append(totals, domain.MonthKindTotal{Month: m, Kind: domain.KindWater, Total: int64(100 * m)})
	}
	store := &fakeReportStore{totalsByYear: map[int][]domain.MonthKindTotal{2025: totals}}
	svc := service.NewReportService(store, zap.NewNop())

	report, err := svc.Trends(context.Background(), 2025, 0)
	require.NoError(t, err)

	assert.Equal(t, service.DefaultTrendMonths, report.Period.Months)
	require.Len(t, report.Data, service.DefaultTrendMonths)
	assert.Equal(t, 7, report.Data[0].Month) // window keeps the last six months

	assert.Equal(t, service.TrendIncreasing, report.Trends.Total.Classification)
	assert.Equal(t, service.TrendIncreasing, report.Trends.Water.Classification)
	assert.Equal(t, service.TrendStable, report.Trends.Electricity.Classification)
}

func TestTrends_ShortSeriesIsStable(t *testing.T) {
	store := &fakeReportStore{totalsByYear: map[int][]domain.MonthKindTotal{
		2025: {{Month: 4, Kind: domain.KindWater, Total: 500}},
	}}
	svc := service.NewReportService(store, zap.NewNop())

	report, err := svc.Trends(context.Background(), 2025, 6)
	require.NoError(t, err)

	assert.Equal(t, service.TrendStable, report.Trends.Total.Classification)
	assert.Equal(t, 0.0, report.Trends.Total.Slope)
}
