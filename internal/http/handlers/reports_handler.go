package handlers

import (
	"net/http"
	"strconv"

	"metergrid/internal/domain"
	"metergrid/internal/service"
)

func queryInt(r *http.Request, key string) (int, bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err
	}
	return val, true, nil
}

// NewMonthlyReportHandler returns GET /api/reports/monthly.
func NewMonthlyReportHandler(reports *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, ok, err := queryInt(r, "year")
		if !ok || err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "year is required and must be numeric")
			return
		}
		month, ok, err := queryInt(r, "month")
		if !ok || err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "month is required and must be numeric")
			return
		}

		report, err := reports.Monthly(r.Context(), year, month)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// NewYearlyComparisonHandler returns GET /api/reports/yearly-comparison.
func NewYearlyComparisonHandler(reports *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, ok, err := queryInt(r, "year")
		if !ok || err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "year is required and must be numeric")
			return
		}

		comparison, err := reports.YearlyComparison(r.Context(), year)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comparison)
	}
}

// NewTrendsHandler returns GET /api/reports/trends.
func NewTrendsHandler(reports *service.ReportService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, ok, err := queryInt(r, "year")
		if !ok || err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "year is required and must be numeric")
			return
		}
		months, present, err := queryInt(r, "months")
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.KindInvalidInput, "months must be numeric")
			return
		}
		if !present {
			months = service.DefaultTrendMonths
		}

		report, err := reports.Trends(r.Context(), year, months)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
