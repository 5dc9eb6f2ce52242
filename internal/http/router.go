package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route endpoints.
type Handlers struct {
	Login            http.HandlerFunc
	ChangePassword   http.HandlerFunc
	RecordReading    http.HandlerFunc
	ListReadings     http.HandlerFunc
	ListAgents       http.HandlerFunc
	ReassignAgent    http.HandlerFunc
	ListMeters       http.HandlerFunc
	CreateMeter      http.HandlerFunc
	UpdateMeter      http.HandlerFunc
	DeleteMeter      http.HandlerFunc
	MonthlyReport    http.HandlerFunc
	YearlyComparison http.HandlerFunc
	Trends           http.HandlerFunc
	DashboardStats   http.HandlerFunc
	Rounds           http.HandlerFunc
	MockBilling      http.HandlerFunc
	Health           http.HandlerFunc
}

// NewRouter registers endpoints. authMW guards everything under /api
// except login and the mock billing receiver.
func NewRouter(h Handlers, authMW func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/mock/billing", h.MockBilling)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Post("/auth/change-password", h.ChangePassword)

			r.Post("/readings", h.RecordReading)
			r.Get("/readings", h.ListReadings)

			r.Get("/agents", h.ListAgents)
			r.Put("/agents/{id}/zone", h.ReassignAgent)

			r.Get("/meters", h.ListMeters)
			r.Post("/meters", h.CreateMeter)
			r.Put("/meters/{serial}", h.UpdateMeter)
			r.Delete("/meters/{serial}", h.DeleteMeter)

			r.Get("/reports/monthly", h.MonthlyReport)
			r.Get("/reports/yearly-comparison", h.YearlyComparison)
			r.Get("/reports/trends", h.Trends)

			r.Get("/dashboard/stats", h.DashboardStats)
			r.Get("/rounds", h.Rounds)
		})
	})

	return r
}
