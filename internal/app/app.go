package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"metergrid/internal/cache"
	"metergrid/internal/clients"
	"metergrid/internal/config"
	"metergrid/internal/db"
	httpserver "metergrid/internal/http"
	"metergrid/internal/http/handlers"
	"metergrid/internal/http/middleware"
	"metergrid/internal/password"
	"metergrid/internal/repository"
	"metergrid/internal/service"
)

// App wires the service dependency graph.
type App struct {
	server      *httpserver.Server
	pool        *sql.DB
	redisClient *redis.Client
	ledger      *service.LedgerService
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// Redis is optional: without it the dashboard recomputes on every
	// request.
	var (
		redisClient *redis.Client
		statsCache  service.StatsCache
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			pool.Close()
			return nil, err
		}
		statsCache = cache.NewStore(redisClient, cfg.StatsCacheTTL())
	}

	meterRepo := repository.NewMeterRepository(pool)
	readingRepo := repository.NewReadingRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	zoneRepo := repository.NewZoneRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	loginLogRepo := repository.NewLoginLogRepository(pool)

	billingClient := clients.NewBillingClient(cfg.Billing.BaseURL, cfg.BillingTimeout(), logger)

	ledgerService := service.NewLedgerService(meterRepo, readingRepo, billingClient, cfg.BillingTimeout(), logger)
	allocationService := service.NewAllocationService(agentRepo, zoneRepo, addressRepo, cfg.Limits.AddressesPerAgent, logger)
	reportService := service.NewReportService(readingRepo, logger)
	dashboardService := service.NewDashboardService(meterRepo, readingRepo, statsCache, nil, logger)
	meterService := service.NewMeterService(meterRepo, cfg.Limits.MaxMetersPerAddress, logger)
	roundsService := service.NewRoundsService(agentRepo, meterRepo, nil)

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	authService := service.NewAuthService(userRepo, loginLogRepo, hasher, tokenService, logger)

	routes := httpserver.Handlers{
		Login:            handlers.NewLoginHandler(authService),
		ChangePassword:   handlers.NewChangePasswordHandler(authService),
		RecordReading:    handlers.NewRecordReadingHandler(ledgerService),
		ListReadings:     handlers.NewListReadingsHandler(ledgerService),
		ListAgents:       handlers.NewListAgentsHandler(allocationService),
		ReassignAgent:    handlers.NewReassignAgentHandler(allocationService),
		ListMeters:       handlers.NewListMetersHandler(meterService),
		CreateMeter:      handlers.NewCreateMeterHandler(meterService),
		UpdateMeter:      handlers.NewUpdateMeterHandler(meterService),
		DeleteMeter:      handlers.NewDeleteMeterHandler(meterService),
		MonthlyReport:    handlers.NewMonthlyReportHandler(reportService),
		YearlyComparison: handlers.NewYearlyComparisonHandler(reportService),
		Trends:           handlers.NewTrendsHandler(reportService),
		DashboardStats:   handlers.NewDashboardStatsHandler(dashboardService),
		Rounds:           handlers.NewRoundsHandler(roundsService),
		MockBilling:      handlers.NewMockBillingHandler(logger),
		Health:           handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokenService))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		pool:        pool,
		redisClient: redisClient,
		ledger:      ledgerService,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources after draining in-flight billing
// notifications.
func (a *App) Close() {
	a.ledger.Flush()
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
