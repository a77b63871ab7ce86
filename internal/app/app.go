package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/gridpool/pickem-league/internal/config"
	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/infrastructure/account/poolpay"
	"github.com/gridpool/pickem-league/internal/infrastructure/repository/memory"
	"github.com/gridpool/pickem-league/internal/infrastructure/repository/postgres"
	"github.com/gridpool/pickem-league/internal/interfaces/httpapi"
	"github.com/gridpool/pickem-league/internal/platform/cache"
	idgen "github.com/gridpool/pickem-league/internal/platform/id"
	"github.com/gridpool/pickem-league/internal/platform/logging"
	"github.com/gridpool/pickem-league/internal/platform/resilience"
	"github.com/gridpool/pickem-league/internal/usecase"
)

// Application bundles the HTTP server with the resources it owns.
type Application struct {
	Server *http.Server
	// DB is nil when the service runs on the in-memory fixtures.
	DB *sqlx.DB
}

func NewApplication(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		contestRepo    contest.Repository
		pickRepo       pick.Repository
		guestRepo      guestpick.Repository
		precedenceRepo precedence.Repository
		db             *sqlx.DB
	)

	if strings.TrimSpace(cfg.DBURL) != "" {
		var err error
		db, err = openDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		contestRepo = postgres.NewContestRepository(db)
		pickRepo = postgres.NewPickRepository(db)
		guestRepo = postgres.NewGuestPickRepository(db)
		precedenceRepo = postgres.NewPrecedenceRepository(db)
	} else {
		logger.Warn("DB_URL is empty, using in-memory fixtures")
		contestMem := memory.NewContestRepository(memory.SeedContests())
		pickMem := memory.NewPickRepository(memory.SeedPicks())
		guestMem := memory.NewGuestPickRepository(memory.SeedGuestPicks())
		contestRepo = contestMem
		pickRepo = pickMem
		guestRepo = guestMem
		precedenceRepo = memory.NewPrecedenceRepository(pickMem, guestMem)
	}

	poolPayClient := poolpay.NewClient(
		&http.Client{Timeout: cfg.PoolPayTimeout},
		cfg.PoolPayBaseURL,
		cfg.PoolPayAPIKey,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.PoolPayCircuitEnabled,
			FailureThreshold: cfg.PoolPayCircuitFailureCount,
			OpenTimeout:      cfg.PoolPayCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PoolPayCircuitHalfOpenReq,
		},
		cfg.PoolPayTokenCacheTTL,
		logger,
	)

	var standingsCache *cache.Store
	if cfg.CacheEnabled {
		standingsCache = cache.NewStore(cfg.CacheTTL)
	}

	standingsSvc := usecase.NewStandingsService(pickRepo, guestRepo, poolPayClient, standingsCache, logger)
	precedenceSvc := usecase.NewPrecedenceService(pickRepo, guestRepo, precedenceRepo, standingsSvc, logger)
	pickSvc := usecase.NewPickService(contestRepo, pickRepo, precedenceSvc, idgen.NewRandomGenerator(), logger)
	guestSvc := usecase.NewGuestService(contestRepo, guestRepo, precedenceRepo, standingsSvc, idgen.NewRandomGenerator(), logger)
	outcomeSvc := usecase.NewOutcomeService(contestRepo, logger)
	resolverSvc := usecase.NewResolverService(contestRepo, pickRepo, guestRepo, cfg.ResolveChunkSize, cfg.ResolveChunkPause, logger)
	ingestionSvc := usecase.NewIngestionService(contestRepo, outcomeSvc, resolverSvc, standingsSvc, logger)
	batchSvc := usecase.NewBatchService(contestRepo, outcomeSvc, resolverSvc, standingsSvc, logger)

	handler := httpapi.NewHandler(pickSvc, guestSvc, standingsSvc, precedenceSvc, ingestionSvc, batchSvc, logger)
	router := httpapi.NewRouter(handler, poolPayClient, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &Application{Server: server, DB: db}, nil
}

// Close releases resources held by the application.
func (a *Application) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}

	return a.DB.Close()
}
