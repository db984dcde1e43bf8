package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pavelgurkov/starfeed/backend/internal/config"
	pgrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/postgres"
	redrepo "github.com/pavelgurkov/starfeed/backend/internal/repo/redis"
	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	contentsvc "github.com/pavelgurkov/starfeed/backend/internal/services/content"
	ledgersvc "github.com/pavelgurkov/starfeed/backend/internal/services/ledger"
	premiumsvc "github.com/pavelgurkov/starfeed/backend/internal/services/premium"
	promosvc "github.com/pavelgurkov/starfeed/backend/internal/services/promo"
	ratesvc "github.com/pavelgurkov/starfeed/backend/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	balanceRepo := pgrepo.NewBalanceRepo(pool)
	entitlementRepo := pgrepo.NewEntitlementRepo(pool)
	contentRepo := pgrepo.NewContentRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, cfg.Auth.BotToken)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Stars.SpendRatePerMin, cfg.Stars.SpendRatePer10Sec)
	ledgerService := ledgersvc.NewService(ledgersvc.Dependencies{
		Balances:    balanceRepo,
		Contents:    contentRepo,
		RateLimiter: rateLimiter,
		Logger:      log,
	}, ledgersvc.Config{
		MinWithdrawal: cfg.Stars.MinWithdrawal,
		PrivilegedIDs: cfg.Stars.PrivilegedIDs,
	})
	premiumService := premiumsvc.NewService(entitlementRepo, premiumsvc.Config{
		TrialDuration: cfg.Stars.Premium.TrialDuration,
		TermDuration:  cfg.Stars.Premium.TermDuration,
	})
	promoService := promosvc.NewService(contentRepo)
	contentService := contentsvc.NewService(contentRepo, premiumService)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		LedgerService:  ledgerService,
		PremiumService: premiumService,
		PromoService:   promoService,
		ContentService: contentService,
		Logger:         log,
		Config:         cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
