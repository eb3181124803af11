// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"clickguard/internal/config"
	"clickguard/internal/handler"
	"clickguard/internal/metrics"
	"clickguard/internal/repository"
	"clickguard/internal/service"
	"clickguard/pkg/database"
	"clickguard/pkg/logger"
	"clickguard/pkg/middleware"
	"clickguard/pkg/redis"
)

const serviceName = "clickguard"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		bootstrap := logger.NewLogger(serviceName)
		bootstrap.Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
		Level:       cfg.Log.Level,
		FilePath:    cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    true,
	})
	defer log.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL, database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, repository.Schema); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		log.Info("database schema up to date")
	}

	// Initialize redis; lookups fall through to postgres while it is down
	redisClient, err := redis.NewRedisClientFromURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal("invalid redis configuration", zap.Error(err))
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx); err != nil {
		log.Warn("redis unavailable, caches degraded", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(db.DB)
	pageViewRepo := repository.NewPageViewRepository(db.DB)
	clickRepo := repository.NewClickRepository(db.DB)
	siteRepo := repository.NewSiteRepository(db.DB)
	statsRepo := repository.NewStatsRepository(db.DB)

	breaker := repository.NewBreakerStore(repository.NewSignalRepository(db.DB), repository.DefaultBreakerSettings(), m, log)
	signals := repository.NewBlacklistCache(breaker, redisClient, 5*time.Minute, 30*time.Second, m, log)
	signals.StartCleanup(ctx, time.Minute)

	decisions, mongoClient := connectDecisionLog(ctx, cfg, log)
	if mongoClient != nil {
		defer mongoClient.Disconnect(context.Background())
	}

	var geo service.GeoLocator
	if cfg.GeoIP.Enabled {
		geo = service.NewGeoIPClient(cfg.GeoIP.BaseURL, cfg.Fraud.HomeCountry, cfg.GeoIP.Timeout, cfg.GeoIP.CacheTTL, redisClient, m, log)
	}

	// Initialize services
	rules := service.DefaultRules().WithHomeCountry(cfg.Fraud.HomeCountry)
	engine := service.NewFraudEngine(signals, rules, log, service.WithMetrics(m))

	sessionService := service.NewSessionService(sessionRepo, siteRepo, engine.Blacklist(), geo, m, log)
	pageViewService := service.NewPageViewService(sessionRepo, siteRepo, pageViewRepo, m, log)
	clickService := service.NewClickService(engine, signals, sessionRepo, siteRepo, clickRepo, decisions, m, log)
	statsService := service.NewStatsService(statsRepo, siteRepo, cfg.Fraud.AverageCPC)
	siteService := service.NewSiteService(siteRepo, log)

	// Initialize handlers
	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("failed to register validators", zap.Error(err))
	}

	handlers := routeHandlers{
		tracking:  handler.NewTrackingHandler(sessionService, pageViewService, clickService, log),
		fraud:     handler.NewFraudHandler(engine, clickService, statsService, log),
		blacklist: handler.NewBlacklistHandler(engine.Blacklist(), m, log),
		sites:     handler.NewSiteHandler(siteService, log),
		health: handler.NewHealthHandler(serviceName, map[string]handler.Pinger{
			"postgres": db.PingContext,
			"redis":    redisClient.Ping,
		}),
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiter.StartCleanup(ctx, 5*time.Minute)

	router, err := setupRouter(cfg, handlers, limiter, log)
	if err != nil {
		log.Fatal("failed to configure router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting clickguard service",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("home_country", rules.HomeCountry))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// connectDecisionLog opens the MongoDB audit log. Scoring runs without it
// when MongoDB is unreachable.
func connectDecisionLog(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.DecisionLog, *mongo.Client) {
	if cfg.Mongo.URI == "" {
		log.Info("decision log disabled")
		return nil, nil
	}

	client, err := database.NewMongoClient(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Warn("mongodb unavailable, decision log disabled", zap.Error(err))
		return nil, nil
	}

	decisionLog := repository.NewDecisionLog(client.Database(cfg.Mongo.Database))
	if err := decisionLog.EnsureIndexes(ctx); err != nil {
		log.Warn("failed to ensure decision log indexes", zap.Error(err))
	}

	return decisionLog, client
}
