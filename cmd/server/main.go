// @title           Loyalty System API
// @version         1.0
// @description     Points, milestones and rewards for a restaurant loyalty program.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	_ "github.com/myrewards/loyalty-system/docs"
	"github.com/myrewards/loyalty-system/internal/api"
	"github.com/myrewards/loyalty-system/internal/api/handler"
	"github.com/myrewards/loyalty-system/internal/core/policy"
	"github.com/myrewards/loyalty-system/internal/core/service"
	mongodb "github.com/myrewards/loyalty-system/internal/infrastructure/db/mongo"
	redisdb "github.com/myrewards/loyalty-system/internal/infrastructure/db/redis"
	"github.com/myrewards/loyalty-system/internal/infrastructure/queue"
	"github.com/myrewards/loyalty-system/internal/infrastructure/scheduler"
	"github.com/myrewards/loyalty-system/internal/pkg/config"
	"github.com/myrewards/loyalty-system/pkg/logger"
)

const (
	serviceName     = "loyalty-system"
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := config.LoadMilestones(cfg.MilestonesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.MilestonesFile).Msg("invalid milestone table")
	}
	log.Info().Int("milestones", table.Len()).Int("final_threshold", table.Final().Threshold).Msg("milestone table loaded")

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	repos := mongodb.NewRepositories(db)
	if err := repos.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	authService := service.NewAuthService(
		repos.Credentials, repos.Profiles, repos.Claims,
		service.AuthConfig{JWTSecret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer, TokenTTL: cfg.Auth.TokenTTL},
		logger.Component("auth"),
	)
	loyaltyService := service.NewLoyaltyService(
		table, repos.Profiles, repos.Scans,
		redisdb.NewScanDedup(rdb, cfg.Scan.DedupTTL),
		logger.Component("loyalty"),
	)
	reportService := service.NewReportService(
		table, repos.Profiles, repos.Scans,
		cfg.Report.WindowDays, cfg.Report.Location(),
		logger.Component("report"),
	)

	dispatcher := queue.NewDispatcher(cfg.Scan.Workers, cfg.Scan.Timeout, loyaltyService, logger.Component("dispatcher"))
	// outlives the signal context so scans in flight during Shutdown still reply
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	dispatcher.Start(dispatchCtx)

	sched, err := scheduler.NewReportJob(reportService, cfg.Report.RefreshInterval, logger.Component("scheduler")).Start(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer func() { _ = sched.Shutdown() }()

	e := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Loyalty:   loyaltyService,
		Scanner:   dispatcher,
		Reports:   reportService,
		Resolver:  policy.NewResolver(policy.DefaultRoutes()),
		JWTSecret: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error {
				return mongoClient.Ping(ctx, readpref.Primary())
			}),
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		},
		Log: logger.Component("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	stopDispatch()
}
