package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/food-rescue-api/api/swagger"
	"github.com/noah-isme/food-rescue-api/internal/handler"
	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/internal/repository"
	"github.com/noah-isme/food-rescue-api/internal/service"
	"github.com/noah-isme/food-rescue-api/pkg/cache"
	"github.com/noah-isme/food-rescue-api/pkg/config"
	"github.com/noah-isme/food-rescue-api/pkg/database"
	"github.com/noah-isme/food-rescue-api/pkg/export"
	"github.com/noah-isme/food-rescue-api/pkg/geocoder"
	"github.com/noah-isme/food-rescue-api/pkg/jobs"
	"github.com/noah-isme/food-rescue-api/pkg/logger"
)

// @title Food Rescue API
// @version 1.0.0
// @description Donation workflow and proximity matching for surplus food rescue
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient redis.UniversalClient
	if cfg.GeocodeCache.RedisEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, geocode cache stays in-process", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close()

	metricsSvc := service.NewMetricsService()
	sharedCache := service.NewCacheService(cacheRepo, service.GeocodeCachePrefix, cfg.GeocodeCache.TTL, logr, redisClient != nil)

	geoClient := geocoder.New(cfg.Geocoder)
	geoOpts := []service.GeoMatchingOption{
		service.WithGeocodeCache(service.NewGeocodeCache(cfg.GeocodeCache.MaxEntries, sharedCache, cfg.GeocodeCache.TTL)),
		service.WithGeoMetrics(metricsSvc),
	}
	if geoClient.SupportsPlusCodes() {
		geoOpts = append(geoOpts, service.WithPlusCodeDecoder(geoClient))
	}
	geoSvc := service.NewGeoMatchingService(geoClient, service.GeoMatchingConfig{
		BatchSize:  cfg.Geocoder.BatchSize,
		BatchDelay: cfg.Geocoder.BatchDelay,
	}, logr, geoOpts...)

	donationRepo := repository.NewDonationRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	table := service.NewTransitionTable(models.DonationStatus(cfg.Matching.ReofferReentry))
	if string(table.Reentry()) != cfg.Matching.ReofferReentry {
		logr.Warn("unsupported re-offer re-entry status, using default",
			zap.String("configured", cfg.Matching.ReofferReentry), zap.String("using", string(table.Reentry())))
	}

	jobRouter := jobs.NewRouter()
	backfill := jobs.NewQueue("geocode-backfill", jobRouter.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Jobs.GeocodeWorkers,
		MaxRetries: cfg.Jobs.GeocodeRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})

	donationSvc := service.NewDonationService(
		donationRepo,
		candidateRepo,
		notificationRepo,
		geoSvc,
		table,
		backfill,
		metricsSvc,
		validator.New(),
		logr,
		service.DonationServiceConfig{
			VolunteerRadiusKm: cfg.Matching.VolunteerRadiusKm,
			NGORadiusKm:       cfg.Matching.NGORadiusKm,
		},
	)
	jobRouter.Handle(service.JobTypeGeocodeDonation, donationSvc.HandleGeocodeJob)
	backfill.Start(ctx)
	defer backfill.Stop()

	deps := routerDeps{
		cfg:           cfg,
		logger:        logr,
		metrics:       metricsSvc,
		tokens:        service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer),
		donations:     handler.NewDonationHandler(donationSvc),
		notifications: handler.NewNotificationHandler(service.NewNotificationService(notificationRepo, logr)),
		exports:       handler.NewExportHandler(service.NewExportService(donationRepo, logr, export.NewCSVExporter(), export.NewPDFExporter())),
		health: handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
			"postgres": handler.PingFunc(db.PingContext),
			"redis":    cacheRepo,
		}),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
