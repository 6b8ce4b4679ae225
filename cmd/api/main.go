// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/config"
	"github.com/your-org/cart-sync/internal/domain/catalog"
	"github.com/your-org/cart-sync/internal/domain/remotecart"
	"github.com/your-org/cart-sync/internal/infrastructure/database/postgres"
	"github.com/your-org/cart-sync/internal/infrastructure/database/redis"
	"github.com/your-org/cart-sync/internal/interfaces/http"
	"github.com/your-org/cart-sync/internal/pkg/logger"
	"github.com/your-org/cart-sync/internal/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	log.Info("Starting cart API")

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint, cfg.App.Name, cfg.App.Version)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize tracer")
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.App.Name, cfg.App.Version)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize metrics")
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	deps := http.Dependencies{Metrics: metricsHandler}

	// Catalog
	switch cfg.Server.CatalogProvider {
	case "postgres":
		db, err := postgres.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Health(ctx); err != nil {
			log.WithError(err).Fatal("Database health check failed")
		}

		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
		// Seed demo data in development
		if cfg.IsDevelopment() {
			if err := migration.SeedProducts(catalog.DemoProducts()); err != nil {
				log.WithError(err).Warn("Catalog seeding failed")
			}
		}

		deps.Catalog = catalog.NewGormRepository(db.GetDB())
		deps.Checks = append(deps.Checks, http.HealthCheck{Name: "database", Check: db.Health})
	default:
		deps.Catalog = catalog.NewMemoryRepository(catalog.DemoProducts())
	}

	// Session carts
	var carts remotecart.Repository
	switch cfg.Server.CartStore {
	case "memory":
		carts = remotecart.NewMemoryRepository(cfg.Server.CartTTL)
	default:
		redisClient, err := redis.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()

		carts = remotecart.NewRedisRepository(redisClient.GetClient(), cfg.Server.CartTTL)
		deps.Redis = redisClient.GetClient()
		deps.Checks = append(deps.Checks, http.HealthCheck{Name: "redis", Check: redisClient.Health})
	}
	deps.Carts = remotecart.NewService(carts, deps.Catalog, log)

	log.WithFields(logrus.Fields{
		"catalog": cfg.Server.CatalogProvider,
		"carts":   cfg.Server.CartStore,
	}).Info("All systems operational")

	server := http.NewServer(cfg, deps, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
		return
	case <-quit:
	}

	log.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
