package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/mentorhub/internal/config"
	httpserver "github.com/tendant/mentorhub/internal/http"
	"github.com/tendant/mentorhub/pkg/repository"
	"github.com/tendant/mentorhub/pkg/tenantpool"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.DevMode {
		logger.Warn("development mode enabled: tenant resolution is bypassed", "dev_tenant_id", cfg.DevTenantID)
	}

	// Connect to the platform database (tenant registry)
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to platform database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to platform database")

	tenantsRepo := repository.NewTenantsRepository(db)

	// Initialize the tenant connection pool and its idle reaper
	pool := tenantpool.New(tenantpool.Config{
		MaxPoolSize:    cfg.Pool.MaxConns,
		IdleTimeout:    cfg.Pool.IdleTimeout,
		AcquireTimeout: cfg.Pool.AcquireTimeout,
		Logger:         logger,
	})
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	pool.StartReaper(reaperCtx, cfg.Pool.ReapInterval)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:   logger,
		Registry: tenantsRepo,
		Pool:     pool,
		TenantDefaults: tenantpool.Defaults{
			Host:     cfg.TenantDBHost,
			Port:     cfg.TenantDBPort,
			User:     cfg.TenantDBUser,
			Password: cfg.TenantDBPassword,
			SSLMode:  cfg.TenantDBSSLMode,
		},
		ExcludedPaths:      cfg.ExcludedPaths,
		DevMode:            cfg.DevMode,
		DevTenantID:        cfg.DevTenantID,
		RateLimit:          cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.Validation.MaxRequestBodySize,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop the reaper before draining so no tick races the close sweep,
	// then close every remaining tenant handle within a bounded grace
	// period.
	stopReaper()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := pool.Shutdown(drainCtx); err != nil {
		logger.Error("tenant pool shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
