package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leafsii/blog-backend/internal/api"
	"github.com/leafsii/blog-backend/internal/config"
	gdb "github.com/leafsii/blog-backend/internal/db"
	"github.com/leafsii/blog-backend/internal/log"
	"github.com/leafsii/blog-backend/internal/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting Blog API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"db_type", cfg.Database.Type,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("blog-api", nil)
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Initialize database and apply the schema before accepting requests
	db, err := gdb.NewDatabase(&gdb.Config{
		Type:         cfg.Database.Type,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		logger.Fatalw("Invalid database configuration", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gdb.ConnectAndMigrate(ctx, db); err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	logger.Infow("Database initialized", "type", cfg.Database.Type)

	if cfg.Database.Seed {
		n, err := gdb.Seed(ctx, db)
		if err != nil {
			logger.Fatalw("Failed to seed database", "error", err)
		}
		logger.Infow("Database seeded", "records", n)
	}

	// Setup API handler and middleware
	handler := api.NewHandler(db, logger, metricsObj)
	middleware := api.NewMiddleware(logger, metricsObj)

	router := handler.Routes(middleware, api.RouteOptions{
		CORSOrigins:    cfg.Security.CORSAllowedOrigins,
		RateLimitRPM:   cfg.Security.RateLimitRPM,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsHandler: metricsHandler,
	})

	// Log configured CORS origins for easier debugging in dev
	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Server startup failed", "error", err)
		}
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests time to complete
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}

	if err := db.Disconnect(context.Background()); err != nil {
		logger.Errorw("Failed to close database", "error", err)
	}
}
