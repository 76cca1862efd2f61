// Package main provides the main entry point for the ads SDK backend
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ads-sdk/backend/app/handlers"
	"github.com/ads-sdk/backend/app/router"
	businessflow "github.com/ads-sdk/backend/business_flow"
	"github.com/ads-sdk/backend/config"
	"github.com/ads-sdk/backend/models"
	"github.com/ads-sdk/backend/repository"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	log.Println("Starting ads SDK backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := migrateDatabase(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	r := buildRouter(db, cfg)
	r.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := r.Start(cfg.Server.ListenAddress()); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := r.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger through a rotating file when
// configured, keeping stdout for local development.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// migrateDatabase brings the schema up to date
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Ad{},
		&models.RegisteredApp{},
		&models.RunningAd{},
	)
}

// buildRouter wires repositories, flows and handlers into the HTTP router
func buildRouter(db *gorm.DB, cfg *config.Config) router.Router {
	adRepo := repository.NewAdRepository(db)
	appRepo := repository.NewRegisteredAppRepository(db)
	runningRepo := repository.NewRunningAdRepository(db)

	adFlow := businessflow.NewAdFlow(adRepo, db)
	registerFlow := businessflow.NewRegisterAppFlow(appRepo, adRepo, runningRepo, db)
	runningFlow := businessflow.NewRunningAdFlow(runningRepo, adRepo, appRepo, db)

	adHandler := handlers.NewAdHandler(adFlow, cfg.Upload)
	registerHandler := handlers.NewRegisterAppHandler(registerFlow)
	runningAdHandler := handlers.NewRunningAdHandler(runningFlow)

	return router.NewFiberRouter(adHandler, registerHandler, runningAdHandler, cfg)
}
