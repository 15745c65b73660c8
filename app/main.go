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

	"github.com/jdotsteets/fantasy-report-sub002/app/api"
	"github.com/jdotsteets/fantasy-report-sub002/app/cfg"
	"github.com/jdotsteets/fantasy-report-sub002/app/classify"
	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/feed"
	"github.com/jdotsteets/fantasy-report-sub002/app/fetch"
	"github.com/jdotsteets/fantasy-report-sub002/app/filter"
	"github.com/jdotsteets/fantasy-report-sub002/app/ingest"
	"github.com/jdotsteets/fantasy-report-sub002/app/normalize"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting Fantasy Report ingest", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)

	ruleSet, err := filter.LoadRuleSet(appCfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load admission rules", "error", err)
		os.Exit(1)
	}
	engine, err := filter.NewEngine(ruleSet)
	if err != nil {
		slog.Error("Failed to compile admission rules", "error", err)
		os.Exit(1)
	}

	tables, err := classify.LoadTables(appCfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load classifier tables", "error", err)
		os.Exit(1)
	}
	classifier, err := classify.New(tables)
	if err != nil {
		slog.Error("Failed to compile classifier tables", "error", err)
		os.Exit(1)
	}

	sourceRepo := database.NewSourceRepository(db)
	articleRepo := database.NewArticleRepository(db)
	logRepo := database.NewIngestLogRepository(db)

	client := fetch.NewClient(appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.FetchRetries)
	resolver := fetch.NewResolver(client)
	parser := feed.NewParser()
	normalizer := normalize.NewNormalizer()

	orchestrator := ingest.NewOrchestrator(client, resolver, parser, engine,
		normalizer, classifier, sourceRepo, articleRepo, logRepo, appCfg.WorkerCount)

	if appCfg.Oneshot {
		runOneshot(orchestrator, appCfg.ItemCap)
		return
	}

	handler := api.NewHandler(orchestrator, db, articleRepo)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // a full batch runs inside one request
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}

// runOneshot executes a single batch, for cron-style operation.
func runOneshot(orchestrator *ingest.Orchestrator, itemCap int) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := orchestrator.Run(ctx, ingest.Options{ItemCap: itemCap})
	if err != nil {
		slog.Error("Ingest run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Oneshot run complete",
		"discovered", report.Discovered,
		"inserted", report.Inserted,
		"errors", report.Errors,
		"duration", report.Duration.String())
}
