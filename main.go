package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/username/retailrfm/src/config"
	"github.com/username/retailrfm/src/database"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/services"
)

func main() {
	if err := run(); err != nil {
		logger.L.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()

	stage := flag.String("stage", services.StageAll, "pipeline stage to run: clean, rfm, report or all")
	flag.StringVar(&cfg.InputCSV, "input", cfg.InputCSV, "raw transaction export (CSV)")
	outputDir := flag.String("output", cfg.OutputDir, "directory for CSV reports")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite artifact store (default: pipeline.db in the output directory)")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.SetDatabasePath(*dbPath)
		case "output":
			cfg.SetOutputDir(*outputDir)
		}
	})

	if err := logger.InitLogger(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		stdlog.Printf("Failed to open log file %s: %v", cfg.LogFile, err)
		return err
	}
	logger.L.Info("Retail RFM pipeline starting...", "stage", *stage, "input", cfg.InputCSV, "outputDir", cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	var publisher services.RFMPublisher
	if cfg.PostgresURL != "" {
		pg, err := database.NewPostgresPublisher(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("postgres publisher: %w", err)
		}
		defer pg.Close()
		if err := pg.CreateTables(ctx); err != nil {
			return err
		}
		publisher = pg
	}

	pipeline, err := services.NewPipelineService(cfg, store, publisher)
	if err != nil {
		return err
	}

	results, err := pipeline.Run(ctx, *stage)
	if err != nil {
		return err
	}
	for _, res := range results {
		logger.L.Info("Stage complete", "stage", res.Stage, "runID", res.RunID,
			"rowsIn", res.RowsIn, "rowsOut", res.RowsOut, "duration", res.Duration, "outputs", res.Outputs)
	}
	return nil
}
