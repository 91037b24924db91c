package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pharmintel/core/pkg/config"
	"github.com/pharmintel/core/pkg/llm"
	"github.com/pharmintel/core/pkg/scraper"
	"github.com/pharmintel/core/pkg/store"
)

// scan runs one change-detection cycle over the configured regulatory
// sources and prints the outcome.
func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "config: %s: %s\n", p.Field, p.Message)
		}
		return errors.New("invalid configuration")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := store.NewWithConfig(ctx, store.StoreConfig{
		ConnString: cfg.Database.URL,
		VectorDim:  cfg.Embedder.Dimensions,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return err
	}

	scanner := scraper.NewWithConfig(scraper.ScannerConfig{
		UserAgent:    cfg.Scraper.UserAgent,
		RequestDelay: cfg.Scraper.RequestDelay,
		Timeout:      cfg.Scraper.Timeout,
		Sources:      cfg.Scraper.Sources,
		OnProgress: func(url string) {
			color.Cyan("Checking %s", url)
		},
	}, db, llm.NewChangeSummarizer(generator), logger)

	report, err := scanner.ScanAll(ctx)
	if err != nil {
		return err
	}

	color.Green("Scan complete: %d checked, %d changed, %d failed",
		report.Checked, report.ChangesDetected, report.Failed)

	if report.ChangesDetected > 0 {
		alerts, err := db.ListAlerts(ctx, report.ChangesDetected)
		if err != nil {
			return err
		}
		for _, alert := range alerts {
			color.Yellow("%s: %s", alert.Title, alert.Summary)
		}
	}

	return nil
}
