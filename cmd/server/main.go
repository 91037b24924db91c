package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pharmintel/core/pkg/config"
	"github.com/pharmintel/core/pkg/extract"
	"github.com/pharmintel/core/pkg/ingest"
	"github.com/pharmintel/core/pkg/llm"
	"github.com/pharmintel/core/pkg/objstore"
	"github.com/pharmintel/core/pkg/processor"
	"github.com/pharmintel/core/pkg/rag"
	"github.com/pharmintel/core/pkg/scraper"
	"github.com/pharmintel/core/pkg/store"
	"github.com/pharmintel/core/server"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewWithConfig(ctx, store.StoreConfig{
		ConnString: cfg.Database.URL,
		VectorDim:  cfg.Embedder.Dimensions,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	objects, err := objstore.NewS3Store(objstore.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKeyID,
		SecretKey: cfg.Storage.SecretAccessKey,
		PathStyle: cfg.Storage.PathStyle,
	})
	if err != nil {
		return err
	}

	// The embedder is constructed here, up front; a bad embedder config
	// fails the boot instead of the first upload.
	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL:    cfg.Embedder.BaseURL,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Embedder.Dimensions,
	})
	if err != nil {
		return err
	}

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	if err != nil {
		return err
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	})

	ingestSvc := ingest.New(ingest.Config{
		MaxFileBytes:  cfg.Ingest.MaxFileBytes,
		FreeTierLimit: cfg.Ingest.FreeTierLimit,
	}, db, objects, extract.New(), embedder, &proc, logger)

	ragSvc := rag.New(rag.Config{
		Threshold:  cfg.Retrieval.Threshold,
		MaxResults: cfg.Retrieval.MaxResults,
	}, db, embedder,
		llm.NewAnswerEngine(generator, llm.AnswerConfig{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		llm.NewQuizGenerator(generator), logger)

	scanner := scraper.NewWithConfig(scraper.ScannerConfig{
		UserAgent:    cfg.Scraper.UserAgent,
		RequestDelay: cfg.Scraper.RequestDelay,
		Timeout:      cfg.Scraper.Timeout,
		Sources:      cfg.Scraper.Sources,
	}, db, llm.NewChangeSummarizer(generator), logger)

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr,
		IdentityHeader: cfg.Server.IdentityHeader,
		CronSecret:     cfg.Server.CronSecret,
	}, ingestSvc, ragSvc, db, db, scanner, logger)

	httpServer := srv.HTTPServer()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
