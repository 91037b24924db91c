package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/pharmintel/core/pkg/config"
	"github.com/pharmintel/core/pkg/extract"
	"github.com/pharmintel/core/pkg/ingest"
	"github.com/pharmintel/core/pkg/llm"
	"github.com/pharmintel/core/pkg/objstore"
	"github.com/pharmintel/core/pkg/processor"
	"github.com/pharmintel/core/pkg/store"
)

// ingest uploads one local file through the full pipeline on behalf of
// a user, mirroring what POST /api/documents does.
func main() {
	_ = godotenv.Load()

	var configPath, filePath, owner string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&filePath, "file", "", "Document to ingest")
	flag.StringVar(&owner, "owner", "", "Owner identity for the document")
	flag.Parse()

	if filePath == "" || owner == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -file <path> -owner <id> [-config <path>]")
		os.Exit(2)
	}

	if err := run(configPath, filePath, owner); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(configPath, filePath, owner string) error {
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

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	ctx := context.Background()

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

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL:    cfg.Embedder.BaseURL,
		Model:      cfg.Embedder.Model,
		Dimensions: cfg.Embedder.Dimensions,
	})
	if err != nil {
		return err
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	})

	var bar *progressbar.ProgressBar
	svc := ingest.New(ingest.Config{
		MaxFileBytes:  cfg.Ingest.MaxFileBytes,
		FreeTierLimit: cfg.Ingest.FreeTierLimit,
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "embedding")
			}
			_ = bar.Set(done)
		},
	}, db, objects, extract.New(), embedder, &proc, logger)

	name := filepath.Base(filePath)
	mediaType := mediaTypeForFile(name)

	color.Cyan("Ingesting %s for %s", name, owner)
	doc, chunks, err := svc.Ingest(ctx, owner, name, mediaType, data)
	if err != nil {
		return err
	}

	color.Green("Stored document %s with %d chunks", doc.ID, chunks)
	return nil
}

func mediaTypeForFile(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	default:
		return "text/plain"
	}
}
