// Package ingest runs the upload pipeline: quota check, object
// storage, text extraction, chunking, embedding and the transactional
// database write.
package ingest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/internal/types"
	"github.com/pharmintel/core/pkg/processor"
)

const embedBatchSize = 32

type Config struct {
	MaxFileBytes  int64
	FreeTierLimit int
	// Progress is called after each embedded batch. Optional.
	Progress func(done, total int)
}

type Service struct {
	config    Config
	store     types.DocumentStore
	objects   types.ObjectStore
	extractor types.Extractor
	embedder  types.Embedder
	processor *processor.Processor
	logger    *zap.Logger

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

func New(config Config, store types.DocumentStore, objects types.ObjectStore, extractor types.Extractor, embedder types.Embedder, proc *processor.Processor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:    config,
		store:     store,
		objects:   objects,
		extractor: extractor,
		embedder:  embedder,
		processor: proc,
		logger:    logger,
		owners:    make(map[string]*sync.Mutex),
	}
}

// ownerLock serializes ingestions per owner so the quota check cannot
// race with a concurrent upload from the same account.
func (s *Service) ownerLock(ownerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.owners[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		s.owners[ownerID] = lock
	}
	return lock
}

// Ingest runs the full pipeline for one uploaded file and returns the
// stored document along with its chunk count.
func (s *Service) Ingest(ctx context.Context, ownerID, filename, mediaType string, data []byte) (*models.Document, int, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	if s.config.MaxFileBytes > 0 && int64(len(data)) > s.config.MaxFileBytes {
		return nil, 0, apperr.New(apperr.InvalidConfiguration,
			"file exceeds maximum size of %d bytes", s.config.MaxFileBytes)
	}

	if !s.extractor.Supported(mediaType) {
		return nil, 0, apperr.New(apperr.UnsupportedFileType, "unsupported file type %q", mediaType)
	}

	count, err := s.store.CountDocuments(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check document quota: %w", err)
	}
	if s.config.FreeTierLimit > 0 && count >= s.config.FreeTierLimit {
		return nil, 0, apperr.New(apperr.QuotaExceeded,
			"document limit of %d reached", s.config.FreeTierLimit)
	}

	docID := uuid.NewString()
	storagePath, err := s.objects.Store(ctx, fmt.Sprintf("%s/%s/%s", ownerID, docID, filename), data, mediaType)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to store document bytes: %w", err)
	}

	text, pages, err := s.extractor.Extract(data, mediaType)
	if err != nil {
		return nil, 0, s.partial(err, "text extraction failed")
	}

	contents, err := s.processor.ChunkText(text)
	if err != nil {
		return nil, 0, s.partial(err, "chunking failed")
	}
	if len(contents) == 0 {
		return nil, 0, apperr.New(apperr.UnsupportedFileType, "document contains no extractable text")
	}

	embeddings, err := s.embedAll(ctx, contents)
	if err != nil {
		return nil, 0, s.partial(err, "embedding failed")
	}

	doc := models.Document{
		ID:          docID,
		OwnerID:     ownerID,
		Name:        filename,
		MediaType:   mediaType,
		SizeBytes:   int64(len(data)),
		StoragePath: storagePath,
		CreatedAt:   time.Now().UTC(),
	}

	chunks := make([]models.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = models.Chunk{
			DocID:     docID,
			Ordinal:   i,
			PageNo:    pageForChunk(i, len(contents), pages),
			Content:   content,
			Embedding: embeddings[i],
		}
	}

	if err := s.store.InsertDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, 0, s.partial(err, "database write failed")
	}

	s.logger.Info("document ingested",
		zap.String("doc_id", docID),
		zap.String("owner_id", ownerID),
		zap.Int("chunks", len(chunks)),
		zap.Int("pages", pages))

	return &doc, len(chunks), nil
}

func (s *Service) embedAll(ctx context.Context, contents []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(contents))
	for start := 0; start < len(contents); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(contents) {
			end = len(contents)
		}
		batch, err := s.embedder.EmbedTexts(ctx, contents[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
		if s.config.Progress != nil {
			s.config.Progress(end, len(contents))
		}
	}
	return embeddings, nil
}

// partial marks failures that happen after the raw file is already in
// object storage. Errors that carry a specific kind keep it.
func (s *Service) partial(err error, msg string) error {
	if apperr.KindOf(err) != apperr.Internal {
		return err
	}
	return apperr.Wrap(apperr.PartialIngestionFailure, err, "%s", msg)
}

// pageForChunk distributes chunk ordinals evenly across the document's
// pages. The quotient is computed in floating point so short documents
// with many pages still spread across them.
func pageForChunk(ordinal, totalChunks, totalPages int) int {
	if totalChunks <= 0 || totalPages <= 0 {
		return 1
	}
	perPage := float64(totalChunks) / float64(totalPages)
	page := int(math.Floor(float64(ordinal)/perPage)) + 1
	if page > totalPages {
		page = totalPages
	}
	return page
}
