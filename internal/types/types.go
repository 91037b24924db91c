package types

import (
	"context"

	"github.com/pharmintel/core/internal/models"
)

// Core interfaces consumed by the services. Concrete implementations
// live in pkg/store, pkg/llm, pkg/objstore and pkg/extract; tests swap
// in fakes.

// DocumentStore persists documents and their chunks and runs the
// similarity query scoped to one document.
type DocumentStore interface {
	InsertDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error
	GetDocument(ctx context.Context, id, ownerID string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id, ownerID string) error
	CountDocuments(ctx context.Context, ownerID string) (int, error)
	ListChunks(ctx context.Context, docID string, limit int) ([]models.Chunk, error)
	SearchChunks(ctx context.Context, docID string, embedding []float32, threshold float32, limit int) ([]models.RetrievedChunk, error)
}

// SourceStore persists the change-detection state per monitored URL and
// the alerts raised from it.
type SourceStore interface {
	GetSourceByURL(ctx context.Context, url string) (*models.TrackedSource, error)
	InsertSource(ctx context.Context, src models.TrackedSource) error
	TouchSource(ctx context.Context, url string) error
	UpdateSourceContent(ctx context.Context, url, contentHash, content string) error
	InsertAlert(ctx context.Context, alert models.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]models.Alert, error)
}

// Embedder maps text to fixed-length L2-normalized vectors. Batch
// entries are embedded independently, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Generator is the external text-generation capability: a system
// instruction plus a user prompt produce a completion.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, opts GenerateOptions) (string, error)
}

// GenerateOptions tune one generation call. StreamFunc, when set,
// receives completion fragments as they arrive.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	StreamFunc  func(chunk string) error
}

// ObjectStore writes raw file bytes and returns a storage locator.
// Retrieval is not required by the core.
type ObjectStore interface {
	Store(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Extractor turns raw file bytes into plain text plus a page count.
type Extractor interface {
	Supported(mediaType string) bool
	Extract(data []byte, mediaType string) (text string, pages int, err error)
}
