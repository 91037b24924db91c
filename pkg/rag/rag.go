// Package rag composes retrieval and generation: embed the question,
// search the document's chunks, answer from the retrieved context.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/internal/types"
	"github.com/pharmintel/core/pkg/llm"
)

const quizChunkLimit = 20

type Config struct {
	// Threshold is the minimum cosine similarity for a chunk to count
	// as relevant.
	Threshold  float32
	MaxResults int
}

type Service struct {
	config   Config
	store    types.DocumentStore
	embedder types.Embedder
	answers  *llm.AnswerEngine
	quizzes  *llm.QuizGenerator
	logger   *zap.Logger
}

func New(config Config, store types.DocumentStore, embedder types.Embedder, answers *llm.AnswerEngine, quizzes *llm.QuizGenerator, logger *zap.Logger) *Service {
	if config.Threshold == 0 {
		config.Threshold = 0.5
	}
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:   config,
		store:    store,
		embedder: embedder,
		answers:  answers,
		quizzes:  quizzes,
		logger:   logger,
	}
}

// Ask answers a question grounded in one document. Ownership is checked
// first; retrieval never crosses document boundaries.
func (s *Service) Ask(ctx context.Context, docID, ownerID, question string) (*models.Answer, error) {
	chunks, err := s.retrieve(ctx, docID, ownerID, question)
	if err != nil {
		return nil, err
	}
	return s.answers.Answer(ctx, question, chunks)
}

// AskStream is Ask with the answer tokens delivered through fn as they
// arrive.
func (s *Service) AskStream(ctx context.Context, docID, ownerID, question string, fn func(chunk string) error) (*models.Answer, error) {
	chunks, err := s.retrieve(ctx, docID, ownerID, question)
	if err != nil {
		return nil, err
	}
	return s.answers.AnswerStream(ctx, question, chunks, fn)
}

func (s *Service) retrieve(ctx context.Context, docID, ownerID, question string) ([]models.RetrievedChunk, error) {
	if _, err := s.store.GetDocument(ctx, docID, ownerID); err != nil {
		return nil, err
	}

	embedding, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.SearchChunks(ctx, docID, embedding, s.config.Threshold, s.config.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	s.logger.Debug("retrieval finished",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)))

	return chunks, nil
}

// Quiz generates multiple-choice questions from the leading chunks of
// the document.
func (s *Service) Quiz(ctx context.Context, docID, ownerID string, count int) ([]models.QuizQuestion, error) {
	if _, err := s.store.GetDocument(ctx, docID, ownerID); err != nil {
		return nil, err
	}

	chunks, err := s.store.ListChunks(ctx, docID, quizChunkLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, apperr.New(apperr.NotFound, "document %s has no content", docID)
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}

	return s.quizzes.Generate(ctx, strings.Join(parts, "\n\n"), count)
}
