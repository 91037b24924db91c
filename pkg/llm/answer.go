package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/internal/types"
)

const (
	answerSystemPrompt = "You are a helpful pharmaceutical documentation assistant. Be concise and accurate."

	// NotFoundAnswer is the fixed response when retrieval returns no
	// chunks. Returning it is not an error.
	NotFoundAnswer = "No relevant information found in the document."

	snippetLength = 150
)

type AnswerConfig struct {
	Temperature float64
	MaxTokens   int
}

// AnswerEngine grounds answers in retrieved chunks: it builds a context
// block with page markers and instructs the model to answer from that
// context only, citing pages.
type AnswerEngine struct {
	generator types.Generator
	config    AnswerConfig
}

func NewAnswerEngine(generator types.Generator, config AnswerConfig) *AnswerEngine {
	if config.Temperature == 0 {
		config.Temperature = 0.3
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 1024
	}

	return &AnswerEngine{
		generator: generator,
		config:    config,
	}
}

// BuildContext concatenates chunk texts with page markers, preserving
// retrieval order.
func BuildContext(chunks []models.RetrievedChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[Page %d]\n%s", c.PageNo, c.Content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func answerPrompt(question, contextBlock string) string {
	return fmt.Sprintf(`You are a pharmaceutical document assistant.

Answer the question ONLY using the provided context below.
If the answer is not found in the context, say "Not found in document".
Always cite page numbers when available.

Context:
%s

Question: %s

Answer:`, contextBlock, question)
}

// Answer produces a grounded answer for the question. With no retrieved
// chunks, generation is skipped and the fixed not-found response is
// returned with an empty source list.
func (a *AnswerEngine) Answer(ctx context.Context, question string, chunks []models.RetrievedChunk) (*models.Answer, error) {
	return a.answer(ctx, question, chunks, nil)
}

// AnswerStream behaves like Answer but also delivers completion
// fragments to fn as they arrive. The not-found response is delivered
// through fn as well so callers see a uniform stream.
func (a *AnswerEngine) AnswerStream(ctx context.Context, question string, chunks []models.RetrievedChunk, fn func(chunk string) error) (*models.Answer, error) {
	return a.answer(ctx, question, chunks, fn)
}

func (a *AnswerEngine) answer(ctx context.Context, question string, chunks []models.RetrievedChunk, fn func(string) error) (*models.Answer, error) {
	if len(chunks) == 0 {
		if fn != nil {
			if err := fn(NotFoundAnswer); err != nil {
				return nil, err
			}
		}
		return &models.Answer{
			Answer:  NotFoundAnswer,
			Sources: []models.AnswerSource{},
		}, nil
	}

	text, err := a.generator.Generate(ctx, answerSystemPrompt, answerPrompt(question, BuildContext(chunks)), types.GenerateOptions{
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		StreamFunc:  fn,
	})
	if err != nil {
		return nil, err
	}

	sources := make([]models.AnswerSource, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, models.AnswerSource{
			Page:       c.PageNo,
			Similarity: c.Similarity,
			Snippet:    snippet(c.Content),
		})
	}

	return &models.Answer{
		Answer:  text,
		Sources: sources,
	}, nil
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength]) + "..."
}
