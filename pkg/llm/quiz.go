package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/internal/types"
)

const quizDocumentCap = 6000

// QuizGenerator produces ephemeral multiple-choice questions from
// document text. Model output must be a strict JSON array; anything
// malformed fails closed with an error rather than being pattern-matched
// back into shape.
type QuizGenerator struct {
	generator types.Generator
}

func NewQuizGenerator(generator types.Generator) *QuizGenerator {
	return &QuizGenerator{generator: generator}
}

func quizPrompt(documentText string, numQuestions int) string {
	return fmt.Sprintf(`Generate %d multiple-choice questions from this pharmaceutical document.

Format as JSON array:
[
  {
    "question": "Question text",
    "options": ["A) option1", "B) option2", "C) option3", "D) option4"],
    "correct": "A",
    "explanation": "Brief explanation"
  }
]

Document:
%s

Questions (JSON only):`, numQuestions, truncateRunes(documentText, quizDocumentCap))
}

// Generate requests numQuestions questions over documentText.
func (q *QuizGenerator) Generate(ctx context.Context, documentText string, numQuestions int) ([]models.QuizQuestion, error) {
	if numQuestions <= 0 {
		numQuestions = 10
	}

	raw, err := q.generator.Generate(ctx, "", quizPrompt(documentText, numQuestions), types.GenerateOptions{
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	return ParseQuiz(raw)
}

// ParseQuiz decodes the model output with a strict schema: unknown
// fields, trailing data, wrong option counts or an out-of-range correct
// key are all rejected.
func ParseQuiz(raw string) ([]models.QuizQuestion, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var questions []models.QuizQuestion
	if err := dec.Decode(&questions); err != nil {
		return nil, fmt.Errorf("malformed quiz output: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("malformed quiz output: trailing data after JSON array")
	}

	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("malformed quiz output: question %d is empty", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("malformed quiz output: question %d has %d options, want 4", i, len(q.Options))
		}
		switch q.Correct {
		case "A", "B", "C", "D":
		default:
			return nil, fmt.Errorf("malformed quiz output: question %d correct key %q not in A-D", i, q.Correct)
		}
	}

	return questions, nil
}

// stripCodeFence removes a single surrounding markdown code fence if the
// whole payload is wrapped in one.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[idx+1:]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}
