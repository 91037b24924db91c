package llm

import (
	"context"
	"fmt"

	"github.com/pharmintel/core/internal/types"
)

const changeContentCap = 3000

// ChangeSummarizer produces a natural-language summary of a regulatory
// page change.
type ChangeSummarizer struct {
	generator types.Generator
}

func NewChangeSummarizer(generator types.Generator) *ChangeSummarizer {
	return &ChangeSummarizer{generator: generator}
}

// SummarizeChange compares the previous and current versions of a
// page's content. oldContent may be empty for a source whose prior
// content was never captured.
func (s *ChangeSummarizer) SummarizeChange(ctx context.Context, oldContent, newContent string) (string, error) {
	prompt := fmt.Sprintf(`Compare these two versions of a regulatory document and summarize what changed.

Old version:
%s

New version:
%s

Summary of changes:`, truncateRunes(oldContent, changeContentCap), truncateRunes(newContent, changeContentCap))

	return s.generator.Generate(ctx, "", prompt, types.GenerateOptions{
		Temperature: 0.3,
		MaxTokens:   500,
	})
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
