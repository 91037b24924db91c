package processor

import (
	"strings"

	"github.com/pharmintel/core/internal/apperr"
)

type ProcessorConfig struct {
	ChunkSize    int // target window length in words
	ChunkOverlap int // words shared between consecutive windows
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 500
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 50
	}

	return Processor{
		config: config,
	}
}

// ChunkText splits text into overlapping word-count windows starting at
// 0, size-overlap, 2*(size-overlap), ... until every word is consumed.
// The final window may be shorter. Pure function; empty input yields no
// chunks, non-empty input yields at least one.
func (p *Processor) ChunkText(text string) ([]string, error) {
	return ChunkText(text, p.config.ChunkSize, p.config.ChunkOverlap)
}

func ChunkText(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, apperr.New(apperr.InvalidConfiguration, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, apperr.New(apperr.InvalidConfiguration, "chunk overlap must be non-negative, got %d", overlap)
	}
	// overlap >= size would never advance the window.
	if overlap >= size {
		return nil, apperr.New(apperr.InvalidConfiguration, "chunk overlap %d must be less than chunk size %d", overlap, size)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	step := size - overlap
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks, nil
}

// CleanText collapses all runs of whitespace to single spaces.
func CleanText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
