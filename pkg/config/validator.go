package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "LLM base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Embedder.Dimensions < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.dimensions",
			Message: "dimensions must be positive",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Ingest.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "ingest.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Ingest.MaxFileBytes < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.max_file_bytes",
			Message: "max_file_bytes must be positive",
		})
	}

	if c.Ingest.FreeTierLimit < 1 {
		errors = append(errors, ValidationError{
			Field:   "ingest.free_tier_limit",
			Message: "free_tier_limit must be positive",
		})
	}

	if c.Retrieval.Threshold < -1 || c.Retrieval.Threshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.threshold",
			Message: "threshold must be a cosine similarity between -1 and 1",
		})
	}

	if c.Retrieval.MaxResults < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.max_results",
			Message: "max_results must be positive",
		})
	}

	if c.Scraper.RequestDelay <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.request_delay",
			Message: "request_delay must be positive",
		})
	}

	if c.Scraper.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.timeout",
			Message: "timeout must be positive",
		})
	}

	for i, src := range c.Scraper.Sources {
		if src.URL == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("scraper.sources[%d].url", i),
				Message: "source URL is required",
			})
			continue
		}
		if _, err := url.ParseRequestURI(src.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("scraper.sources[%d].url", i),
				Message: fmt.Sprintf("invalid source URL: %s", src.URL),
			})
		}
		if src.Authority == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("scraper.sources[%d].authority", i),
				Message: "source authority is required",
			})
		}
	}

	return errors
}
