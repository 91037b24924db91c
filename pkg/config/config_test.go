package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "X-User-Id", cfg.Server.IdentityHeader)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3-8b-8192", cfg.LLM.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, "all-minilm", cfg.Embedder.Model)
	assert.Equal(t, 384, cfg.Embedder.Dimensions)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 50, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, int64(10<<20), cfg.Ingest.MaxFileBytes)
	assert.Equal(t, 5, cfg.Ingest.FreeTierLimit)
	assert.InDelta(t, 0.5, cfg.Retrieval.Threshold, 1e-6)
	assert.Equal(t, 5, cfg.Retrieval.MaxResults)
	assert.Equal(t, "PharmaIntel-Bot/1.0", cfg.Scraper.UserAgent)
	assert.Equal(t, 2*time.Second, cfg.Scraper.RequestDelay)
	assert.Len(t, cfg.Scraper.Sources, 4)
}

func TestLoadConfig_FileValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  addr: ":9999"
ingest:
  chunk_size: 200
  chunk_overlap: 20
scraper:
  user_agent: "TestBot/2.0"
  request_delay: 500ms
  timeout: 5s
  sources:
    - authority: FDA
      url: https://example.test/recalls
      selector: ".main"
`))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 200, cfg.Ingest.ChunkSize)
	assert.Equal(t, 20, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, "TestBot/2.0", cfg.Scraper.UserAgent)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.RequestDelay)
	assert.Equal(t, 5*time.Second, cfg.Scraper.Timeout)
	require.Len(t, cfg.Scraper.Sources, 1)
	assert.Equal(t, "FDA", cfg.Scraper.Sources[0].Authority)
	assert.Equal(t, ".main", cfg.Scraper.Sources[0].Selector)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "scraper:\n  request_delay: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request_delay")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/db")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("CRON_SECRET", "cron-test")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg, err := LoadConfig(writeConfig(t, "database:\n  url: postgres://file-host/db\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/db", cfg.Database.URL)
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, "cron-test", cfg.Server.CronSecret)
	assert.Equal(t, "http://ollama:11434", cfg.Embedder.BaseURL)
}

func TestValidate(t *testing.T) {
	valid, err := LoadConfig(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Empty(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing llm url", func(c *Config) { c.LLM.BaseURL = "" }, "llm.base_url"},
		{"max tokens too high", func(c *Config) { c.LLM.MaxTokens = 9000 }, "llm.max_tokens"},
		{"temperature out of range", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"zero dimensions", func(c *Config) { c.Embedder.Dimensions = 0 }, "embedder.dimensions"},
		{"overlap too large", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }, "ingest.chunk_overlap"},
		{"threshold out of range", func(c *Config) { c.Retrieval.Threshold = 1.5 }, "retrieval.threshold"},
		{"zero max results", func(c *Config) { c.Retrieval.MaxResults = 0 }, "retrieval.max_results"},
		{"source missing authority", func(c *Config) {
			c.Scraper.Sources[0].Authority = ""
		}, "scraper.sources[0].authority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, "{}"))
			require.NoError(t, err)
			tt.mutate(cfg)

			problems := cfg.Validate()
			require.NotEmpty(t, problems)

			found := false
			for _, p := range problems {
				if p.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected a problem on %s, got %v", tt.field, problems)
		})
	}
}
