package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pharmintel/core/internal/models"
)

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	IdentityHeader string `yaml:"identity_header"`
	CronSecret     string `yaml:"cron_secret"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type EmbedderConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type IngestConfig struct {
	ChunkSize     int   `yaml:"chunk_size"`
	ChunkOverlap  int   `yaml:"chunk_overlap"`
	MaxFileBytes  int64 `yaml:"max_file_bytes"`
	FreeTierLimit int   `yaml:"free_tier_limit"`
}

type RetrievalConfig struct {
	Threshold  float32 `yaml:"threshold"`
	MaxResults int     `yaml:"max_results"`
}

type ScraperConfig struct {
	UserAgent    string          `yaml:"user_agent"`
	RequestDelay time.Duration   `yaml:"request_delay"`
	Timeout      time.Duration   `yaml:"timeout"`
	Sources      []models.Source `yaml:"sources"`
}

// UnmarshalYAML accepts Go duration strings ("2s", "500ms") for the
// delay and timeout fields.
func (c *ScraperConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		UserAgent    string          `yaml:"user_agent"`
		RequestDelay string          `yaml:"request_delay"`
		Timeout      string          `yaml:"timeout"`
		Sources      []models.Source `yaml:"sources"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.UserAgent = raw.UserAgent
	c.Sources = raw.Sources

	if raw.RequestDelay != "" {
		d, err := time.ParseDuration(raw.RequestDelay)
		if err != nil {
			return fmt.Errorf("scraper.request_delay: %w", err)
		}
		c.RequestDelay = d
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("scraper.timeout: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Scraper   ScraperConfig   `yaml:"scraper"`
}

// LoadConfig reads a YAML config file, merges environment variables on
// top and fills defaults for anything left unset. An empty path falls
// back to the usual locations, and to pure defaults when none exists.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/pharmintel/config.yaml"),
			"/etc/pharmintel/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

// DefaultSources is the fixed list of monitored regulatory pages used
// when the config file does not override it.
func DefaultSources() []models.Source {
	return []models.Source{
		{
			Authority: "FDA",
			URL:       "https://www.fda.gov/drugs/drug-safety-and-availability/drug-recalls",
			Selector:  ".main-content",
		},
		{
			Authority: "FDA",
			URL:       "https://www.fda.gov/drugs/development-approval-process-drugs/drug-approvals-and-databases",
			Selector:  ".main-content",
		},
		{
			Authority: "EMA",
			URL:       "https://www.ema.europa.eu/en/medicines/field_ema_web_categories%253Aname_field/Human/ema_group_types/ema_medicine",
			Selector:  ".main-content",
		},
		{
			Authority: "CDSCO",
			URL:       "https://cdsco.gov.in/opencms/opencms/en/Drugs/New-Drugs/",
			Selector:  ".content",
		},
	}
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.IdentityHeader == "" {
		config.Server.IdentityHeader = "X-User-Id"
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "llama3-8b-8192"
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1024
	}

	if config.Embedder.BaseURL == "" {
		config.Embedder.BaseURL = "http://localhost:11434"
	}
	if config.Embedder.Model == "" {
		config.Embedder.Model = "all-minilm"
	}
	if config.Embedder.Dimensions == 0 {
		config.Embedder.Dimensions = 384
	}

	if config.Ingest.ChunkSize == 0 {
		config.Ingest.ChunkSize = 500
	}
	if config.Ingest.ChunkOverlap == 0 {
		config.Ingest.ChunkOverlap = 50
	}
	if config.Ingest.MaxFileBytes == 0 {
		config.Ingest.MaxFileBytes = 10 << 20
	}
	if config.Ingest.FreeTierLimit == 0 {
		config.Ingest.FreeTierLimit = 5
	}

	if config.Retrieval.Threshold == 0 {
		config.Retrieval.Threshold = 0.5
	}
	if config.Retrieval.MaxResults == 0 {
		config.Retrieval.MaxResults = 5
	}

	if config.Scraper.UserAgent == "" {
		config.Scraper.UserAgent = "PharmaIntel-Bot/1.0"
	}
	if config.Scraper.RequestDelay == 0 {
		config.Scraper.RequestDelay = 2 * time.Second
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}
	if len(config.Scraper.Sources) == 0 {
		config.Scraper.Sources = DefaultSources()
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedder.BaseURL = baseURL
	}
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if secret := os.Getenv("CRON_SECRET"); secret != "" {
		config.Server.CronSecret = secret
	}
	if key := os.Getenv("S3_ACCESS_KEY_ID"); key != "" {
		config.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("S3_SECRET_ACCESS_KEY"); secret != "" {
		config.Storage.SecretAccessKey = secret
	}
}
