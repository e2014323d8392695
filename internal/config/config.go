package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "config/config.toml"

// DefaultTriplePrompt takes the triple cap (%d) and the chunk text (%s).
const DefaultTriplePrompt = `Extract factual subject-relation-object triples from the text below.
Return at most %d triples as a JSON object of the form:
{"triples": [{"subject": "...", "relation": "...", "object": "...", "confidence": 0.0}]}
Use short noun phrases for subjects and objects and snake_case verbs for relations
(is_a, part_of, uses, depends_on, causes, enables, located_in, created_by, ...).
Confidence is a number between 0 and 1. Return only JSON.

TEXT:
%s`

const DefaultCommunityPrompt = `Summarize in one or two sentences what connects the following facts.
Return JSON: {"summary": "..."}

FACTS:
%s`

type ServerConfig struct {
	Port                   string   `toml:"port"`
	CORSOrigins            []string `toml:"cors_origins"`
	MaxUploadBytes         int64    `toml:"max_upload_bytes"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Mode string `toml:"mode"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type ExtractionPrompts struct {
	Triples string `toml:"triples"`
}

type ExtractionConfig struct {
	Prompts       ExtractionPrompts `toml:"prompts"`
	MaxTriples    int               `toml:"max_triples"`
	MaxChars      int               `toml:"max_chars"`
	MinConfidence float64           `toml:"min_confidence"`
}

type SummaryPrompts struct {
	Communities string `toml:"communities"`
}

type CanonicalConfig struct {
	Fuzzy     bool              `toml:"fuzzy"`
	Threshold float64           `toml:"threshold"`
	Aliases   map[string]string `toml:"aliases"`
}

type GraphConfig struct {
	AllowSelfLoops bool   `toml:"allow_self_loops"`
	NodeType       string `toml:"node_type"`
}

type SearchConfig struct {
	SeedLimit      int     `toml:"seed_limit"`
	EvidenceLimit  int     `toml:"evidence_limit"`
	MinTokenLen    int     `toml:"min_token_len"`
	RelationWeight float64 `toml:"relation_weight"`
}

type IngestConfig struct {
	ChunkSize           int    `toml:"chunk_size"`
	ChunkOverlap        int    `toml:"chunk_overlap"`
	MaxChunkChars       int    `toml:"max_chunk_chars"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	UserAgent           string `toml:"user_agent"`
	SeedWhenEmpty       bool   `toml:"seed_when_empty"`
}

type ConcurrencyConfig struct {
	Fetch   int `toml:"fetch"`
	Extract int `toml:"extract"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

type TracingConfig struct {
	Enabled     bool    `toml:"enabled"`
	ServiceName string  `toml:"service_name"`
	Endpoint    string  `toml:"endpoint"`
	Insecure    bool    `toml:"insecure"`
	SampleRatio float64 `toml:"sample_ratio"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	LLM         LLMConfig         `toml:"llm"`
	Extraction  ExtractionConfig  `toml:"extraction"`
	Summary     SummaryPrompts    `toml:"summary"`
	Canonical   CanonicalConfig   `toml:"canonical"`
	Graph       GraphConfig       `toml:"graph"`
	Search      SearchConfig      `toml:"search"`
	Ingest      IngestConfig      `toml:"ingest"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Memgraph    MemgraphConfig    `toml:"memgraph"`
	Storage     StorageConfig     `toml:"storage"`
	Redis       RedisConfig       `toml:"redis"`
	Tracing     TracingConfig     `toml:"tracing"`
}

// Default returns a configuration that runs fully in memory with the
// rule-based extractor.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8080",
			CORSOrigins:            []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:3000", "http://127.0.0.1:5173"},
			MaxUploadBytes:         5 << 20,
			ShutdownTimeoutSeconds: 10,
		},
		Log: LogConfig{Mode: "dev"},
		LLM: LLMConfig{Temperature: 0.1, MaxTokens: 1000},
		Extraction: ExtractionConfig{
			Prompts:       ExtractionPrompts{Triples: DefaultTriplePrompt},
			MaxTriples:    8,
			MaxChars:      3500,
			MinConfidence: 0.3,
		},
		Summary:   SummaryPrompts{Communities: DefaultCommunityPrompt},
		Canonical: CanonicalConfig{Fuzzy: true, Threshold: 0.85},
		Graph:     GraphConfig{NodeType: "entity"},
		Search: SearchConfig{
			SeedLimit:      5,
			EvidenceLimit:  10,
			MinTokenLen:    2,
			RelationWeight: 0.5,
		},
		Ingest: IngestConfig{
			ChunkSize:           1800,
			ChunkOverlap:        200,
			MaxChunkChars:       4000,
			FetchTimeoutSeconds: 15,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Concurrency: ConcurrencyConfig{Fetch: 4, Extract: 4},
		Redis:       RedisConfig{Channel: "kg.events"},
		Tracing:     TracingConfig{ServiceName: "universal-kg", SampleRatio: 0.1},
	}
}

// Load reads a TOML file over Default, so missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// FromEnv overrides configuration values with environment variables when set.
func FromEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Log.Mode, "LOG_MODE")

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "openai") {
		setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	}

	setString(&cfg.Memgraph.URI, "MEMGRAPH_URI")
	setString(&cfg.Memgraph.User, "MEMGRAPH_USER")
	setString(&cfg.Memgraph.Password, "MEMGRAPH_PASSWORD")

	setString(&cfg.Storage.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_ENABLED"))); v != "" {
		cfg.Tracing.Enabled = v == "1" || v == "true" || v == "yes" || v == "on"
	}
	setString(&cfg.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := strings.TrimSpace(os.Getenv("OTEL_SAMPLER_RATIO")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tracing.SampleRatio = f
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Canonical.Threshold <= 0 || c.Canonical.Threshold > 1 {
		errs = append(errs, fmt.Errorf("canonical.threshold must be in (0,1], got %v", c.Canonical.Threshold))
	}
	if c.Search.SeedLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.seed_limit must be positive, got %d", c.Search.SeedLimit))
	}
	if c.Search.EvidenceLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.evidence_limit must be positive, got %d", c.Search.EvidenceLimit))
	}
	if c.Ingest.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap))
	}
	if len(c.Server.CORSOrigins) == 0 {
		errs = append(errs, errors.New("server.cors_origins must list at least one origin"))
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Errorf("server.cors_origins entries must be \"*\" or start with http:// or https://, got %q", origin))
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}
	return errors.Join(errs...)
}
