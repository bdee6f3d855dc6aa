package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Ingest      IngestConfig    `toml:"ingest"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	LLM         LLMConfig       `toml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

// StorageConfig locates the on-disk state: uploaded files, per-session
// vector indexes, and the session registry backing store.
type StorageConfig struct {
	DataDir  string         `toml:"data_dir" validate:"required"`  // Uploaded files, one subdirectory per session
	IndexDir string         `toml:"index_dir" validate:"required"` // Vector indexes, one subdirectory per session
	Sessions SessionsConfig `toml:"sessions"`
}

// SessionsConfig selects the session registry implementation.
type SessionsConfig struct {
	Backend string `toml:"backend" validate:"oneof=memory badger"` // "memory" (default, non-persistent) or "badger" (durable)
	Path    string `toml:"path"`                                   // Badger database directory (badger backend only)
}

// IngestConfig tunes the upload pipeline.
type IngestConfig struct {
	ChunkSize     int   `toml:"chunk_size" validate:"gt=0"`      // Maximum chunk length in characters
	ChunkOverlap  int   `toml:"chunk_overlap" validate:"gte=0"`  // Characters of context shared by adjacent chunks
	MaxUploadSize int64 `toml:"max_upload_size" validate:"gt=0"` // Multipart memory limit in bytes
}

// RetrievalConfig tunes the search side of the RAG chain.
type RetrievalConfig struct {
	Mode       string  `toml:"mode" validate:"oneof=similarity mmr"` // Ranking policy
	K          int     `toml:"k" validate:"gt=0"`                    // Results returned per query
	FetchK     int     `toml:"fetch_k" validate:"gt=0"`              // MMR candidate pool size (>= k)
	LambdaMult float64 `toml:"lambda_mult" validate:"gte=0,lte=1"`   // MMR relevance/diversity weight
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini for both chat and embeddings
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude for chat, Gemini for embeddings
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderMock uses the deterministic in-process provider (tests, offline dev)
	LLMProviderMock LLMProvider = "mock"
)

// LLMConfig selects providers and the embedding geometry.
type LLMConfig struct {
	Provider       LLMProvider `toml:"provider" validate:"oneof=gemini claude mock"` // Chat provider
	EmbedDimension int         `toml:"embed_dimension" validate:"gt=0"`              // Embedding vector length
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Chat model (default: "gemini-2.0-flash")
	EmbedModel  string  `toml:"embed_model"` // Embedding model (default: "gemini-embedding-001")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Chat completion temperature (default: 0.2)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`    // Anthropic API key
	Model       string  `toml:"model"`      // Chat model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"` // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`    // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings are exposed in colloquy.toml; technical
// parameters are hardcoded here for stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			DataDir:  "./data/uploads",
			IndexDir: "./data/index",
			Sessions: SessionsConfig{
				Backend: "memory",
				Path:    "./data/sessions",
			},
		},
		Ingest: IngestConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			MaxUploadSize: 32 * 1024 * 1024, // 32MB multipart memory limit
		},
		Retrieval: RetrievalConfig{
			Mode:       "mmr",
			K:          5,
			FetchK:     20,
			LambdaMult: 0.5,
		},
		LLM: LLMConfig{
			Provider:       LLMProviderGemini,
			EmbedDimension: 768,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (GOOGLE_API_KEY or config)
			Model:       "gemini-2.0-flash",
			EmbedModel:  "gemini-embedding-001",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// ones; CLI flag overrides are applied separately by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tag syntax cannot express (overlap < size, fetch_k >= k).
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("invalid configuration: ingest.chunk_overlap (%d) must be less than ingest.chunk_size (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}

	if c.Retrieval.FetchK < c.Retrieval.K {
		return fmt.Errorf("invalid configuration: retrieval.fetch_k (%d) must be at least retrieval.k (%d)",
			c.Retrieval.FetchK, c.Retrieval.K)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COLLOQUY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("COLLOQUY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COLLOQUY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if dataDir := os.Getenv("COLLOQUY_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}
	if indexDir := os.Getenv("COLLOQUY_INDEX_DIR"); indexDir != "" {
		config.Storage.IndexDir = indexDir
	}
	if backend := os.Getenv("COLLOQUY_SESSIONS_BACKEND"); backend != "" {
		config.Storage.Sessions.Backend = backend
	}
	if path := os.Getenv("COLLOQUY_SESSIONS_PATH"); path != "" {
		config.Storage.Sessions.Path = path
	}

	// Ingest configuration
	if size := os.Getenv("COLLOQUY_CHUNK_SIZE"); size != "" {
		if s, err := strconv.Atoi(size); err == nil {
			config.Ingest.ChunkSize = s
		}
	}
	if overlap := os.Getenv("COLLOQUY_CHUNK_OVERLAP"); overlap != "" {
		if o, err := strconv.Atoi(overlap); err == nil {
			config.Ingest.ChunkOverlap = o
		}
	}

	// Retrieval configuration
	if mode := os.Getenv("COLLOQUY_RETRIEVAL_MODE"); mode != "" {
		config.Retrieval.Mode = mode
	}
	if k := os.Getenv("COLLOQUY_RETRIEVAL_K"); k != "" {
		if v, err := strconv.Atoi(k); err == nil {
			config.Retrieval.K = v
		}
	}
	if fetchK := os.Getenv("COLLOQUY_RETRIEVAL_FETCH_K"); fetchK != "" {
		if v, err := strconv.Atoi(fetchK); err == nil {
			config.Retrieval.FetchK = v
		}
	}
	if lambda := os.Getenv("COLLOQUY_RETRIEVAL_LAMBDA"); lambda != "" {
		if v, err := strconv.ParseFloat(lambda, 64); err == nil {
			config.Retrieval.LambdaMult = v
		}
	}

	// LLM configuration
	if provider := os.Getenv("COLLOQUY_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if dim := os.Getenv("COLLOQUY_EMBED_DIMENSION"); dim != "" {
		if d, err := strconv.Atoi(dim); err == nil {
			config.LLM.EmbedDimension = d
		}
	}
	if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}

	// Logging configuration
	if level := os.Getenv("COLLOQUY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("COLLOQUY_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("COLLOQUY_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
