// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout bounds embedding and asset requests.
	defaultRequestTimeout = 60 * time.Second
	// defaultGenerationTimeout bounds a single completion call.
	defaultGenerationTimeout = 30 * time.Second
	// DefaultRelevanceThreshold is the squared-L2 distance at or above which a chunk is discarded.
	DefaultRelevanceThreshold = 1.2
	// DefaultMaxContextPassages caps the number of passages placed in a prompt.
	DefaultMaxContextPassages = 3
	// DefaultTopK is the retrieval breadth used when a caller does not supply one.
	DefaultTopK = 4
	// MinTopK and MaxTopK bound the retrieval breadth accepted at the API boundary.
	MinTopK = 1
	MaxTopK = 10
)

// Config represents the top-level application configuration.
type Config struct {
	Debug          bool            `json:"debug" yaml:"debug"`
	JSONMode       bool            `json:"jsonMode" yaml:"jsonMode"`
	LogFile        string          `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	TimeoutSeconds int             `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout" validate:"gte=0"`
	Metrics        bool            `json:"metrics" yaml:"metrics"`
	Assets         AssetsConfig    `json:"assets" yaml:"assets"`
	Embedder       EmbedderConfig  `json:"embedder" yaml:"embedder"`
	LLM            LLMConfig       `json:"llm" yaml:"llm"`
	Retrieval      RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Server         ServerConfig    `json:"server" yaml:"server"`
	ConfigPath     string          `json:"-" yaml:"-" mapstructure:"-"`
}

// AssetsConfig locates the corpus table and the vector index on disk.
type AssetsConfig struct {
	Dir        string `json:"dir" yaml:"dir"`
	CorpusFile string `json:"corpusFile" yaml:"corpusFile"`
	IndexFile  string `json:"indexFile" yaml:"indexFile"`
	CorpusURL  string `json:"corpusURL,omitempty" yaml:"corpusURL,omitempty" validate:"omitempty,url"`
	IndexURL   string `json:"indexURL,omitempty" yaml:"indexURL,omitempty" validate:"omitempty,url"`
}

// EmbedderConfig selects and configures the query embedder.
type EmbedderConfig struct {
	Type      string `json:"type" yaml:"type" validate:"omitempty,oneof=ollama openai"`
	URL       string `json:"url" yaml:"url" validate:"omitempty,url"`
	Model     string `json:"model" yaml:"model"`
	APIKeyEnv string `json:"apiKeyEnv,omitempty" yaml:"apiKeyEnv,omitempty"`
	Dimension int    `json:"dimension,omitempty" yaml:"dimension,omitempty" validate:"gte=0"`
}

// LLMConfig configures the completion service used for answer generation.
type LLMConfig struct {
	Type           string   `json:"type" yaml:"type" validate:"omitempty,oneof=openai groq llamacpp ollama"`
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL        string   `json:"baseURL" yaml:"baseURL" validate:"omitempty,url"`
	APIKeyEnv      string   `json:"apiKeyEnv" yaml:"apiKeyEnv"`
	Model          string   `json:"model" yaml:"model"`
	SystemPrompt   string   `json:"systemPrompt" yaml:"systemPrompt"`
	MaxTokens      int      `json:"maxTokens" yaml:"maxTokens" validate:"gte=0"`
	Temperature    *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TimeoutSeconds int      `json:"timeoutSeconds" yaml:"timeoutSeconds" validate:"gte=0"`
}

// RetrievalConfig holds the tunable retrieval constants.
type RetrievalConfig struct {
	RelevanceThreshold float64 `json:"relevanceThreshold" yaml:"relevanceThreshold" validate:"gte=0"`
	MaxContextPassages int     `json:"maxContextPassages" yaml:"maxContextPassages" validate:"gte=0"`
	DefaultK           int     `json:"defaultK" yaml:"defaultK" validate:"gte=0,lte=10"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	URL  string `json:"url" yaml:"url" validate:"omitempty,url"`
}

// Defaults returns a configuration populated with the built-in defaults.
func Defaults() Config {
	temp := 0.3
	return Config{
		TimeoutSeconds: int(defaultRequestTimeout.Seconds()),
		Metrics:        true,
		Assets: AssetsConfig{
			Dir:        "assets",
			CorpusFile: "complaints.jsonl",
			IndexFile:  "complaints.civx",
		},
		Embedder: EmbedderConfig{
			Type:  "ollama",
			URL:   "http://localhost:11434",
			Model: "all-minilm",
		},
		LLM: LLMConfig{
			Type:           "openai",
			Name:           "groq",
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKeyEnv:      "GROQ_API_KEY",
			Model:          "llama-3.1-8b-instant",
			SystemPrompt:   "You are a professional financial assistant.",
			MaxTokens:      250,
			Temperature:    &temp,
			TimeoutSeconds: int(defaultGenerationTimeout.Seconds()),
		},
		Retrieval: RetrievalConfig{
			RelevanceThreshold: DefaultRelevanceThreshold,
			MaxContextPassages: DefaultMaxContextPassages,
			DefaultK:           DefaultTopK,
		},
		Server: ServerConfig{
			Addr: ":8000",
			URL:  "http://localhost:8000",
		},
	}
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GenerationTimeout returns the bound applied to a single completion call.
func (c Config) GenerationTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return defaultGenerationTimeout
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "cirag.log"
}

// CorpusPath returns the resolved path of the corpus table.
func (c Config) CorpusPath() string {
	return assetPath(c.Assets.Dir, c.Assets.CorpusFile, "complaints.jsonl")
}

// IndexPath returns the resolved path of the vector index.
func (c Config) IndexPath() string {
	return assetPath(c.Assets.Dir, c.Assets.IndexFile, "complaints.civx")
}

// Threshold returns the relevance threshold, applying the default when unset.
func (c Config) Threshold() float64 {
	if c.Retrieval.RelevanceThreshold <= 0 {
		return DefaultRelevanceThreshold
	}
	return c.Retrieval.RelevanceThreshold
}

// ContextCap returns the maximum number of passages placed in a prompt.
func (c Config) ContextCap() int {
	if c.Retrieval.MaxContextPassages <= 0 {
		return DefaultMaxContextPassages
	}
	return c.Retrieval.MaxContextPassages
}

// TopK returns the default retrieval breadth.
func (c Config) TopK() int {
	if c.Retrieval.DefaultK <= 0 {
		return DefaultTopK
	}
	return c.Retrieval.DefaultK
}

// Temperature returns the sampling temperature for completions.
func (c Config) Temperature() float64 {
	if c.LLM.Temperature == nil {
		return 0.3
	}
	return *c.LLM.Temperature
}

// MaxTokens returns the completion output-token limit.
func (c Config) MaxTokens() int {
	if c.LLM.MaxTokens <= 0 {
		return 250
	}
	return c.LLM.MaxTokens
}

func assetPath(dir, file, fallback string) string {
	if strings.TrimSpace(file) == "" {
		file = fallback
	}
	if filepath.IsAbs(file) || strings.TrimSpace(dir) == "" {
		return file
	}
	return filepath.Join(dir, file)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field-level constraints on the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
