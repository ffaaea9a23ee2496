// Package config centralises all environment configuration for the CLI and
// the API server. It should be imported only by `cmd/*`, `internal/app` and
// test code. Business-logic layers receive an already-built Config (or the
// few fields they need) via dependency injection and never read the
// environment themselves.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// maxRetries bounds RETRY_MAX; beyond it the doubled backoff would sit at
// RETRY_MAX_BACKOFF for hours.
const maxRetries = 20

// Config holds every runtime option the binaries need.
// Keep it flat and simple; prefer primitive types over embedding structs.
type Config struct {
	// GitHub
	GitHubToken    string        `env:"GITHUB_TOKEN"`
	GitHubOwner    string        `env:"GITHUB_OWNER,default=microsoft"`
	GitHubRepo     string        `env:"GITHUB_REPO,default=vscode"`
	GitHubAPIURL   string        `env:"GITHUB_API_URL"`
	GitHubPerPage  int           `env:"GITHUB_PER_PAGE,default=100"`
	GitHubMaxPages int           `env:"GITHUB_MAX_PAGES,default=10"`
	GitHubState    string        `env:"GITHUB_STATE,default=open"`
	GitHubTimeout  time.Duration `env:"GITHUB_TIMEOUT,default=10s"`
	UserAgent      string        `env:"GITHUB_USER_AGENT,default=issue-agent"`

	// Vector store
	VectorStore  string `env:"VECTOR_STORE,default=bolt"`
	VectorDBPath string `env:"VECTOR_DB_PATH,default=issues.db"`
	Collection   string `env:"COLLECTION,default=github"`
	MongoURI     string `env:"MONGODB_URI"`
	DBName       string `env:"MONGODB_DB,default=ai_action"`
	VectorIndex  string `env:"VECTOR_INDEX,default=issue_embedding_index"`

	// Embeddings
	Embedder       string `env:"EMBEDDER,default=openai"`
	EmbeddingModel string `env:"EMBEDDING_MODEL"`
	EmbeddingDim   int    `env:"EMBEDDING_DIM,default=256"`

	// Language model
	LLMProvider        string        `env:"LLM_PROVIDER,default=openai"`
	LLMModel           string        `env:"LLM_MODEL"`
	LLMTimeout         time.Duration `env:"LLM_TIMEOUT,default=60s"`
	AgentMaxIterations int           `env:"AGENT_MAX_ITERATIONS,default=8"`

	// Provider credentials
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	AnthropicKey    string `env:"ANTHROPIC_API_KEY"`
	ProjectID       string `env:"GCP_PROJECT_ID"`
	Location        string `env:"GCP_LOCATION,default=us-central1"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Retry policy for every outbound call
	RetryMax         int           `env:"RETRY_MAX,default=3"`
	RetryBaseBackoff time.Duration `env:"RETRY_BASE_BACKOFF,default=500ms"`
	RetryMaxBackoff  time.Duration `env:"RETRY_MAX_BACKOFF,default=30s"`

	// Notes
	NotesDB string `env:"NOTES_DB"`

	// Server tuning
	Port         string        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=5s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=120s"`

	// CLI
	SmokeQuery string `env:"SMOKE_QUERY,default=flash messages"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
}

// Load parses the environment (and an optional .env file) into Config.
func Load(ctx context.Context) (Config, error) {
	// godotenv.Load() fails only when .env is absent, which is safe to ignore in production.
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom parses configuration from an arbitrary lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations and bounds. Missing provider credentials are
// not checked here: the component that needs them reports a
// ConfigurationError when it is constructed or used.
func (c Config) Validate() error {
	if err := oneOf("VECTOR_STORE", c.VectorStore, "bolt", "mongo"); err != nil {
		return err
	}
	if err := oneOf("EMBEDDER", c.Embedder, "openai", "vertex", "hash"); err != nil {
		return err
	}
	if err := oneOf("LLM_PROVIDER", c.LLMProvider, "openai", "vertex", "anthropic", "scripted"); err != nil {
		return err
	}
	if c.GitHubPerPage < 1 || c.GitHubPerPage > 100 {
		return &apperr.ConfigurationError{Key: "GITHUB_PER_PAGE", Reason: "must be between 1 and 100"}
	}
	if c.GitHubMaxPages < 1 {
		return &apperr.ConfigurationError{Key: "GITHUB_MAX_PAGES", Reason: "must be positive"}
	}
	if c.AgentMaxIterations < 1 {
		return &apperr.ConfigurationError{Key: "AGENT_MAX_ITERATIONS", Reason: "must be positive"}
	}
	if c.EmbeddingDim < 8 {
		return &apperr.ConfigurationError{Key: "EMBEDDING_DIM", Reason: "must be at least 8"}
	}
	if c.Collection == "" {
		return &apperr.ConfigurationError{Key: "COLLECTION", Reason: "must not be empty"}
	}
	if c.RetryMax < 0 || c.RetryMax > maxRetries {
		return &apperr.ConfigurationError{Key: "RETRY_MAX", Reason: fmt.Sprintf("must be between 0 and %d", maxRetries)}
	}
	return c.RetryPolicy().Validate()
}

// RetryPolicy returns the retry policy shared by every outbound client.
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = c.RetryMax
	p.BaseBackoff = c.RetryBaseBackoff
	p.MaxBackoff = c.RetryMaxBackoff
	return p
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return &apperr.ConfigurationError{Key: key, Reason: fmt.Sprintf("must be one of %v, got %q", allowed, val)}
}
