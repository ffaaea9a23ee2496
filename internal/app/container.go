// Package app builds the object graph shared by the CLI and the API server
// from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent/tools"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/config"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/database"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/github"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/llm"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/service"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/vectorstore"
)

// Container owns every long-lived dependency. Close releases them in
// reverse order of construction.
type Container struct {
	Config config.Config

	Store  vectorstore.Store
	Notes  notes.Store
	GitHub *github.Client
	Agent  *agent.Agent
	Mongo  *mongo.Client // nil unless VECTOR_STORE=mongo

	Ingest service.IngestService
	Search service.SearchService
	Chat   service.ChatService

	closers []func() error
}

// New wires the container. On error everything built so far is closed.
func New(ctx context.Context, cfg config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.build(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) build(ctx context.Context) error {
	cfg := c.Config
	log := clog.FromContext(ctx)

	emb, err := c.embedder(ctx)
	if err != nil {
		return err
	}
	log.With("embedder", cfg.Embedder).Info("[App] Embedder ready")

	if c.Store, err = c.vectorStore(ctx, emb); err != nil {
		return err
	}
	c.closers = append(c.closers, c.Store.Close)
	log.With("store", cfg.VectorStore).With("collection", cfg.Collection).Info("[App] Vector store ready")

	if c.Notes, err = c.notesStore(ctx); err != nil {
		return err
	}
	c.closers = append(c.closers, c.Notes.Close)

	reasoner, err := c.reasoner(ctx)
	if err != nil {
		return err
	}
	log.With("provider", cfg.LLMProvider).Info("[App] Reasoner ready")

	c.Agent = agent.New(reasoner,
		[]agent.Tool{tools.NewRetrieval(c.Store), tools.NewNote(c.Notes)},
		agent.WithMaxIterations(cfg.AgentMaxIterations),
		// Each provider bounds a single attempt by LLMTimeout; the step
		// budget covers the retries too.
		agent.WithStepTimeout(cfg.LLMTimeout*time.Duration(cfg.RetryMax+1)),
	)

	c.GitHub, err = github.NewClient(github.Options{
		Token:     cfg.GitHubToken,
		BaseURL:   cfg.GitHubAPIURL,
		UserAgent: cfg.UserAgent,
		State:     cfg.GitHubState,
		PerPage:   cfg.GitHubPerPage,
		MaxPages:  cfg.GitHubMaxPages,
		Timeout:   cfg.GitHubTimeout,
		Retry:     cfg.RetryPolicy(),
	})
	if err != nil {
		return err
	}

	c.Ingest = service.NewIngestService(c.GitHub, c.Store)
	c.Search = service.NewSearchService(c.Store)
	c.Chat = service.NewChatService(c.Agent)
	return nil
}

// Close releases every resource the container opened.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) embedder(ctx context.Context) (embedding.Embedder, error) {
	cfg := c.Config
	switch cfg.Embedder {
	case "hash":
		return embedding.NewHashEmbedder(cfg.EmbeddingDim), nil
	case "vertex":
		v, err := embedding.NewVertexEmbedder(ctx, embedding.VertexOptions{
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			Model:           cfg.EmbeddingModel,
			CredentialsFile: cfg.CredentialsFile,
			Timeout:         cfg.LLMTimeout,
			Retry:           cfg.RetryPolicy(),
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, v.Close)
		return v, nil
	case "openai":
		return embedding.NewOpenAIEmbedder(embedding.OpenAIOptions{
			APIKey:     cfg.OpenAIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDim,
			Timeout:    cfg.LLMTimeout,
			Retry:      cfg.RetryPolicy(),
		})
	default:
		return nil, &apperr.ConfigurationError{Key: "EMBEDDER", Reason: fmt.Sprintf("unknown embedder %q", cfg.Embedder)}
	}
}

func (c *Container) vectorStore(ctx context.Context, emb embedding.Embedder) (vectorstore.Store, error) {
	cfg := c.Config
	switch cfg.VectorStore {
	case "bolt":
		return vectorstore.NewBoltStore(cfg.VectorDBPath, cfg.Collection, emb)
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, &apperr.ConfigurationError{Key: "MONGODB_URI", Component: "vector store"}
		}
		client, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		c.Mongo = client
		c.closers = append(c.closers, func() error { return client.Disconnect(context.Background()) })
		return vectorstore.NewMongoStore(client.Database(cfg.DBName), cfg.Collection, cfg.VectorIndex, emb), nil
	default:
		return nil, &apperr.ConfigurationError{Key: "VECTOR_STORE", Reason: fmt.Sprintf("unknown store %q", cfg.VectorStore)}
	}
}

func (c *Container) notesStore(ctx context.Context) (notes.Store, error) {
	if c.Config.NotesDB == "" {
		return notes.NewMemoryStore(), nil
	}
	return notes.OpenSQLite(ctx, c.Config.NotesDB)
}

func (c *Container) reasoner(ctx context.Context) (agent.Reasoner, error) {
	cfg := c.Config
	switch cfg.LLMProvider {
	case "scripted":
		return llm.NewScripted(tools.RetrievalName), nil
	case "openai":
		return llm.NewOpenAI(llm.OpenAIOptions{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
			Retry:   cfg.RetryPolicy(),
		})
	case "anthropic":
		return llm.NewAnthropic(llm.AnthropicOptions{
			APIKey:  cfg.AnthropicKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
			Retry:   cfg.RetryPolicy(),
		})
	case "vertex":
		v, err := llm.NewVertex(ctx, llm.VertexOptions{
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			Model:           cfg.LLMModel,
			CredentialsFile: cfg.CredentialsFile,
			Timeout:         cfg.LLMTimeout,
			Retry:           cfg.RetryPolicy(),
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, v.Close)
		return v, nil
	default:
		return nil, &apperr.ConfigurationError{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", cfg.LLMProvider)}
	}
}
