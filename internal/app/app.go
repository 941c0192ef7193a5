// Package app is the composition root shared by the server and the query CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	dbRedis "github.com/kailas-cloud/smartsearch/internal/db/redis"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/content"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	"github.com/kailas-cloud/smartsearch/internal/repository"
	"github.com/kailas-cloud/smartsearch/internal/repository/mongovector"
	"github.com/kailas-cloud/smartsearch/internal/repository/pgvector"
	"github.com/kailas-cloud/smartsearch/internal/repository/vector"
	"github.com/kailas-cloud/smartsearch/internal/transport/huggingface"
	openaiEmb "github.com/kailas-cloud/smartsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/smartsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	"github.com/kailas-cloud/smartsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Index  repository.VectorIndex
	Ingest *ingest.Service
	Search *searchuc.Service
	Health *healthuc.Service

	// SearchDefaults are applied to requests that omit minScore.
	SearchDefaults request.Defaults
}

// New connects to the vector index, ensures it exists and wires the services.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	index, err := OpenIndex(ctx, cfg.Index, logger)
	if err != nil {
		return nil, err
	}
	if err := index.EnsureIndex(ctx); err != nil {
		index.Close()
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	provider := NewProvider(cfg.Embedding)
	docEmbedder := BuildEmbedder(provider, cfg.Embedding, cfg.Embedding.DocumentInstruction, logger)
	queryEmbedder := BuildEmbedder(provider, cfg.Embedding, cfg.Embedding.QueryInstruction, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Index.Dimensions),
	)

	// Pass a nil interface, not a typed nil, when the provider has no health endpoint.
	var embeddingChecker healthuc.EmbeddingChecker
	if hc, ok := provider.(domain.HealthChecker); ok {
		embeddingChecker = hc
	}

	shaper := content.NewShaper(cfg.CMS.AppURL, cfg.CMS.StackAPIKey)

	return &App{
		Index:  index,
		Ingest: ingest.New(shaper, docEmbedder, index, logger),
		Search: searchuc.New(index, queryEmbedder),
		Health: healthuc.New(index, embeddingChecker),
		SearchDefaults: request.Defaults{
			TopK:     cfg.Index.TopK,
			MinScore: *cfg.Index.MinScore,
		},
	}, nil
}

// Close releases the vector index connection.
func (a *App) Close() {
	a.Index.Close()
}

func storeConfig(cfg config.IndexConfig) dbRedis.Config {
	return dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}

// OpenIndex connects to the configured vector index backend.
func OpenIndex(ctx context.Context, cfg config.IndexConfig, logger *zap.Logger) (repository.VectorIndex, error) {
	var index repository.VectorIndex

	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(storeConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		index = vector.New(store, vector.Config{
			Name:       cfg.Name,
			Namespace:  cfg.Namespace,
			Dimensions: cfg.Dimensions,
			HNSW:       vector.HNSWConfig{M: cfg.HNSWM, EFConstruct: cfg.HNSWEFConstruct},
		})
	case config.DriverPostgres:
		repo, err := pgvector.New(ctx, cfg.DSN, pgvector.Config{
			Table:      cfg.Name,
			Namespace:  cfg.Namespace,
			Dimensions: cfg.Dimensions,
			HNSWM:      cfg.HNSWM,
			HNSWEF:     cfg.HNSWEFConstruct,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		index = repo
	case config.DriverMongoDB:
		repo, err := mongovector.New(ctx, cfg.URI, mongovector.Config{
			Database:   cfg.Database,
			Collection: cfg.Name,
			Namespace:  cfg.Namespace,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
		}
		index = repo
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Driver)
	}

	logger.Info("Connected to vector index",
		zap.String("driver", cfg.Driver),
		zap.String("name", cfg.Name),
		zap.String("namespace", cfg.Namespace),
	)
	return repository.NewInstrumented(index, cfg.Driver), nil
}

// NewProvider creates the base embedding provider.
func NewProvider(cfg config.EmbeddingConfig) domain.Embedder {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if cfg.Provider == config.ProviderOpenAI {
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    timeout,
		})
	}
	return huggingface.NewEmbedder(&huggingface.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: timeout,
	})
}

// BuildEmbedder assembles the decorator chain: provider -> Instrumented -> Instruction.
func BuildEmbedder(
	provider domain.Embedder,
	cfg config.EmbeddingConfig,
	instruction string,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(provider, cfg.Provider, cfg.Model, logger)

	// Instruction prefix (outermost)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
