package app

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/config"
	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/transport/huggingface"
	openaiEmb "github.com/kailas-cloud/smartsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/smartsearch/internal/usecase/embedding"
)

type stubEmbedder struct {
	got string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.got = text
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func TestNewProvider(t *testing.T) {
	if _, ok := NewProvider(config.EmbeddingConfig{Provider: config.ProviderHuggingFace}).(*huggingface.Embedder); !ok {
		t.Error("expected huggingface embedder")
	}
	p := NewProvider(config.EmbeddingConfig{Provider: config.ProviderOpenAI, Model: "text-embedding-3-small"})
	if _, ok := p.(*openaiEmb.Embedder); !ok {
		t.Error("expected openai embedder")
	}
	if _, ok := p.(domain.HealthChecker); !ok {
		t.Error("openai embedder must support health checks")
	}
}

func TestBuildEmbedder_InstructionOutermost(t *testing.T) {
	stub := &stubEmbedder{}
	cfg := config.EmbeddingConfig{Provider: "test", Model: "m"}

	emb := BuildEmbedder(stub, cfg, "query: ", zap.NewNop())
	if _, err := emb.Embed(context.Background(), "oak table"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.got != "query: oak table" {
		t.Errorf("expected instruction prefix, got %q", stub.got)
	}

	plain := BuildEmbedder(stub, cfg, "", zap.NewNop())
	if _, ok := plain.(*embeddinguc.InstrumentedEmbedder); !ok {
		t.Errorf("expected instrumented embedder without instruction, got %T", plain)
	}
}

func TestOpenIndex_UnknownDriver(t *testing.T) {
	_, err := OpenIndex(context.Background(), config.IndexConfig{Driver: "sqlite"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestStoreConfig_Credentials(t *testing.T) {
	got := storeConfig(config.IndexConfig{
		Addrs:    []string{"valkey:6379"},
		Username: "search",
		Password: "secret",
	})
	if len(got.Addrs) != 1 || got.Addrs[0] != "valkey:6379" {
		t.Errorf("unexpected addrs %v", got.Addrs)
	}
	if got.Username != "search" || got.Password != "secret" {
		t.Errorf("expected ACL credentials, got %q/%q", got.Username, got.Password)
	}
}
