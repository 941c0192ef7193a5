package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/models/intfloat/multilingual-e5-large/pipeline/feature-extraction" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req featureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Inputs == "" {
			t.Errorf("unexpected request body: %+v %v", req, err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEmbedder_FlatResponse(t *testing.T) {
	server := newServer(t, http.StatusOK, `[0.1, 0.2, 0.3]`)
	emb := NewEmbedder(&Config{APIKey: "hf_test", BaseURL: server.URL + "/"})

	result, err := emb.Embed(context.Background(), "passage: oak table")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[2] != 0.3 {
		t.Errorf("unexpected embedding %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Errorf("expected no token usage, got %d", result.TotalTokens)
	}
}

func TestEmbedder_NestedResponse(t *testing.T) {
	server := newServer(t, http.StatusOK, `[[0.5, 0.6], [0.7, 0.8]]`)
	emb := NewEmbedder(&Config{APIKey: "hf_test", BaseURL: server.URL})

	result, err := emb.Embed(context.Background(), "query: sofa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 2 || result.Embedding[0] != 0.5 {
		t.Errorf("expected first row, got %v", result.Embedding)
	}
}

func TestEmbedder_EmptyResponse(t *testing.T) {
	for _, body := range []string{`[]`, `[[]]`, `{"unexpected": true}`} {
		server := newServer(t, http.StatusOK, body)
		emb := NewEmbedder(&Config{APIKey: "hf_test", BaseURL: server.URL})

		if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
			t.Errorf("body %s: expected ErrEmbeddingProviderError, got %v", body, err)
		}
	}
}

func TestEmbedder_APIError(t *testing.T) {
	server := newServer(t, http.StatusServiceUnavailable, `{"error":"Model is currently loading"}`)
	emb := NewEmbedder(&Config{APIKey: "hf_test", BaseURL: server.URL})

	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "Model is currently loading") {
		t.Errorf("expected status and message in error, got %v", err)
	}
}

func TestNewEmbedder_Defaults(t *testing.T) {
	emb := NewEmbedder(&Config{})
	want := DefaultBaseURL + "/models/" + DefaultModel + "/pipeline/feature-extraction"
	if emb.url != want {
		t.Errorf("url = %q, want %q", emb.url, want)
	}
}

func TestErrorMessage(t *testing.T) {
	if got := errorMessage([]byte(`{"error":"bad token"}`)); got != "bad token" {
		t.Errorf("got %q", got)
	}
	if got := errorMessage([]byte(" gateway timeout \n")); got != "gateway timeout" {
		t.Errorf("got %q", got)
	}
}
