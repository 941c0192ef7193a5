// Package huggingface embeds text through the Hugging Face Inference feature-extraction pipeline.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/metrics"
)

// Provider is the metrics label for this embedder.
const Provider = "huggingface"

// Defaults used when the config leaves them empty.
const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference"
	DefaultModel   = "intfloat/multilingual-e5-large"
)

// maxErrorBody caps how much of an error response ends up in the error message.
const maxErrorBody = 512

// Config holds the inference endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Embedder calls the feature-extraction pipeline of one model.
type Embedder struct {
	url    string
	apiKey string
	model  string
	http   *http.Client
}

type featureRequest struct {
	Inputs string `json:"inputs"`
}

// NewEmbedder creates a Hugging Face embedder.
func NewEmbedder(cfg *Config) *Embedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Embedder{
		url:    fmt.Sprintf("%s/models/%s/pipeline/feature-extraction", baseURL, model),
		apiKey: cfg.APIKey,
		model:  model,
		http:   &http.Client{Timeout: timeout},
	}
}

// Embed implements domain.Embedder. The pipeline reports no token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	vec, errType, err := e.featureExtraction(ctx, text)
	if err != nil {
		metrics.ObserveEmbeddingFailure(Provider, e.model, errType)
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}

	metrics.ObserveEmbeddingSuccess(Provider, e.model, time.Since(start), 0, 0)
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func (e *Embedder) featureExtraction(ctx context.Context, text string) ([]float32, string, error) {
	body, err := json.Marshal(featureRequest{Inputs: text})
	if err != nil {
		return nil, "encode", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, "encode", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, "transport", fmt.Errorf("failed to call inference API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "api_error", fmt.Errorf("inference API returned status %d: %s",
			resp.StatusCode, errorMessage(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "transport", fmt.Errorf("failed to read response: %w", err)
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, "empty_response", err
	}
	return vec, "", nil
}

// decodeVector accepts a flat vector or a batch of vectors, in which case the first row is used.
func decodeVector(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("empty embedding response")
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return nested[0], nil
}

// errorMessage extracts the "error" field of an inference API error body.
func errorMessage(raw []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(raw))
}
