// Package chi exposes the webhook, search and item endpoints over a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartsearch/internal/domain"
	"github.com/kailas-cloud/smartsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/smartsearch/internal/usecase/health"
	"github.com/kailas-cloud/smartsearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/smartsearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Q        *string
	Type     *string
	MinScore *float64
}

// Server serves the smartsearch HTTP API.
type Server struct {
	ingest        *ingest.Service
	search        *searchuc.Service
	health        *healthuc.Service
	defaults      request.Defaults
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingestSvc *ingest.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	defaults request.Defaults,
	maxBodyBytes int64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:       ingestSvc,
		search:       search,
		health:       health,
		defaults:     defaults,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "Item not found"),
		sentinelHandler(domain.ErrInvalidPayload, http.StatusBadRequest, domain.ErrInvalidPayload.Error()),
	}
	return s
}

// Routes registers the API endpoints on r. webhookAuth guards POST /webhook only.
func (s *Server) Routes(r chi.Router, webhookAuth func(http.Handler) http.Handler) {
	r.With(webhookAuth).Post("/webhook", s.Webhook)
	r.Get("/search", s.Search)
	r.Get("/item/{id}", s.GetItem)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Webhook handles POST /webhook.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	var payload ingest.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Webhook payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	if _, err := s.ingest.Ingest(ctx, &payload); err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	query := r.URL.Query()
	// an empty minScore means the configured default
	if query.Get("minScore") == "" {
		query.Del("minScore")
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter q")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "type", query, &params.Type); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter type")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "minScore", query, &params.MinScore); err != nil {
		writeError(w, http.StatusBadRequest, "minScore must be a number")
		return
	}

	req, err := request.New(deref(params.Q), deref(params.Type), params.MinScore, s.defaults)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.search.Search(ctx, req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, matches)
}

// GetItem handles GET /item/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format for parameter id")
		return
	}

	item, err := s.search.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the {"error": message} body used by every failing endpoint.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// validationHandler reports the client-facing reason of a ValidationError.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeError(w, http.StatusBadRequest, ve.Reason)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			s.logger.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, safeInternalMessage(err))
}

// safeInternalMessage names the failing dependency without exposing provider or driver details.
func safeInternalMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return domain.ErrEmbeddingProviderError.Error()
	case errors.Is(err, domain.ErrIndexUnavailable):
		return domain.ErrIndexUnavailable.Error()
	}
	return "internal error"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
