package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ppiankov/dontsign/internal/worker"
)

// RouterConfig wires the API
type RouterConfig struct {
	Handler      *Handler
	Limiter      *worker.Limiter
	Logger       *zap.Logger
	MaxBodyBytes int64
	CORSOrigins  []string
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Sentry)
	r.Use(AccessLog(logger))
	r.Use(MaxBodyBytes(cfg.MaxBodyBytes))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.Get("/health", cfg.Handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimit(cfg.Limiter))
		r.Post("/analyze", cfg.Handler.Analyze)
		r.Post("/analyze/sync", cfg.Handler.AnalyzeSync)
	})

	return r
}
