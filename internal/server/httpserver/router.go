package httpserver

import (
	"net/http"

	"github.com/yndnr/sod-go/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics serves GET /metrics. Nil answers 404.
	Metrics http.Handler

	// Ready reports readiness for GET /ready. Nil is always ready.
	Ready func() error

	// Logger for access and panic logging.
	Logger logger.Logger
}

// NewRouter builds the mux with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /ready", readyHandler(cfg.Ready))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Order: RequestID -> Recover -> Access -> mux
	return Chain(mux, RequestID(), Recover(log), Access(log))
}
