package router

import (
	"net/http"

	"cart-offer/internal/handler"
	"cart-offer/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options configures the cross-cutting behaviour of the router.
type Options struct {
	// APIKey enables X-API-Key authentication when non-empty.
	APIKey string
	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(
	offerHandler *handler.OfferHandler,
	cartHandler *handler.CartHandler,
	opts Options,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware order: RequestID -> Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.CORS(opts.CORSOrigins))
	}
	if opts.APIKey != "" {
		r.Use(middleware.APIKeyAuth(opts.APIKey, logger))
	}

	r.NotFound(handler.NotFound(logger))
	r.MethodNotAllowed(handler.MethodNotAllowed(logger))

	// Health check endpoint (no authentication required)
	r.Get(middleware.HealthPath, handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/offer", offerHandler.Create)
		r.Post("/cart/apply_offer", cartHandler.ApplyOffer)
	})

	return otelhttp.NewHandler(r, "cart-offer",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != middleware.HealthPath
		}),
	)
}
