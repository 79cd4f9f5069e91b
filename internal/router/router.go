// Package router sets up all HTTP routes and middleware chains for the
// newsmap API. Every route is a read except cache revalidation, which is
// token-guarded and rate limited.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"newsmap/internal/handlers"
	"newsmap/internal/metrics"
	"newsmap/internal/middleware"
)

// healthTimeout bounds the store ping behind /health.
const healthTimeout = 2 * time.Second

// Pinger reports whether the backing store answers. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// New creates and returns the configured Chi router with all middleware
// and routes wired up. db may be nil, in which case /health always
// reports ok.
func New(api *handlers.API, revalidate *handlers.Revalidate, db Pinger, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{"X-Has-More", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler(db))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/locations", func(r chi.Router) {
		r.Get("/", api.Locations)
		r.Get("/recent", api.RecentLocations)
		r.Get("/{article_uuid}", api.ArticleLocations)
	})

	r.Route("/articles/{place_id}", func(r chi.Router) {
		r.Get("/", api.PlaceArticles)
		r.Get("/page", api.PlaceArticlePage)
	})

	limiter := middleware.NewRateLimiter(10, time.Minute)
	r.With(limiter.Middleware).Post("/cache/revalidate", revalidate.ServeHTTP)

	return r
}

// healthHandler reports ok while the store answers a ping and 503
// otherwise.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
