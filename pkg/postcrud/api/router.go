package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// JWTSecret enables HS256 bearer token auth on /api/v1 when set.
	JWTSecret string
	// APIToken enables a static bearer token on /api/v1 when set.
	APIToken string
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
	// Timeout bounds each request; 0 means 60s.
	Timeout time.Duration
}

// NewRouter builds the full HTTP surface: standard middleware, /health and
// the item routes under /api/v1.
func NewRouter(items *ItemHandler, opts RouterOptions) chi.Router {
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" || opts.APIToken != "" {
			var ja *jwtauth.JWTAuth
			if opts.JWTSecret != "" {
				ja = NewJWTAuth(opts.JWTSecret)
			}
			r.Use(AuthMiddleware(ja, opts.APIToken))
		}
		r.Use(RequestSizeLimitMiddleware(opts.MaxBodyBytes))
		r.Mount("/", items.Routes())
	})

	return r
}

// NewJWTAuth returns the HS256 verifier used for bearer tokens.
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status": "healthy",
	})
}
