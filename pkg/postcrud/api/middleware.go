package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// RequestSizeLimitMiddleware limits the size of request bodies
func RequestSizeLimitMiddleware(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware admits a request carrying either the static API token or a
// bearer JWT that verifies against ja. Either may be unset; with neither set
// every request is rejected.
func AuthMiddleware(ja *jwtauth.JWTAuth, apiToken string) Middleware {
	return func(next http.Handler) http.Handler {
		var verified http.Handler
		if ja != nil {
			verified = jwtauth.Verifier(ja)(jwtauth.Authenticator(next))
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiToken != "" {
				token := jwtauth.TokenFromHeader(r)
				if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			if verified != nil {
				verified.ServeHTTP(w, r)
				return
			}

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: ErrorBody{
				Code:    "unauthorized",
				Message: "Authentication required",
			}})
		})
	}
}
