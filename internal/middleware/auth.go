package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/aplenty-server/internal/config"
)

type CtxKey int

const (
	CtxAuthorClaims CtxKey = iota
)

// Auth puts valid bearer token claims into the request context. Requests
// without a valid token pass through unchanged.
func Auth(log *logrus.Logger, j *config.JWT) Middleware {
	return func(h http.Handler) http.Handler {
		if j == nil {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				h.ServeHTTP(w, r)
				return
			}
			claims := &config.AuthorClaims{}
			if _, err := j.ParseWithClaims(token, claims); err != nil {
				log.WithError(err).Debug("rejected bearer token")
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxAuthorClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthorFrom returns the authenticated author, if any.
func AuthorFrom(ctx context.Context) (string, bool) {
	claims, ok := ctx.Value(CtxAuthorClaims).(*config.AuthorClaims)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// RequireAuth rejects requests without claims with 401. It is a no-op when
// auth is disabled.
func RequireAuth(j *config.JWT, h http.HandlerFunc) http.HandlerFunc {
	if j == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := AuthorFrom(r.Context()); !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}
