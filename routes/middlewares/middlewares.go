package middlewares

import (
	"net/http"
	"strings"

	"github.com/mbolis/quick-survey/apperr"
	"github.com/mbolis/quick-survey/auth"
	"github.com/mbolis/quick-survey/httpx"
)

// TokenCookie holds the access token for browser clients.
const TokenCookie = "token"

type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// Identity decodes the caller's credential, from the Authorization header
// or the token cookie, and stores it in the request context. Requests
// without a credential pass through anonymously; a bad credential is
// rejected with 401.
func Identity(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := tokens.Parse(token)
			if err != nil {
				httpx.Fail(w, "auth.parse_token", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// TokenFrom returns the access token of the request, or "" if it carries none.
func TokenFrom(r *http.Request) string {
	header := r.Header.Get("authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticated rejects anonymous requests.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			httpx.Fail(w, "auth.required", apperr.Unauthenticated("not authenticated", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Admin middleware to check for the 'admin' role of the caller.
func Admin(next http.Handler) http.Handler {
	return Authenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if err := auth.RequireAdmin(id); err != nil {
			httpx.Fail(w, "auth.admin", err)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
