package middleware

import (
	"context"
	"net/http"
	"strings"

	"tandem-server/utils/errors"
)

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

type contextKey string

const accountIDKey contextKey = "accountID"

// TokenVerifier resolves a session token to an account id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid session token and stores
// the account id in the request context. The token cookie is tried first,
// then an Authorization: Bearer header.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range tokensFromRequest(r) {
				if accountID, err := verifier.Verify(token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
					return
				}
			}
			WriteError(w, errors.ErrUnauthorized)
		})
	}
}

func tokensFromRequest(r *http.Request) []string {
	var tokens []string
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	authHeader := r.Header.Get("Authorization")
	if bearer, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		if bearer = strings.TrimSpace(bearer); bearer != "" {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext returns the account id set by AuthMiddleware.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}
