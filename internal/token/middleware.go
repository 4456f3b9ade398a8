package token

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey struct{}

var identityKey contextKey

// Identity returns the verified token subject stored by RequireAuth.
func Identity(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(identityKey).(string)
	return email, ok
}

// RequireAuth verifies the Authorization bearer token and stores the
// subject email in the request context. Missing, malformed and expired
// tokens all get the same 401 response.
func RequireAuth(issuer *Issuer, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				unauthorized(w)
				return
			}
			email, err := issuer.Verify(strings.TrimSpace(header[len("bearer "):]))
			if err != nil {
				logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthenticated.Error()})
}
