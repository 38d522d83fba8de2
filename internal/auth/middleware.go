package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	logpkg "github.com/rzbill/auditlog/pkg/log"
)

// Middleware authenticates each request. Requests without credentials pass
// through anonymously; requests with rejected credentials get 401.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := a.Authenticate(r.Header.Get)
			switch {
			case errors.Is(err, ErrNoCredentials):
				next.ServeHTTP(w, r)
			case err != nil:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="auditlog"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			default:
				ctx := WithAccount(r.Context(), account)
				ctx = logpkg.ContextWith(ctx, logpkg.CallerIDKey, string(account))
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
