package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const callerContextKey contextKey = "todo_caller"

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerContextKey).(Caller)
	return c, ok
}

// TokenCookieName is the cookie fallback for bearer transport. The
// Authorization header takes precedence when both are present.
const TokenCookieName = "access_token"

func bearerFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

func rejectJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

// Middleware validates the bearer token on every request and stores the
// resulting Caller in the request context. The response never reveals which
// validation check failed; the cause goes to the debug log.
func Middleware(codec *TokenCodec, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerFromRequest(r)
			if raw == "" {
				rejectJSON(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			claims, err := codec.Validate(raw)
			if err != nil {
				logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				rejectJSON(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			d := Decide(claims, false)
			if !d.Allowed {
				rejectJSON(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), d.Caller)))
		})
	}
}

// RequireAdmin gates administrative routes. It assumes Middleware already
// ran and rejects non-admin callers with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			rejectJSON(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if !caller.IsAdmin() {
			rejectJSON(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
