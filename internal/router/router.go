package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level
// using the provided sugared logger. Each request gets a KSUID request id so
// lines from the same request can be correlated.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := utilities.NewRequestID()
			w.Header().Set("X-Request-ID", reqID)
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's
// http.ServeMux. The /todos tree and the administrative /auth/todos listing
// require a valid bearer token; /auth/token and /auth/users are public.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, codec *auth.TokenCodec) http.Handler {
	authHandler := auth.NewHandler(db, codec, logger)
	todoHandler := todo.NewHandler(db, logger)
	return Mount(logger, codec, authHandler, todoHandler)
}

// Mount wires routes for already-constructed handlers. Split out from
// RegisterRoutes so tests can mount handlers backed by in-memory stores.
func Mount(logger *zap.SugaredLogger, codec *auth.TokenCodec, authHandler *auth.Handler, todoHandler *todo.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK", "message": "Up & Running!"})
	})

	// public auth routes
	mux.HandleFunc("POST /auth/token", authHandler.Token)
	mux.HandleFunc("POST /auth/users", authHandler.CreateUser)

	secured := auth.Middleware(codec, logger)

	// administrative listing across all owners
	mux.Handle("GET /auth/todos", secured(auth.RequireAdmin(http.HandlerFunc(todoHandler.ListAll))))

	// owner-scoped todo routes
	mux.Handle("GET /todos", secured(http.HandlerFunc(todoHandler.List)))
	mux.Handle("POST /todos", secured(http.HandlerFunc(todoHandler.Create)))
	mux.Handle("GET /todos/{id}", secured(http.HandlerFunc(todoHandler.Get)))
	mux.Handle("PUT /todos/{id}", secured(http.HandlerFunc(todoHandler.Update)))
	mux.Handle("DELETE /todos/{id}", secured(http.HandlerFunc(todoHandler.Delete)))

	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
