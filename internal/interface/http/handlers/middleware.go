package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// MiddlewareFunc wraps a handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain applies middlewares so that the first one is outermost.
func Chain(handler http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST ID
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// RequestIDMiddleware propagates X-Request-ID or assigns a new one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

// RequestID returns the request ID stored in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING & RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request. Probe endpoints log at debug level.
func LoggingMiddleware(log *logger.Logger) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", rec.status),
				logger.Latency(time.Since(start)),
				logger.String("request_id", RequestID(r.Context())),
			}
			if isProbe(r.URL.Path) {
				log.Debug("http request", fields...)
				return
			}
			log.Info("http request", fields...)
		})
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/healthz", "/ready", "/live", "/metrics":
		return true
	}
	return false
}

// RecoveryMiddleware turns panics into 500 responses.
func RecoveryMiddleware(log *logger.Logger) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered",
						logger.Any("error", err),
						logger.String("stack", string(debug.Stack())),
						logger.String("path", r.URL.Path),
						logger.String("request_id", RequestID(r.Context())),
					)
					WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// APIKeyAuth checks a static API key in a header or a Bearer token.
type APIKeyAuth struct {
	headerName string
	key        string
}

// NewAPIKeyAuth creates an APIKeyAuth. An empty key rejects every request.
func NewAPIKeyAuth(headerName, key string) *APIKeyAuth {
	if headerName == "" {
		headerName = "X-API-Key"
	}
	return &APIKeyAuth{headerName: headerName, key: key}
}

// IsValid checks key in constant time.
func (a *APIKeyAuth) IsValid(key string) bool {
	if a.key == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.key), []byte(key)) == 1
}

// Middleware rejects requests without a valid key.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.headerName)
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			WriteError(w, http.StatusUnauthorized, "missing_api_key", "API key is required")
			return
		}
		if !a.IsValid(key) {
			WriteError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
