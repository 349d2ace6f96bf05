package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger creates a logging middleware. Frame polling, ticks, health and
// metrics scrapes log at debug level since clients issue them continuously.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			}
			if sessionID := chi.URLParam(r, "sessionID"); sessionID != "" {
				fields = append(fields, zap.String("session", sessionID))
			}
			switch {
			case ww.Status() >= 500:
				logger.Error("HTTP Request", fields...)
			case isPolling(r):
				logger.Debug("HTTP Request", fields...)
			default:
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}

func isPolling(r *http.Request) bool {
	path := r.URL.Path
	if path == "/health" || path == "/metrics" {
		return true
	}
	return strings.HasSuffix(path, "/frame") ||
		strings.HasSuffix(path, "/tick") ||
		strings.HasSuffix(path, "/drag/move") ||
		strings.HasSuffix(path, "/hover")
}
