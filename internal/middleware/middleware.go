package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const requestIDHeader = "X-Request-ID"

// monitorPaths are polled by monitoring and logged at debug level only.
var monitorPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// recorder remembers the status code and body size written through it.
// Logging and Metrics share one recorder per request.
type recorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (rw *recorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Unwrap lets http.ResponseController reach Flush and deadlines of the
// underlying writer (server-sent events).
func (rw *recorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func wrap(w http.ResponseWriter) *recorder {
	if rw, ok := w.(*recorder); ok {
		return rw
	}
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

// routePattern is the matched chi pattern, known only after routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GetRequestID(r.Context())

		inLevel := zapcore.InfoLevel
		if monitorPaths[r.URL.Path] {
			inLevel = zapcore.DebugLevel
		}
		logger.Log(inLevel,
			"HTTP_IN: Начало запроса",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr),
		)

		rw := wrap(w)
		next.ServeHTTP(rw, r)

		outLevel := inLevel
		switch {
		case rw.status >= 500:
			outLevel = zapcore.ErrorLevel
		case rw.status >= 400:
			outLevel = zapcore.WarnLevel
		}
		logger.Log(outLevel,
			"HTTP_OUT: Завершение запроса",
			zap.String("request_id", requestID),
			zap.String("route", routePattern(r)),
			zap.Int("status", rw.status),
			zap.Int("bytes_written", rw.size),
			zap.Duration("ms", time.Since(start)),
		)
	})
}
