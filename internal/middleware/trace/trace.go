package trace

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"
)

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string

	totalRequests int64
	totalMicros   int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64 `json:"totalRequests"`
	AverageResponseTime int64 `json:"averageResponseTimeMicros"`
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentTrace),
		extractIP: extractIP,
	}
}

// Middleware assigns a request ID, stores a request-scoped logger in the
// context and logs the completed request.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	sl := log.NewStructuredLogger(m.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		m.logger.DebugContext(ctx, "HTTP request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.AddInt64(&m.totalRequests, 1)
		atomic.AddInt64(&m.totalMicros, duration.Microseconds())

		sl.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code. It
// passes Hijack and Flush through so WebSocket upgrades keep working.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	n := atomic.LoadInt64(&m.totalRequests)
	out := Metrics{TotalRequests: n}
	if n > 0 {
		out.AverageResponseTime = atomic.LoadInt64(&m.totalMicros) / n
	}
	return out
}
