// internal/middleware/middleware.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"funnelgate/internal/logger"
	"funnelgate/internal/metrics"
)

// Request context keys
type contextKey string

const (
	RequestIDKey       contextKey = "request_id"
	AutomatedClientKey contextKey = "automated_client"
)

// Standard API error response
type APIError struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Per-IP rate limiting
var (
	ipRateLimiter = make(map[string]time.Time)
	ipRateMu      sync.Mutex
	ipRateWindow  = time.Second // minimum gap between requests per IP
)

// RequestID middleware adds a unique request ID to each request
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging middleware logs all requests with status and duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.LogInfo("%s %s -> %d from %s in %v",
			r.Method, r.URL.Path, rw.statusCode, logger.GetClientIP(r), time.Since(start))
	})
}

// Instrument records request counts per path and status
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)
			m.RecordRequest(r.URL.Path, strconv.Itoa(rw.statusCode))
		})
	}
}

// Recover provides panic recovery with a consistent error response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.LogError("Panic in handler for %s %s: %v", r.Method, r.URL.Path, err)
				WriteAPIError(w, r, http.StatusInternalServerError, "internal error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS adds CORS headers and handles OPTIONS preflight requests.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit enforces a minimum gap between requests per client IP.
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := logger.GetClientIP(r)

		ipRateMu.Lock()
		last, exists := ipRateLimiter[ip]
		now := time.Now()
		if exists && now.Sub(last) < ipRateWindow {
			ipRateMu.Unlock()
			WriteAPIError(w, r, http.StatusTooManyRequests,
				"too many requests, please wait before trying again", "")
			return
		}
		ipRateLimiter[ip] = now
		ipRateMu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// ClientDetection decides once per request whether the caller is an
// automated agent and stores the flag in the context. Components that
// suppress human-facing side effects read it from there instead of
// inspecting the user agent themselves.
func ClientDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.Header.Get("User-Agent"))
		automated := ua.Bot() || r.Header.Get("User-Agent") == ""
		ctx := context.WithValue(r.Context(), AutomatedClientKey, automated)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsAutomatedClient reports the flag set by ClientDetection.
func IsAutomatedClient(ctx context.Context) bool {
	if automated, ok := ctx.Value(AutomatedClientKey).(bool); ok {
		return automated
	}
	return false
}

// GetRequestID retrieves the request ID from request context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WriteAPIError writes a standardized error response
func WriteAPIError(w http.ResponseWriter, r *http.Request, statusCode int, message, details string) {
	response := APIError{
		Error:     message,
		Details:   details,
		RequestID: GetRequestID(r.Context()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteJSON writes data as a JSON response with status 200
func WriteJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// ParseJSONRequest parses a JSON request body into the provided struct
func ParseJSONRequest(r *http.Request, v interface{}) error {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	return rw.ResponseWriter.Write(b)
}
