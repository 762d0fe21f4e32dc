package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachdesk/internal/metrics"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

// RequestIDHeader carries the per-request ID back to the caller.
const RequestIDHeader = "X-Request-ID"

// responseRecorder remembers what the handler sent so Timing can report it.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

// Timing returns middleware that tags each request with an ID, logs its duration and
// feeds the request metrics. /static/ and /metrics are passed through untouched.
// Requests at or above slowRequestMs log at WARN, the rest at DEBUG.
// A non-positive slowRequestMs uses DefaultSlowRequestMs. m may be nil.
func Timing(m *metrics.Manager, slowRequestMs int) func(http.Handler) http.Handler {
	if slowRequestMs <= 0 {
		slowRequestMs = DefaultSlowRequestMs
	}
	slow := time.Duration(slowRequestMs) * time.Millisecond

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			route := RouteLabel(r.URL.Path)
			start := time.Now()
			defer func() {
				elapsed := time.Since(start)
				level := slog.LevelDebug
				event := "request"
				if elapsed >= slow {
					level, event = slog.LevelWarn, "slow_request"
				}
				slog.Log(r.Context(), level, event,
					"request_id", reqID,
					"method", r.Method,
					"route", route,
					"status", rec.status,
					"bytes", rec.bytes,
					"duration_ms", float64(elapsed.Microseconds())/1000.0,
				)
				if m != nil {
					m.HistRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
					m.CounterRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// RouteLabel collapses a request path into a low-cardinality label by replacing the
// ID segments of the client, session and period routes with placeholders.
// Paths outside those routes keep their first segment only.
func RouteLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[0] == "api" && (parts[1] == "clients" || parts[1] == "sessions"):
		parts[2] = "{id}"
		if len(parts) >= 5 && parts[3] == "periods" {
			parts[4] = "{number}"
		}
		return "/" + strings.Join(parts, "/")
	case len(parts) >= 2 && parts[0] == "clients":
		parts[1] = "{id}"
		return "/" + strings.Join(parts, "/")
	case len(parts) >= 2 && parts[0] == "api":
		return "/" + strings.Join(parts, "/")
	default:
		return "/" + parts[0]
	}
}
