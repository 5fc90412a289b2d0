// Package trace logs and measures every HTTP request.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "smartsplit/internal/log"
	"smartsplit/internal/observability"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	total     int64
	failed    int64
	now       func() time.Time
}

// Stats is a snapshot of the request counters.
type Stats struct {
	TotalRequests int64
	ServerErrors  int64
}

func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP, now: time.Now}
}

// Handler logs request completion through the context logger and records
// the request in the HTTP metrics, labelled by chi route pattern.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := m.now().Sub(start)

		atomic.AddInt64(&m.total, 1)
		if status >= 500 {
			atomic.AddInt64(&m.failed, 1)
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		ctx := r.Context()
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogHTTPEnd(ctx, r, status, elapsed.Milliseconds(), clientIP)
		observability.ObserveHTTP(r.Method, routePattern(r), status, elapsed)
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// Stats returns the counters collected so far.
func (m *Middleware) Stats() Stats {
	return Stats{
		TotalRequests: atomic.LoadInt64(&m.total),
		ServerErrors:  atomic.LoadInt64(&m.failed),
	}
}

// RequestID returns the chi request id of r, or "".
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
