package observe

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// fixedRoutes are the gateway's static paths. Anything outside this set and
// the parameterised routes below is collapsed to one label so that scanners
// and per-chapter URLs cannot inflate metric cardinality.
var fixedRoutes = map[string]struct{}{
	"/":          {},
	"/api/greet": {},
	"/api/speak": {},
	"/api/chat":  {},
	"/healthz":   {},
	"/readyz":    {},
	"/metrics":   {},
}

// routeLabel maps a request path onto its route template for use as a metric
// and span label. The chapter number is the only path parameter the gateway
// has, in two routes.
func routeLabel(path string) string {
	if _, ok := fixedRoutes[path]; ok {
		return path
	}
	switch {
	case strings.HasPrefix(path, "/api/ask_chapter_assistant/"):
		return "/api/ask_chapter_assistant/{chapterNum}"
	case strings.HasPrefix(path, "/chapter/"):
		return "/chapter/{num}"
	}
	return "/unmatched"
}

// statusRecorder wraps [http.ResponseWriter] to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every gateway request: it picks up W3C Trace
// Context from the incoming headers (or starts a new trace), opens a server
// span named after the route template, exposes the trace ID as
// X-Correlation-ID, records the request duration histogram per method and
// route, and logs completion with status and timing.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeLabel(r.URL.Path)

			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRoute(route),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
				),
			)
			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.statusCode))

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Duration("duration", duration),
			)
		})
	}
}
