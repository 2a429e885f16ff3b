package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry opens a server span per request and records request count and
// duration, using the globally registered OpenTelemetry providers.
func Telemetry(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)
	meter := otel.Meter(serviceName)
	duration, _ := meter.Float64Histogram("http.server.duration", metric.WithUnit("ms"))
	requests, _ := meter.Int64Counter("http.server.requests")

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		}
		span.SetAttributes(attrs...)
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		span.End()

		opts := metric.WithAttributes(attrs...)
		if duration != nil {
			duration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), opts)
		}
		if requests != nil {
			requests.Add(ctx, 1, opts)
		}
	}
}
