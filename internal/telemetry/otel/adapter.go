package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// AuthEventLogger exports auth events as OTel log records via the given
// LoggerProvider. It satisfies the audit AuditLogger interface so it can be
// fanned out next to the Postgres audit sink.
type AuthEventLogger struct {
	logger otellog.Logger
}

// NewAuthEventLogger returns an AuthEventLogger. If provider is nil, the
// logger is a no-op.
func NewAuthEventLogger(provider *sdklog.LoggerProvider) *AuthEventLogger {
	if provider == nil {
		return &AuthEventLogger{}
	}
	return &AuthEventLogger{logger: provider.Logger("food-rescue.auth")}
}

// LogEvent emits one log record. Best-effort; the exporter batches and
// drops on backpressure rather than blocking the caller.
func (l *AuthEventLogger) LogEvent(ctx context.Context, actorID int64, action, resource, metadata string) {
	if l.logger == nil {
		return
	}
	rec := otellog.Record{}
	rec.SetTimestamp(time.Now().UTC())
	rec.SetBody(otellog.StringValue(action))
	rec.AddAttributes(otellog.String("resource", resource))
	if actorID != 0 {
		rec.AddAttributes(otellog.Int64("actor_id", actorID))
	}
	if metadata != "" {
		rec.AddAttributes(otellog.String("metadata", metadata))
	}
	l.logger.Emit(ctx, rec)
}
