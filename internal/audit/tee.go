package audit

import "context"

type tee []AuditLogger

// Tee returns an AuditLogger that forwards every event to each sink, e.g.
// the Postgres audit table plus the telemetry exporter.
func Tee(sinks ...AuditLogger) AuditLogger {
	return tee(sinks)
}

func (t tee) LogEvent(ctx context.Context, actorID int64, action, resource, metadata string) {
	for _, s := range t {
		if s != nil {
			s.LogEvent(ctx, actorID, action, resource, metadata)
		}
	}
}
