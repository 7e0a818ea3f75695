package logging

import (
	"context"

	"go.uber.org/zap"

	"outreach/internal/services"
)

// ContextFields extracts standardized zap fields from the provided context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields := make([]zap.Field, 0, 5)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, zap.Int64(FieldItemID, id))
	}
	if id, ok := services.TaskIDFromContext(ctx); ok {
		fields = append(fields, zap.Int64(FieldTaskID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, zap.String(FieldStage, stage))
	}
	if worker, ok := services.WorkerIDFromContext(ctx); ok {
		fields = append(fields, zap.String(FieldWorkerID, worker))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, zap.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// Event tags a line with its lifecycle event type.
func Event(eventType string) zap.Field {
	return zap.String(FieldEventType, eventType)
}

// Hint attaches an operator-facing next step.
func Hint(hint string) zap.Field {
	return zap.String(FieldErrorHint, hint)
}

// ErrorKind tags a line with the failure class of err.
func ErrorKind(err error) zap.Field {
	return zap.String(FieldErrorKind, string(services.FailureKind(err)))
}
