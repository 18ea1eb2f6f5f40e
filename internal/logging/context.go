package logging

import (
	"context"
	"log/slog"

	"relish/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID is the standardized structured logging key for bulk-ingestion batch identifiers.
	FieldBatchID = "batch_id"
	// FieldLine is the standardized structured logging key for submission line numbers.
	FieldLine = "line"
	// FieldCategory is the standardized structured logging key for catalog categories.
	FieldCategory = "category"
	// FieldEntityID is the standardized structured logging key for catalog entity identifiers.
	FieldEntityID = "entity_id"
	// FieldChangeID is the standardized structured logging key for proposed-change identifiers.
	FieldChangeID = "change_id"
	// FieldPostalCode is the standardized structured logging key for postal codes.
	FieldPostalCode = "postal_code"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.BatchIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if line, ok := services.LineFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldLine, line))
	}
	if category, ok := services.CategoryFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCategory, category))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
