package logger

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Приватный тип ключей контекста — защита от коллизий с другими пакетами.
type ctxKey string

const (
	// traceIDKey — ключ trace_id в контексте. Trace ID генерируется на
	// входе в HTTP-слой и связывает все записи одного запроса.
	traceIDKey ctxKey = "trace_id"

	// loggerKey — ключ настроенного логгера в контексте.
	loggerKey ctxKey = "logger"
)

// WithTraceID добавляет trace_id в контекст.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext извлекает trace_id из контекста. Если явного trace_id
// нет, берёт ID активного OpenTelemetry спана, чтобы записи связывались
// с трейсом. Возвращает пустую строку, если нет ни того, ни другого.
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// WithLogger добавляет логгер в контекст для передачи через слои приложения.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext извлекает логгер из контекста, автоматически добавляя trace_id,
// если он есть. Это основной способ получения логгера в сервисах и хендлерах:
//
//	log := logger.FromContext(ctx)
//	log.Info().Str("order_id", orderID).Msg("Начало взвешивания")
func FromContext(ctx context.Context) zerolog.Logger {
	l := log
	if ctxLogger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		l = ctxLogger
	}

	if traceID := TraceIDFromContext(ctx); traceID != "" {
		l = l.With().Str("trace_id", traceID).Logger()
	}

	return l
}
