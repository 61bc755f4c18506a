package zaplogger

import (
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"go.uber.org/zap"
)

type Logger struct{ l *zap.Logger }

// New adapts a zap logger (see pkg/logging) to the observability port. A nil logger discards.
func New(l *zap.Logger, fixed ...observability.Field) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fixed) > 0 {
		l = l.With(toZapFields(fixed)...)
	}
	return &Logger{l: l}
}

func (z *Logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return &Logger{l: z.l}
	}
	return &Logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *Logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *Logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *Logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *Logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

// Sync flushes any buffered log entries. Safe to call on shutdown.
func (z *Logger) Sync() error {
	return z.l.Sync()
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
