// Package logctx carries the request or event scoped logger on a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type loggerKey struct{}

func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr returns the context logger, or fallback when the context carries none.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}

// Enrich adds correlation fields (order id, cart id, ...) to the context logger so every
// later line of the same saga step carries them. Empty values are skipped.
func Enrich(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	kept := fields[:0:0]
	for _, f := range fields {
		if s, ok := f.Value.(string); ok && s == "" {
			continue
		}
		kept = append(kept, f)
	}
	logger := FromOr(ctx, fallback)
	if logger == nil || len(kept) == 0 {
		return ctx
	}
	return With(ctx, logger.With(kept...))
}
