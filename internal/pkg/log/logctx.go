// log — прокидывание *slog.Logger через context.Context.
//
// Клиент используется и как библиотека, и из CLI: логгер не хранится в
// глобальной переменной, а передаётся через контекст вызова; From всегда
// возвращает рабочий логгер (slog.Default как fallback).
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
