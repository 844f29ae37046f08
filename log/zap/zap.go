// Package zap adapts a *zap.Logger to squirrel.Logger.
package zap

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/LeoNavel/Squirrel"
)

var _ squirrel.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "squirrel".
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("squirrel")} }

func (z ZapLogger) Debug(msg string, f squirrel.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f squirrel.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f squirrel.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f squirrel.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; errors use zap's error encoding.
func zf(f squirrel.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
