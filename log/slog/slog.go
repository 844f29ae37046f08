// Package slog adapts a *slog.Logger to squirrel.Logger.
package slog

import (
	"context"
	stdslog "log/slog"
	"maps"
	"slices"

	"github.com/LeoNavel/Squirrel"
)

var _ squirrel.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New groups every record under the "squirrel" logger attribute.
func New(l *stdslog.Logger) Logger { return Logger{L: l.With("logger", "squirrel")} }

func (s Logger) Debug(msg string, f squirrel.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f squirrel.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f squirrel.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f squirrel.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f squirrel.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f squirrel.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
