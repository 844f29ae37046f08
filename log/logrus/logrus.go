// Package logrus adapts a *logrus.Entry to squirrel.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/LeoNavel/Squirrel"
)

var _ squirrel.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=squirrel.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "squirrel")}
}

func (l LogrusLogger) Debug(msg string, f squirrel.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f squirrel.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f squirrel.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f squirrel.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f squirrel.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	// logrus renders an "err" field specially only under ErrorKey.
	if err, ok := f["err"].(error); ok {
		rest := make(logrus.Fields, len(f))
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return l.E.WithError(err).WithFields(rest)
	}
	return l.E.WithFields(logrus.Fields(f))
}
