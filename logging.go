package bar123

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus logger to the Logger interface.
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger creates a Logger backed by logrus at the given level.
// Unknown level strings fall back to info.
func NewLogrusLogger(level string) *LogrusLogger {
	log := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	log.SetLevel(parsed)

	return &LogrusLogger{log: log}
}

// WrapLogrus wraps an existing logrus logger in the Logger interface.
func WrapLogrus(log *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{log: log}
}

// Debugf logs at debug level.
func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

// Infof logs at info level.
func (l *LogrusLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Warnf logs at warning level.
func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// Errorf logs at error level.
func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// Fatalf logs at fatal level and exits.
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}

var _ Logger = (*LogrusLogger)(nil)
