package logging

import (
	"context"
	"io"
	"maps"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger is a logrus-backed implementation of Logger.
// Debug/Info -> stdout, Warn/Error/Fatal -> stderr.
type DefaultLogger struct {
	out    *logrus.Logger
	err    *logrus.Logger
	level  Level
	fields Fields
}

// NewDefaultLogger creates a new default logger. Colors are enabled when
// stdout is a terminal.
func NewDefaultLogger() *DefaultLogger {
	return NewDefaultLoggerWithWriters(os.Stdout, os.Stderr)
}

// NewDefaultLoggerNoColor creates a new default logger without colored output
func NewDefaultLoggerNoColor() *DefaultLogger {
	l := NewDefaultLoggerWithWriters(os.Stdout, os.Stderr)
	l.setColors(false)
	return l
}

// NewDefaultLoggerWithWriters routes low-severity output to stdout and
// warnings/errors to stderr.
func NewDefaultLoggerWithWriters(stdout, stderr io.Writer) *DefaultLogger {
	return &DefaultLogger{
		out:    newLogrus(stdout),
		err:    newLogrus(stderr),
		level:  InfoLevel,
		fields: make(Fields),
	}
}

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel) // filtering happens in DefaultLogger.log
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func (d *DefaultLogger) setColors(enabled bool) {
	for _, l := range []*logrus.Logger{d.out, d.err} {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   enabled,
			DisableColors: !enabled,
		})
	}
}

func (d *DefaultLogger) entry(target *logrus.Logger, err error, fields ...Fields) *logrus.Entry {
	all := make(logrus.Fields, len(d.fields))
	maps.Copy(all, d.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}
	e := target.WithFields(all)
	if err != nil {
		e = e.WithError(err)
	}
	return e
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}

	switch level {
	case DebugLevel:
		d.entry(d.out, err, fields...).Debug(msg)
	case InfoLevel:
		d.entry(d.out, err, fields...).Info(msg)
	case WarnLevel:
		d.entry(d.err, err, fields...).Warn(msg)
	case ErrorLevel:
		d.entry(d.err, err, fields...).Error(msg)
	case FatalLevel:
		// logrus calls os.Exit(1) after writing
		d.entry(d.err, err, fields...).Fatal(msg)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		out:    d.out,
		err:    d.err,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything. Tests install it through SetGlobalLogger(nil).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
