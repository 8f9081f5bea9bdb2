package logger

import (
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger handles structured, leveled logging for one namespace.
//
// After the message, arguments are key-value pairs which are written as structured logs.
//
//	log.Info("Some message here", "key1", value1, "key2", value2)
type Logger struct {
	ns     string
	fields map[string]interface{}
	base   *logrus.Logger
	entry  *logrus.Entry
}

// NewLogger returns a new Logger instance configured with the given config.
func NewLogger(ns string, conf Config) *Logger {
	l := New(ns)
	l.Configure(conf)
	return l
}

// New returns a new Logger with the default logrus settings and the given
// base fields attached to every message.
func New(ns string, args ...interface{}) *Logger {
	base := logrus.New()
	base.SetLevel(logrus.InfoLevel)
	f := fields(args...)
	f["ns"] = ns
	return &Logger{
		ns:     ns,
		fields: f,
		base:   base,
		entry:  base.WithFields(f),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Debug(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Info(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message.
//
// Error has a two-argument version that can be used as a shortcut.
//
//	err := startServer()
//	log.Error("Couldn't start server", err)
func (l *Logger) Error(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Error(msg)
}

// WithFields returns a new Logger instance with the given fields added to all log messages.
// The child shares the output, level and formatter of its parent.
func (l *Logger) WithFields(args ...interface{}) *Logger {
	defer recoverLogErr()
	f := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		f[k] = v
	}
	for k, v := range fields(args...) {
		f[k] = v
	}
	return &Logger{
		ns:     l.ns,
		fields: f,
		base:   l.base,
		entry:  l.base.WithFields(f),
	}
}

// NewSubLogger returns a child logger with a different namespace.
func (l *Logger) NewSubLogger(ns string, args ...interface{}) *Logger {
	sub := l.WithFields(args...)
	sub.ns = ns
	sub.fields["ns"] = ns
	sub.entry = sub.base.WithFields(sub.fields)
	return sub
}

// SetLevel sets the level of logging.
func (l *Logger) SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		l.base.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.base.SetLevel(logrus.WarnLevel)
	case "error":
		l.base.SetLevel(logrus.ErrorLevel)
	default:
		l.base.SetLevel(logrus.InfoLevel)
	}
}

// SetFormatter sets the formatter used by this logger and its children.
func (l *Logger) SetFormatter(f Formatter) {
	l.base.SetFormatter(f)
}

// SetOutput sets the output of this logger and its children.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// Discard configures the logger to discard all logs.
func (l *Logger) Discard() {
	l.base.SetOutput(ioutil.Discard)
}

// Formatter formats a logrus entry into bytes.
type Formatter logrus.Formatter

// recoverLogErr is used to recover from any panics during logging.
// Panics aren't expected of course, but logging should never crash
// a program, so this failsafe tries to prevent those crashes.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

// PrintSimpleError prints out an error message with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Printf("\x1b[31m%s\x1b[0m %s\n", "ERROR:", err.Error())
}

func fields(args ...interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(args)/2)
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			f["error"] = err.Error()
		} else {
			f["unknown"] = args[0]
		}
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprint(args[i])
		}
		v := args[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		f[k] = v
	}
	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}
