// Package log implements a levelled logger on top of logrus. Clients
// should set the current log level; only messages at or above that level
// will actually be logged. For example, if Level is set to LevelWarning,
// only log messages at the Warning, Error, Critical and Fatal levels will
// be logged.
package log

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// The following constants represent logging levels in increasing levels of seriousness.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug:    "debug",
	LevelInfo:     "info",
	LevelWarning:  "warning",
	LevelError:    "error",
	LevelCritical: "critical",
	LevelFatal:    "fatal",
}

var levelLogrus = [...]logrus.Level{
	LevelDebug:    logrus.DebugLevel,
	LevelInfo:     logrus.InfoLevel,
	LevelWarning:  logrus.WarnLevel,
	LevelError:    logrus.ErrorLevel,
	LevelCritical: logrus.ErrorLevel,
	LevelFatal:    logrus.FatalLevel,
}

// Level stores the current logging level.
var Level = LevelInfo

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	// Level filtering happens here, not in logrus.
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func init() {
	flag.IntVar(&Level, "loglevel", LevelInfo, "Log level (0 = DEBUG, 5 = FATAL)")
}

// Reset restores the default logger, output and level.
func Reset() {
	logger = newLogger()
	Level = LevelInfo
}

// SetOutput redirects log output to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetFormat selects the log formatter: "json" or "text".
func SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log: unknown format %q", format)
	}
	return nil
}

// ParseLevel maps a level name such as "warning" to its constant.
func ParseLevel(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warn" {
		name = "warning"
	}
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("log: unknown level %q", name)
}

func entry(l int) *logrus.Entry {
	e := logrus.NewEntry(logger)
	if l == LevelCritical {
		e = e.WithField("severity", "critical")
	}
	return e
}

func outputf(l int, format string, v []interface{}) {
	if l < Level {
		return
	}
	entry(l).Log(levelLogrus[l], fmt.Sprintf(format, v...))
}

func output(l int, v []interface{}) {
	if l < Level {
		return
	}
	entry(l).Log(levelLogrus[l], fmt.Sprint(v...))
}

// Fatalf logs a formatted message at the "fatal" level and then exits. The
// arguments are handled in the same manner as fmt.Printf.
func Fatalf(format string, v ...interface{}) {
	outputf(LevelFatal, format, v)
	os.Exit(1)
}

// Fatal logs its arguments at the "fatal" level and then exits.
func Fatal(v ...interface{}) {
	output(LevelFatal, v)
	os.Exit(1)
}

// Criticalf logs a formatted message at the "critical" level. The
// arguments are handled in the same manner as fmt.Printf.
func Criticalf(format string, v ...interface{}) {
	outputf(LevelCritical, format, v)
}

// Critical logs its arguments at the "critical" level.
func Critical(v ...interface{}) {
	output(LevelCritical, v)
}

// Errorf logs a formatted message at the "error" level. The arguments
// are handled in the same manner as fmt.Printf.
func Errorf(format string, v ...interface{}) {
	outputf(LevelError, format, v)
}

// Error logs its arguments at the "error" level.
func Error(v ...interface{}) {
	output(LevelError, v)
}

// Warningf logs a formatted message at the "warning" level. The
// arguments are handled in the same manner as fmt.Printf.
func Warningf(format string, v ...interface{}) {
	outputf(LevelWarning, format, v)
}

// Warning logs its arguments at the "warning" level.
func Warning(v ...interface{}) {
	output(LevelWarning, v)
}

// Infof logs a formatted message at the "info" level. The arguments
// are handled in the same manner as fmt.Printf.
func Infof(format string, v ...interface{}) {
	outputf(LevelInfo, format, v)
}

// Info logs its arguments at the "info" level.
func Info(v ...interface{}) {
	output(LevelInfo, v)
}

// Debugf logs a formatted message at the "debug" level. The arguments
// are handled in the same manner as fmt.Printf.
func Debugf(format string, v ...interface{}) {
	outputf(LevelDebug, format, v)
}

// Debug logs its arguments at the "debug" level.
func Debug(v ...interface{}) {
	output(LevelDebug, v)
}
