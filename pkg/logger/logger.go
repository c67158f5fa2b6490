package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"club-notification-service/pkg/config"
)

type ctxKey struct{}

const requestIDField = "request_id"

// Logger owns the logrus instance and the rotating file behind it, if any.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

var (
	global   = &Logger{Logger: logrus.StandardLogger()}
	globalMu sync.RWMutex
)

// NewLogger builds a logger from the log section of the config.
// Output "file" writes to a lumberjack rotated file, "both" tees to stdout.
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	lc := cfg.Log

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(lc.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	res := &Logger{Logger: l}
	switch strings.ToLower(lc.Output) {
	case "file", "both":
		res.file = &lumberjack.Logger{
			Filename:   lc.Filename,
			MaxSize:    lc.MaxSize,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAge,
			Compress:   lc.Compress,
		}
		if lc.Output == "both" {
			l.SetOutput(io.MultiWriter(os.Stdout, res.file))
		} else {
			l.SetOutput(res.file)
		}
	default:
		l.SetOutput(os.Stdout)
	}
	return res
}

// Close flushes and closes the rotating file.
func (l *Logger) Close() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
}

// SetGlobalLogger replaces the process-wide logger used by the package helpers.
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	global = l
}

// Global returns the process-wide logger.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// ContextWithRequestID stores the request id used by WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithContext returns an entry carrying the request id of ctx.
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(Global().Logger)
	if id := RequestIDFromContext(ctx); id != "" {
		entry = entry.WithField(requestIDField, id)
	}
	return entry
}

// WithFields returns an entry with the given structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Global().WithFields(fields)
}

func Debugf(format string, args ...interface{}) { Global().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Global().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Global().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Global().Errorf(format, args...) }

// Fatal logs msg and exits the process.
func Fatal(msg string) { Global().Fatal(msg) }
