package logger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-notification-service/pkg/config"
)

func TestWithContextCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&config.Config{Log: config.LogConfig{Level: "debug", Format: "json"}})
	l.SetOutput(&buf)

	prev := Global()
	SetGlobalLogger(l)
	t.Cleanup(func() { SetGlobalLogger(prev) })

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"request_id":"req-42"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLoggerLevelFallback(t *testing.T) {
	l := NewLogger(&config.Config{Log: config.LogConfig{Level: "nonsense"}})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.log")
	l := NewLogger(&config.Config{Log: config.LogConfig{Level: "info", Output: "file", Filename: path, MaxSize: 1}})
	require.NotNil(t, l.file)
	l.Info("to file")
	l.Close()
	assert.FileExists(t, path)
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
