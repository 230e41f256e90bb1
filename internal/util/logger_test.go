package util

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string, format LogFormat) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger, _ := NewLogger(LoggerOptions{Level: level})
	logger.AddOutput(NewConsoleOutput(buf, format))
	return logger, buf
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn", FormatText)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Errorf("error %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "[WARN] warn line")
	assert.Contains(t, out, "[ERROR] error 42")
}

func TestLoggerTextFieldsSorted(t *testing.T) {
	logger, buf := newBufferLogger("debug", FormatText)

	logger.With(F("zeta", 1)).Info("loaded", F("alpha", "x"), F("mid", true))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "loaded alpha=x mid=true zeta=1"), line)
}

func TestLoggerJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger("info", FormatJSON)

	logger.Info("fetched", F("records", 3))

	out := buf.String()
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"message":"fetched"`)
	assert.Contains(t, out, `"records":3`)
}

func TestLoggerWithContext(t *testing.T) {
	logger, buf := newBufferLogger("info", FormatText)

	ctx := context.WithValue(context.Background(), ContextKeyAgent, "content-writer")
	logger.WithContext(ctx).Info("refresh")

	assert.Contains(t, buf.String(), "agent=content-writer")
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewLogger(LoggerOptions{Level: "info", File: path})
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] to file")
}

func TestNewLoggerBadFile(t *testing.T) {
	_, err := NewLogger(LoggerOptions{File: filepath.Join(t.TempDir(), "missing", "dir", "app.log")})
	assert.Error(t, err)
}

func TestGlobalHelpersWithoutLogger(t *testing.T) {
	prev := GetLogger()
	loggerMu.Lock()
	globalLogger = nil
	loggerMu.Unlock()
	defer func() {
		loggerMu.Lock()
		globalLogger = prev
		loggerMu.Unlock()
	}()

	assert.NotPanics(t, func() {
		LogDebug("x")
		LogInfof("y %d", 1)
		LogWarn("z", F("k", "v"))
		LogErrorf("e")
	})
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseLogFormat(" JSON "))
	assert.Equal(t, FormatText, ParseLogFormat("text"))
	assert.Equal(t, FormatText, ParseLogFormat(""))
}
