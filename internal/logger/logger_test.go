package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset drops the default logger so each test starts from scratch.
func reset(t *testing.T) {
	t.Helper()
	Close()
	defaultLogger = nil
	once = *new(sync.Once)
}

func TestInitWithFile(t *testing.T) {
	reset(t)
	tempDir := t.TempDir()

	var console bytes.Buffer
	require.NoError(t, InitWithFile("debug", tempDir))
	SetOutput(&console)
	defer Close()

	logPath := GetLogFilePath()
	require.NotEmpty(t, logPath)
	assert.Equal(t, tempDir, filepath.Dir(logPath))

	Debug("test debug message")
	Info("test info message")
	Warn("test warn message")
	Error("test error message")
	require.NoError(t, Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logContent := string(content)

	assert.Contains(t, logContent, "test debug message")
	assert.Contains(t, logContent, "test info message")
	assert.Contains(t, logContent, "[WARN] test warn message")
	assert.NotContains(t, logContent, "\033[", "log file must not contain color codes")

	// console keeps its colors
	assert.Contains(t, console.String(), "\033[")
}

func TestLogFilenameFormat(t *testing.T) {
	reset(t)
	require.NoError(t, InitWithFile("info", t.TempDir()))
	defer Close()

	filename := filepath.Base(GetLogFilePath())
	assert.True(t, strings.HasSuffix(filename, ".log"), filename)

	// YYYY-MM-DD_HH-MM-SS_TZ.log
	parts := strings.Split(strings.TrimSuffix(filename, ".log"), "_")
	assert.GreaterOrEqual(t, len(parts), 3, filename)
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level   string
		logged  []string
		dropped []string
	}{
		{"debug", []string{"d", "i", "w", "e"}, nil},
		{"info", []string{"i", "w", "e"}, []string{"d"}},
		{"WARNING", []string{"w", "e"}, []string{"d", "i"}},
		{"error", []string{"e"}, []string{"d", "i", "w"}},
		{"bogus", []string{"i", "w", "e"}, []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			reset(t)
			var buf bytes.Buffer
			Init(tt.level)
			SetOutput(&buf)
			SetColorEnable(false)

			Debug("msg-%s", "d")
			Info("msg-%s", "i")
			Warn("msg-%s", "w")
			Error("msg-%s", "e")

			for _, m := range tt.logged {
				assert.Contains(t, buf.String(), "msg-"+m)
			}
			for _, m := range tt.dropped {
				assert.NotContains(t, buf.String(), "msg-"+m)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	reset(t)
	var buf bytes.Buffer
	Init("error")
	SetOutput(&buf)
	SetColorEnable(false)

	Info("hidden")
	SetLevel("debug")
	Debugf("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[DEBUG] shown 1")
}

func TestWithoutFile(t *testing.T) {
	reset(t)
	Init("info")
	assert.Empty(t, GetLogFilePath())
	assert.NoError(t, Close())
}
