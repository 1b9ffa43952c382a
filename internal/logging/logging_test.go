package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "debug")

	log.Debug("debug msg")
	log.Info("info msg")

	assert.Contains(t, buf.String(), "debug msg")
	assert.Contains(t, buf.String(), "info msg")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, "info")

	log.Debug("should be filtered")
	log.Info("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetup_UTCTimestamps(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "info").Info("tick")

	assert.Regexp(t, regexp.MustCompile(`time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z `), buf.String())
}

func TestOpenFile(t *testing.T) {
	f, err := OpenFile("")
	require.NoError(t, err)
	assert.Nil(t, f)

	path := filepath.Join(t.TempDir(), "fc.log")
	f, err = OpenFile(path)
	require.NoError(t, err)

	Setup(f, "info").Info("to file", "mode", "stabilize")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode=stabilize")
}
