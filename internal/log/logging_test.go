package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestSetupLoggerSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setupLogger("info", "", &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Info("flashing", "partition", "boot")
	logger.Debug("hidden")
	logger.Error("failed", "partition", "boot")

	assert.Contains(t, stdout.String(), "flashing")
	assert.NotContains(t, stdout.String(), "hidden")
	assert.NotContains(t, stdout.String(), "failed")
	assert.Contains(t, stderr.String(), "failed")
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.log")
	var stdout, stderr bytes.Buffer

	logger, closers, err := setupLogger("debug", path, &stdout, &stderr)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("packet", "status", "OKAY")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "status=OKAY")
	assert.Contains(t, stderr.String(), "status=OKAY")
	assert.Empty(t, stdout.String())
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	raw := NewRaw(&buf)

	raw.Log(false, []byte("getvar:product"))
	raw.Log(true, []byte{0x4f, 0x4b, 0x41, 0x59})
	raw.Log(true, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "H->D transfer: 14 bytes")
	assert.Contains(t, lines[1], "D->H transfer: 4 bytes, hex: 4f 4b 41 59")
}

func TestRawLoggerTruncatesLargeTransfers(t *testing.T) {
	var buf bytes.Buffer
	NewRaw(&buf).Log(false, make([]byte, 16384))
	assert.Contains(t, buf.String(), "16384 bytes")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()), "..."))
}

func TestRawLoggerNilWriter(t *testing.T) {
	assert.NotPanics(t, func() { NewRaw(nil).Log(true, []byte("OKAY")) })
}
