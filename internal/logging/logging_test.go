package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Levels(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger, closeFn := Setup(Options{Stderr: &buf})
	defer closeFn()

	logger.Debug("hidden")
	logger.Info("shown", "path", "a.jpg")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "a.jpg")

	buf.Reset()
	_, closeFn2 := Setup(Options{Stderr: &buf, Verbose: true})
	defer closeFn2()
	slog.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestSetup_File(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	path := filepath.Join(t.TempDir(), "wpimg.log")
	var buf bytes.Buffer
	logger, closeFn := Setup(Options{Stderr: &buf, File: path})
	logger.Warn("written to both", "n", 3)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to both")
	assert.Contains(t, buf.String(), "written to both")
	assert.NotContains(t, string(data), "\x1b[")
}
