package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/internal/app/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "v"))
}

func TestIndexBuildThenAsk(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "embedder:\n  provider: lexical\nstorage:\n  backend: file\n  dir: " + filepath.Join(dir, "vector_db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	analysis := testutil.WriteAnalysisFile(t, dir, testutil.SampleFrames)

	// Act
	buildOut, buildErr := run(t, "--config", cfgPath, "index", "build", "--video", "beach", "--descriptors", analysis, "--no-progress")
	existsOut, existsErr := run(t, "--config", cfgPath, "index", "exists", "--video", "beach")
	askOut, askErr := run(t, "--config", cfgPath, "ask", "--video", "beach", "--role", "director", "where is the golden hour backlight")
	_, missingErr := run(t, "--config", cfgPath, "index", "exists", "--video", "other")

	// Assert
	require.NoError(t, buildErr)
	assert.Contains(t, buildOut, "Indexed 3/3 frames of beach")
	require.NoError(t, existsErr)
	assert.Contains(t, existsOut, "beach: 3 frames")
	require.NoError(t, askErr)
	assert.Contains(t, askOut, "Offline mode")
	assert.Contains(t, askOut, "Relevant moments")
	assert.Error(t, missingErr)
}

func TestSearchRejectsUnknownRole(t *testing.T) {
	_, err := run(t, "search", "--video", "beach", "--role", "critic", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
