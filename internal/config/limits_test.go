package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecBounds(t *testing.T) {
	l := Default()
	assert.Equal(t, 10*1024, l.MaxStringLen)
	assert.Equal(t, 10, l.MaxDepth)
	assert.Equal(t, 50, l.MaxContextKeys)
	assert.Equal(t, 4*1024, l.MaxContextValueLen)
	assert.Equal(t, 20, l.ActionBufferCap)
	assert.Equal(t, 50, l.EnhancedActionBufferCap)
	assert.Equal(t, 250*time.Millisecond, l.ScrollThrottle)
	assert.Equal(t, 50, l.WaterfallCap)
	assert.Equal(t, 4*1024, l.WSMaxBody)
	assert.Equal(t, 200, l.WSPreview)
	assert.Equal(t, 8*1024, l.RequestBodyCap)
	assert.Equal(t, 16*1024, l.ResponseBodyCap)
	assert.Equal(t, 5*time.Millisecond, l.BodyReadTimeout)
	assert.Equal(t, 3*time.Second, l.AIPipelineTimeout)
	assert.Equal(t, 20, l.SourceMapCacheCap)
	assert.True(t, l.ClickableTags["BUTTON"])
	assert.True(t, l.ActionableKeys["Enter"])
}

func TestLoadWithOverridesMissingFileFallsBack(t *testing.T) {
	l := LoadWithOverrides(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, Default().MaxStringLen, l.MaxStringLen)
}

func TestLoadWithOverridesAppliesValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	content := "max_string_len: 2048\nscroll_throttle_ms: 500\naction_buffer_cap: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	l := LoadWithOverrides(path)
	assert.Equal(t, 2048, l.MaxStringLen)
	assert.Equal(t, 500*time.Millisecond, l.ScrollThrottle)
	assert.Equal(t, 5, l.ActionBufferCap)
	// Untouched fields keep defaults.
	assert.Equal(t, Default().MaxDepth, l.MaxDepth)
}

func TestLoadWithOverridesInvalidYAMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o600))

	l := LoadWithOverrides(path)
	assert.Equal(t, Default().MaxStringLen, l.MaxStringLen)
}

func TestWSCaptureModeTargetRate(t *testing.T) {
	assert.Equal(t, 0, WSCaptureAll.TargetRate())
	assert.Equal(t, 10, WSCaptureHigh.TargetRate())
	assert.Equal(t, 5, WSCaptureMedium.TargetRate())
	assert.Equal(t, 2, WSCaptureLow.TargetRate())
}
