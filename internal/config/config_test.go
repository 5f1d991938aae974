package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	assert.True(t, cfg.IsEnabled(), "tracing is on by default")
	assert.Equal(t, DefaultRetentionDays, cfg.RetentionDays)
	assert.Contains(t, cfg.Dir, DefaultDirName)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, DefaultRetentionDays, cfg.RetentionDays)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := New()
	cfg.SetEnabled(false)
	cfg.Dir = "/data/traces"
	cfg.RetentionDays = 7
	require.NoError(t, Save(dir, cfg))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, got.IsEnabled())
	assert.Equal(t, "/data/traces", got.Dir)
	assert.Equal(t, 7, got.RetentionDays)
}

func TestLoadMergesPartialFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("retention_days: 5\n"), 0o644))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RetentionDays)
	assert.True(t, got.IsEnabled(), "unset enabled keeps the default")
	assert.NotEmpty(t, got.Dir, "unset dir keeps the default")
}

func TestLoadExplicitEnabledTrue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("enabled: true\n"), 0o644))

	got, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, got.Enabled)
	assert.True(t, got.IsEnabled())
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(Path(dir), []byte("{not yaml"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "settings")
	require.NoError(t, Save(dir, New()))

	_, err := os.Stat(Path(dir))
	assert.NoError(t, err)
}
