package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(ConfigFileEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "downloads"), cfg.Output)
	assert.DirExists(t, cfg.Output)
	assert.Equal(t, "best", cfg.Quality)
	assert.Equal(t, "mp4", cfg.VideoFormat)
	assert.Equal(t, "m4a", cfg.AudioFormat)
	assert.False(t, cfg.AudioOnly)
	assert.Equal(t, "%(title)s [%(id)s].%(ext)s", cfg.NameTemplate)
	assert.Empty(t, cfg.Subtitles)
	assert.Equal(t, 3, cfg.Retry)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, filepath.Join(dir, "data", "meta.jsonl"), cfg.SaveMetadata)
	assert.DirExists(t, filepath.Dir(cfg.SaveMetadata))
	assert.Equal(t, filepath.Join(dir, "data", "history.db"), cfg.HistoryDB)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, "p", cfg.PauseKey)
	assert.Equal(t, "r", cfg.ResumeKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
output: media
quality: 720p
audio_only: true
subtitles:
  - en
  - ru
retry: 7
retry_delay: 2.5
history_enabled: false
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "media"), cfg.Output)
	assert.Equal(t, "720p", cfg.Quality)
	assert.True(t, cfg.AudioOnly)
	assert.Equal(t, []string{"en", "ru"}, cfg.Subtitles)
	assert.Equal(t, 7, cfg.Retry)
	assert.Equal(t, 2500*time.Millisecond, cfg.RetryDelay)
	assert.False(t, cfg.HistoryEnabled)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "ytd.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quality: 480p\nproxy: http://file:3128\n"), 0o644))

	t.Setenv("YTD_QUALITY", "1080p")
	t.Setenv("YTD_SUBTITLES", "en, de")
	t.Setenv("YTD_RETRY_DELAY", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "1080p", cfg.Quality)
	assert.Equal(t, "http://file:3128", cfg.Proxy)
	assert.Equal(t, []string{"en", "de"}, cfg.Subtitles)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
}

func TestLoad_ExplicitMissingFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "best", cfg.Quality)
}

func TestLoad_MalformedExplicitFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
