package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytd/internal/config"
)

func resetDownloadFlags() {
	downloadFlags.output = ""
	downloadFlags.urlsFile = ""
	downloadFlags.audioOnly = false
	downloadFlags.audioFormat = ""
	downloadFlags.videoFormat = ""
	downloadFlags.quality = ""
	downloadFlags.nameTemplate = ""
	downloadFlags.subtitles = nil
	downloadFlags.proxy = ""
	downloadFlags.retry = -1
	downloadFlags.retryDelay = 0
	downloadFlags.dryRun = false
	downloadFlags.playlist = false
	downloadFlags.playlistItems = ""
	downloadFlags.interactive = false
	downloadFlags.pauseBetween = false
	downloadFlags.overwrite = false
}

func TestParseSince(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2024-05-11", "2024-05-11T00:00:00"},
		{"2024-05-11T10:30:00", "2024-05-11T10:30:00"},
		{"2024-05-11T10:30:00Z", "2024-05-11T10:30:00"},
		{"2024-05-11T12:30:00+02:00", "2024-05-11T10:30:00"},
	}
	for _, tc := range cases {
		got, err := parseSince(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := parseSince("yesterday")
	assert.Error(t, err)
}

func TestCollectURLs(t *testing.T) {
	resetDownloadFlags()

	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://youtu.be/one\n\n# a comment\n  https://youtu.be/two  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	downloadFlags.urlsFile = path

	urls, err := collectURLs([]string{"https://youtu.be/zero"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://youtu.be/zero",
		"https://youtu.be/one",
		"https://youtu.be/two",
	}, urls)
}

func TestCollectURLs_MissingFile(t *testing.T) {
	resetDownloadFlags()
	downloadFlags.urlsFile = filepath.Join(t.TempDir(), "nope.txt")

	_, err := collectURLs(nil)
	assert.Error(t, err)
}

func TestBaseOptions_FlagsWinOverConfig(t *testing.T) {
	resetDownloadFlags()
	downloadFlags.quality = "720p"
	downloadFlags.output = "/tmp/videos"
	downloadFlags.retry = 0
	downloadFlags.subtitles = []string{"en"}

	a := &app{cfg: &config.Config{
		Output:       "downloads",
		Quality:      "best",
		VideoFormat:  "mp4",
		AudioFormat:  "m4a",
		NameTemplate: "%(title)s.%(ext)s",
		Subtitles:    []string{"ru"},
		Retry:        3,
		RetryDelay:   5 * time.Second,
		SaveMetadata: "data/meta.jsonl",
	}}

	opts := baseOptions(a)
	assert.Equal(t, "720p", opts.Quality)
	assert.Equal(t, "/tmp/videos", opts.OutputDir)
	assert.Equal(t, 0, opts.Retry, "an explicit 0 disables retries")
	assert.Equal(t, []string{"en"}, opts.Subtitles)
	assert.Equal(t, "mp4", opts.VideoFormat)
	assert.Equal(t, 5*time.Second, opts.RetryDelay)
	assert.Equal(t, "data/meta.jsonl", opts.SaveMetadata)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "longtitle…", truncate("longtitle that keeps going", 10))
}
