package model

import "time"

// DownloadOptions holds the parameters of a single download. They map onto
// yt-dlp settings: output template, format and quality selection, retry
// policy, and target paths.
type DownloadOptions struct {
	URL          string
	OutputDir    string
	AudioOnly    bool
	AudioFormat  string // m4a, mp3 or opus
	VideoFormat  string // mp4 or webm
	Quality      string // best, 1080p, 720p or audio
	NameTemplate string
	Subtitles    []string
	Proxy        string
	Retry        int
	RetryDelay   time.Duration
	SaveMetadata string
	DryRun       bool
	Playlist     bool
	PlaylistItems string // "1-3" or "1,3,5" to select specific entries

	// CustomFormat, when set, is passed to yt-dlp verbatim and takes
	// precedence over Quality/AudioOnly/VideoFormat.
	CustomFormat string

	// FilePrefix and QualitySuffix decorate the output name template
	// ("01_" numbering, "_720p" quality tags).
	FilePrefix    string
	QualitySuffix string

	Overwrite bool
}
