package model

import (
	"fmt"
	"strings"
)

// VideoInfo is the subset of yt-dlp's JSON metadata dump the application
// consumes. For playlists, Entries holds the children and the top-level
// object describes the container.
type VideoInfo struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Uploader      string       `json:"uploader"`
	Channel       string       `json:"channel"`
	Duration      float64      `json:"duration"`
	ViewCount     int64        `json:"view_count"`
	WebpageURL    string       `json:"webpage_url"`
	OriginalURL   string       `json:"original_url"`
	URL           string       `json:"url"`
	UploadDate    string       `json:"upload_date"`
	PlaylistID    string       `json:"playlist_id"`
	PlaylistTitle string       `json:"playlist_title"`
	Entries       []*VideoInfo `json:"entries"`
	Formats       []FormatInfo `json:"formats"`

	// Raw keeps the untyped decoded object so metadata logging preserves
	// fields the typed view drops.
	Raw map[string]any `json:"-"`
}

// FormatInfo describes one downloadable format variant.
type FormatInfo struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
}

// IsPlaylist returns true when the info describes a playlist container
func (v *VideoInfo) IsPlaylist() bool {
	return len(v.Entries) > 0
}

// BestURL returns the most specific URL known for the entry. Flat playlist
// entries only carry a bare url or an id, so those are the fallbacks.
func (v *VideoInfo) BestURL() string {
	if v.WebpageURL != "" {
		return v.WebpageURL
	}
	if v.OriginalURL != "" {
		return v.OriginalURL
	}
	if v.URL != "" {
		return v.URL
	}
	if v.ID != "" {
		return "https://www.youtube.com/watch?v=" + v.ID
	}
	return ""
}

// DurationString formats the duration as mm:ss or hh:mm:ss, or "?" if unknown
func (v *VideoInfo) DurationString() string {
	total := int(v.Duration)
	if total <= 0 {
		return "?"
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var b strings.Builder
	if hours > 0 {
		b.WriteString(fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%d:%02d", minutes, seconds))
	return b.String()
}
