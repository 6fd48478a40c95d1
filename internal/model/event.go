package model

import "time"

// DownloadEvent is one observation of a download attempt's outcome. Events are
// transient: they are produced by the download workflow (before an attempt, on
// success, on failure) and handed to the history store, which merges them into
// the record for the canonical key. Events themselves are never queried.
//
// At least one of VideoID and URL must be non-empty, otherwise the event
// cannot be keyed and is unrecordable.
type DownloadEvent struct {
	VideoID       string
	URL           string
	Title         *string
	Status        Status
	StartedAt     *time.Time
	FinishedAt    *time.Time
	FilePath      *string
	Error         *string
	PlaylistID    *string
	PlaylistTitle *string

	// Metadata, when set together with MetadataPath, is appended as one line
	// to the line-delimited JSON metadata log. Failures there never affect
	// the history row.
	Metadata     map[string]any
	MetadataPath string
}
