package model

// HistoryRecord is the persisted, merged state for one canonical key.
// VideoID holds the canonical key and is the primary identity; timestamps are
// stored as timezone-naive UTC ISO-8601 strings with second precision, which
// keeps ordering and "since" filtering a plain string comparison.
type HistoryRecord struct {
	VideoID       string  `db:"video_id" json:"video_id"`
	URL           *string `db:"url" json:"url"`
	Title         *string `db:"title" json:"title"`
	Status        string  `db:"status" json:"status"`
	StartedAt     *string `db:"started_at" json:"started_at"`
	FinishedAt    *string `db:"finished_at" json:"finished_at"`
	FilePath      *string `db:"file_path" json:"file_path"`
	Error         *string `db:"error" json:"error"`
	PlaylistID    *string `db:"playlist_id" json:"playlist_id"`
	PlaylistTitle *string `db:"playlist_title" json:"playlist_title"`
	RetryCount    int     `db:"retry_count" json:"retry_count"`
	LastAction    *string `db:"last_action" json:"last_action"`
}

// GetTitle returns the title or, when absent, the URL or key so the record
// always has something displayable.
func (r *HistoryRecord) GetTitle() string {
	if r.Title != nil && *r.Title != "" {
		return *r.Title
	}
	if r.URL != nil && *r.URL != "" {
		return *r.URL
	}
	return r.VideoID
}
