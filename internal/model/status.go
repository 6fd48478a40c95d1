package model

// Status represents the lifecycle state of a download history record.
//
// The set is open at the storage layer: importers may carry arbitrary
// free-text statuses, which downstream consumers treat as "other".
type Status string

const (
	// StatusInProgress means an attempt has started and has not reported back
	StatusInProgress Status = "in_progress"

	// StatusSuccess means the last attempt finished successfully
	StatusSuccess Status = "success"

	// StatusFailed means the last attempt failed
	StatusFailed Status = "failed"

	// StatusFinished is the importer-facing alias of StatusSuccess; metadata
	// logs written by yt-dlp use "finished"
	StatusFinished Status = "finished"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsSuccess returns true if the record represents a completed download
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusFinished
}

// IsUnfinished returns true if the record represents an attempt that did not
// complete (failed or still marked as running)
func (s Status) IsUnfinished() bool {
	return s == StatusFailed || s == StatusInProgress
}
