package download

import (
	"time"

	"github.com/ytget/ytd/internal/model"
)

// eventPatch carries the per-attempt fields applied to every emitted event.
type eventPatch struct {
	status     model.Status
	startedAt  *time.Time
	finishedAt *time.Time
	filePaths  []string
	err        string
	// withMetadata attaches the raw entry metadata so the store appends it
	// to the JSONL log. Set on success events only.
	withMetadata bool
}

// buildEvents turns a probed or downloaded info object into history events,
// one per playlist entry (or a single one for plain videos). When no info is
// available at all, a minimal event keyed by the request URL still gets out,
// so failures before extraction leave a trace.
func buildEvents(info *model.VideoInfo, opts model.DownloadOptions, patch eventPatch) []model.DownloadEvent {
	var playlistID, playlistTitle string
	entries := []*model.VideoInfo{info}
	if info != nil && info.IsPlaylist() {
		entries = info.Entries
		playlistID = info.ID
		if playlistID == "" {
			playlistID = info.PlaylistID
		}
		playlistTitle = info.Title
		if playlistTitle == "" {
			playlistTitle = info.PlaylistTitle
		}
	}

	var events []model.DownloadEvent
	for idx, entry := range entries {
		if entry == nil {
			entry = &model.VideoInfo{ID: opts.URL, WebpageURL: opts.URL}
		}

		videoID := entry.ID
		if videoID == "" {
			videoID = opts.URL
		}
		url := entry.BestURL()
		if url == "" {
			url = opts.URL
		}

		event := model.DownloadEvent{
			VideoID:    videoID,
			URL:        url,
			Status:     patch.status,
			StartedAt:  patch.startedAt,
			FinishedAt: patch.finishedAt,
		}
		if entry.Title != "" {
			title := entry.Title
			event.Title = &title
		}
		if patch.err != "" {
			errText := patch.err
			event.Error = &errText
		}
		if idx < len(patch.filePaths) {
			path := patch.filePaths[idx]
			event.FilePath = &path
		}

		if pid := firstNonEmpty(entry.PlaylistID, playlistID); pid != "" {
			event.PlaylistID = &pid
		}
		if ptitle := firstNonEmpty(entry.PlaylistTitle, playlistTitle); ptitle != "" {
			event.PlaylistTitle = &ptitle
		}

		if patch.withMetadata && entry.Raw != nil && opts.SaveMetadata != "" {
			event.Metadata = entry.Raw
			event.MetadataPath = opts.SaveMetadata
		}

		events = append(events, event)
	}
	return events
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
