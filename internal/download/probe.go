package download

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/ytd/internal/model"
)

// IsPlaylistURL is a cheap syntactic check for playlist links, used to decide
// whether to probe with playlist expansion.
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, "list=")
}

// Probe fetches metadata for a URL without downloading anything.
func (d *Downloader) Probe(ctx context.Context, url string) (*model.VideoInfo, error) {
	return d.probe(ctx, url, false)
}

// ProbePlaylist fetches playlist metadata in flat mode: entries carry ids,
// titles and durations but no format lists, which keeps large playlists fast.
func (d *Downloader) ProbePlaylist(ctx context.Context, url string) (*model.VideoInfo, error) {
	return d.probe(ctx, url, true)
}

func (d *Downloader) probe(ctx context.Context, url string, flat bool) (*model.VideoInfo, error) {
	cmd := ytdlp.New().
		SkipDownload().
		DumpSingleJSON()
	if flat {
		cmd = cmd.FlatPlaylist()
	} else {
		cmd = cmd.NoPlaylist()
	}
	if d.proxy != "" {
		cmd = cmd.Proxy(d.proxy)
	}

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	info, err := parseInfoJSON(result.Stdout)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}
	return info, nil
}

// parseInfoJSON decodes a yt-dlp --dump-single-json payload. The object is
// decoded twice: once into the typed view and once into a raw map kept for
// metadata logging.
func parseInfoJSON(payload string) (*model.VideoInfo, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("empty metadata payload")
	}
	// The dump is the last line of stdout; earlier lines may be warnings.
	if idx := strings.LastIndexByte(payload, '\n'); idx >= 0 {
		if line := strings.TrimSpace(payload[idx+1:]); strings.HasPrefix(line, "{") {
			payload = line
		}
	}

	var info model.VideoInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err == nil {
		info.Raw = raw
		if entries, ok := raw["entries"].([]any); ok {
			for i, item := range entries {
				if i >= len(info.Entries) || info.Entries[i] == nil {
					break
				}
				if entryRaw, ok := item.(map[string]any); ok {
					info.Entries[i].Raw = entryRaw
				}
			}
		}
	}
	return &info, nil
}
