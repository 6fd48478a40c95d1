package history

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxImportLineSize bounds a single metadata line; yt-dlp dumps with full
// format tables routinely run into megabytes.
const maxImportLineSize = 16 * 1024 * 1024

// ImportFromLog seeds the store from a line-delimited JSON metadata log.
// It is a one-shot operation: when the source file does not exist or the
// downloads table already holds rows, nothing happens and 0 is returned.
// Malformed or non-object lines are skipped silently. Returns the number of
// rows actually inserted.
func (s *Store) ImportFromLog(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		// A missing or unreadable source is a clean no-op, not an error.
		return 0, nil
	}
	defer f.Close()

	db, err := s.connect()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var one int
	err = db.GetContext(ctx, &one, `SELECT 1 FROM downloads LIMIT 1`)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("inspect downloads table: %w", err)
	}

	var rows []importedRow
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			continue
		}
		if row, ok := rowFromMetadata(data); ok {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, nil
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, row := range rows {
		result, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO downloads (
				video_id, url, title, status, started_at, finished_at,
				file_path, error, playlist_id, playlist_title
			) VALUES (?, ?, ?, ?, NULL, ?, ?, NULL, ?, ?)`,
			row.videoID, row.url, row.title, row.status,
			row.finishedAt, row.filePath, row.playlistID, row.playlistTitle)
		if err != nil {
			return 0, fmt.Errorf("insert imported row: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return added, nil
}

type importedRow struct {
	videoID       string
	url           string
	title         *string
	status        string
	finishedAt    *string
	filePath      *string
	playlistID    *string
	playlistTitle *string
}

// rowFromMetadata derives one history row from a decoded metadata object.
// Lines without a usable identifier are dropped.
func rowFromMetadata(data map[string]any) (importedRow, bool) {
	identifier := firstString(data, "id", "video_id", "display_id", "url")
	if identifier == "" {
		return importedRow{}, false
	}

	url := firstString(data, "webpage_url", "original_url", "url")
	if url == "" {
		url = identifier
	}

	status := firstString(data, "status")
	if status == "" {
		status = "finished"
	}

	row := importedRow{
		videoID:       Normalize(identifier),
		url:           url,
		title:         optString(data, "title"),
		status:        status,
		filePath:      importFilePath(data),
		playlistID:    firstOptString(data, "playlist_id", "playlist"),
		playlistTitle: firstOptString(data, "playlist_title", "playlist"),
	}

	for _, key := range []string{"epoch", "timestamp", "release_timestamp", "upload_date"} {
		if ts := extractTimestamp(data[key]); ts != "" {
			row.finishedAt = &ts
			break
		}
	}

	return row, true
}

// importFilePath checks the top-level path fields, then digs into the
// requested_downloads sub-objects yt-dlp attaches to finished entries.
func importFilePath(data map[string]any) *string {
	if path := firstString(data, "filepath", "filename", "_filename"); path != "" {
		return &path
	}
	requested, ok := data["requested_downloads"].([]any)
	if !ok {
		return nil
	}
	for _, item := range requested {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if path := firstString(entry, "filepath", "filename", "_filename"); path != "" {
			return &path
		}
	}
	return nil
}

// extractTimestamp converts a metadata timestamp value to the stored ISO
// form. Numbers are Unix epoch seconds; 8-digit strings are YYYYMMDD calendar
// dates; anything else is attempted as ISO-8601. Returns "" when nothing
// parses.
func extractTimestamp(value any) string {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC().Format(timeLayout)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return ""
		}
		if len(trimmed) == 8 && isDigits(trimmed) {
			if parsed, err := time.Parse("20060102", trimmed); err == nil {
				return parsed.Format(timeLayout)
			}
		}
		if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return time.Unix(int64(num), 0).UTC().Format(timeLayout)
		}
		for _, layout := range []string{time.RFC3339, timeLayout, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC().Format(timeLayout)
			}
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// firstString returns the first non-empty string-convertible value among the
// given keys. Explicit id fields come before generic URL fields by caller
// convention.
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(data[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstOptString(data map[string]any, keys ...string) *string {
	if s := firstString(data, keys...); s != "" {
		return &s
	}
	return nil
}

func optString(data map[string]any, key string) *string {
	if s := asString(data[key]); s != "" {
		return &s
	}
	return nil
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
