package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/model"
)

// ErrNotInitialized is returned when a store is used without a backing path.
// This is a programming error, not a runtime condition.
var ErrNotInitialized = errors.New("history: store path is not initialized")

// timeLayout is the stored timestamp form: timezone-naive UTC ISO-8601 with
// second precision. String comparison on it matches chronological order.
const timeLayout = "2006-01-02T15:04:05"

const createDownloadsTable = `
CREATE TABLE IF NOT EXISTS downloads (
	video_id TEXT PRIMARY KEY,
	url TEXT,
	title TEXT,
	status TEXT,
	started_at TEXT,
	finished_at TEXT,
	file_path TEXT,
	error TEXT,
	playlist_id TEXT,
	playlist_title TEXT,
	retry_count INTEGER DEFAULT 0,
	last_action TEXT
)`

// recordColumns is the canonical select list. retry_count and status are
// coalesced so rows from pre-migration tables scan into non-pointer fields.
const recordColumns = `video_id, url, title, COALESCE(status, '') AS status, started_at, finished_at,
	file_path, error, playlist_id, playlist_title, COALESCE(retry_count, 0) AS retry_count, last_action`

// Store is a handle to one history database. It opens a fresh connection per
// operation: safe under the single-process, effectively-single-writer
// assumption of a CLI, with no cross-process locking guarantee.
type Store struct {
	path   string
	logger *zap.Logger
}

// Open creates a store handle for the given database file, creating parent
// directories as needed. No connection is opened here.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNotInitialized
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the backing database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) connect() (*sqlx.DB, error) {
	if s == nil || s.path == "" {
		return nil, ErrNotInitialized
	}
	db, err := sqlx.Connect("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the downloads table if absent and applies additive
// migrations (missing columns are added, nothing is ever dropped). Returns
// whether the table was created by this call, which the importer uses to
// decide whether to seed. Safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) (bool, error) {
	db, err := s.connect()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var name string
	err = db.GetContext(ctx, &name,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'downloads'`)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("inspect schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, createDownloadsTable); err != nil {
		return false, fmt.Errorf("create downloads table: %w", err)
	}

	columns, err := tableColumns(ctx, db)
	if err != nil {
		return false, err
	}
	if !columns["retry_count"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE downloads ADD COLUMN retry_count INTEGER DEFAULT 0`); err != nil {
			return false, fmt.Errorf("add retry_count column: %w", err)
		}
	}
	if !columns["last_action"] {
		if _, err := db.ExecContext(ctx, `ALTER TABLE downloads ADD COLUMN last_action TEXT`); err != nil {
			return false, fmt.Errorf("add last_action column: %w", err)
		}
	}

	return !existed, nil
}

func tableColumns(ctx context.Context, db *sqlx.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(downloads)`)
	if err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// RecordEvent merges a download event into the record for its canonical key:
// insert when new, otherwise a field-level coalescing update (status and url
// always overwrite; the remaining scalars only when the incoming value is
// non-null). retry_count and last_action are never touched by this path.
//
// Callers are expected to swallow the returned error at debug level; a
// history write must never abort the surrounding download.
func (s *Store) RecordEvent(ctx context.Context, event model.DownloadEvent) error {
	key := eventKey(event)
	if key == "" {
		return errors.New("history: event carries neither video_id nor url")
	}

	if err := s.upsert(ctx, key, event); err != nil {
		return err
	}

	if event.Metadata != nil && event.MetadataPath != "" {
		if err := AppendMetaLog(event.Metadata, event.MetadataPath); err != nil {
			s.logger.Debug("metadata log append failed",
				zap.String("path", event.MetadataPath), zap.Error(err))
		}
	}
	return nil
}

func eventKey(event model.DownloadEvent) string {
	if key := Normalize(event.VideoID); key != "" {
		return key
	}
	return Normalize(event.URL)
}

func (s *Store) upsert(ctx context.Context, key string, event model.DownloadEvent) error {
	db, err := s.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	// Read-modify-write in one transaction keeps the coalesce rule in plain
	// code instead of engine-specific conflict clauses.
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	merged := recordFromEvent(key, event)

	var existing model.HistoryRecord
	err = tx.GetContext(ctx, &existing,
		`SELECT `+recordColumns+` FROM downloads WHERE video_id = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO downloads (
				video_id, url, title, status, started_at, finished_at,
				file_path, error, playlist_id, playlist_title
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			merged.VideoID, merged.URL, merged.Title, merged.Status,
			merged.StartedAt, merged.FinishedAt, merged.FilePath, merged.Error,
			merged.PlaylistID, merged.PlaylistTitle)
		if err != nil {
			return fmt.Errorf("insert history row: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read history row: %w", err)
	default:
		coalesceRecord(&merged, &existing)
		_, err = tx.ExecContext(ctx, `
			UPDATE downloads SET
				url = ?, title = ?, status = ?, started_at = ?, finished_at = ?,
				file_path = ?, error = ?, playlist_id = ?, playlist_title = ?
			WHERE video_id = ?`,
			merged.URL, merged.Title, merged.Status, merged.StartedAt,
			merged.FinishedAt, merged.FilePath, merged.Error,
			merged.PlaylistID, merged.PlaylistTitle, key)
		if err != nil {
			return fmt.Errorf("update history row: %w", err)
		}
	}

	return tx.Commit()
}

// recordFromEvent converts an event into its row representation, normalizing
// timestamps to naive UTC and mapping empty strings to NULL.
func recordFromEvent(key string, event model.DownloadEvent) model.HistoryRecord {
	return model.HistoryRecord{
		VideoID:       key,
		URL:           nilIfEmpty(event.URL),
		Title:         event.Title,
		Status:        string(event.Status),
		StartedAt:     isoTime(event.StartedAt),
		FinishedAt:    isoTime(event.FinishedAt),
		FilePath:      event.FilePath,
		Error:         event.Error,
		PlaylistID:    event.PlaylistID,
		PlaylistTitle: event.PlaylistTitle,
	}
}

// coalesceRecord fills the incoming row's null fields from the existing row.
// status and url always keep the incoming value.
func coalesceRecord(incoming, existing *model.HistoryRecord) {
	if incoming.Title == nil {
		incoming.Title = existing.Title
	}
	if incoming.StartedAt == nil {
		incoming.StartedAt = existing.StartedAt
	}
	if incoming.FinishedAt == nil {
		incoming.FinishedAt = existing.FinishedAt
	}
	if incoming.FilePath == nil {
		incoming.FilePath = existing.FilePath
	}
	if incoming.Error == nil {
		incoming.Error = existing.Error
	}
	if incoming.PlaylistID == nil {
		incoming.PlaylistID = existing.PlaylistID
	}
	if incoming.PlaylistTitle == nil {
		incoming.PlaylistTitle = existing.PlaylistTitle
	}
}

type storedRecord struct {
	RowID int64 `db:"row_id"`
	model.HistoryRecord
}

// Fetch looks up a record by video ID and/or URL. The canonical key is the
// primary lookup; the raw URL column is a secondary resolution path for rows
// whose imported url disagrees with their key. When several rows match, the
// one with the most recent finished_at wins (nulls last), ties broken by
// insertion order. Returns nil without error when nothing matches.
func (s *Store) Fetch(ctx context.Context, videoID, rawURL string) (*model.HistoryRecord, error) {
	if videoID == "" && rawURL == "" {
		return nil, nil
	}

	db, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	type lookup struct {
		column string
		value  string
	}
	var lookups []lookup
	if videoID != "" {
		lookups = append(lookups, lookup{"video_id", Normalize(videoID)})
	}
	if rawURL != "" {
		lookups = append(lookups, lookup{"video_id", Normalize(rawURL)})
		lookups = append(lookups, lookup{"url", rawURL})
	}

	var candidates []storedRecord
	seen := make(map[string]bool)
	for _, l := range lookups {
		var rows []storedRecord
		err := db.SelectContext(ctx, &rows,
			`SELECT rowid AS row_id, `+recordColumns+` FROM downloads WHERE `+l.column+` = ?`, l.value)
		if err != nil {
			return nil, fmt.Errorf("fetch history row: %w", err)
		}
		for _, row := range rows {
			if seen[row.VideoID] {
				continue
			}
			seen[row.VideoID] = true
			candidates = append(candidates, row)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.FinishedAt != nil && b.FinishedAt == nil:
			return true
		case a.FinishedAt == nil && b.FinishedAt != nil:
			return false
		case a.FinishedAt != nil && b.FinishedAt != nil && *a.FinishedAt != *b.FinishedAt:
			return *a.FinishedAt > *b.FinishedAt
		}
		return a.RowID < b.RowID
	})

	record := candidates[0].HistoryRecord
	return &record, nil
}

// UpdateParams is the partial-update surface for user decisions: status and
// last_action overwrite when set, RetryIncrement adds one to the counter
// (null counted as zero).
type UpdateParams struct {
	Status         *string
	RetryIncrement bool
	LastAction     *string
}

// Update applies a targeted partial update to every row matching the video ID
// or URL. A call with no fields set is a no-op.
func (s *Store) Update(ctx context.Context, videoID, rawURL string, params UpdateParams) error {
	if videoID == "" && rawURL == "" {
		return nil
	}
	if params.Status == nil && params.LastAction == nil && !params.RetryIncrement {
		return nil
	}

	db, err := s.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		sets []string
		args []any
	)
	if params.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *params.Status)
	}
	if params.LastAction != nil {
		sets = append(sets, "last_action = ?")
		args = append(args, *params.LastAction)
	}
	if params.RetryIncrement {
		sets = append(sets, "retry_count = COALESCE(retry_count, 0) + 1")
	}

	var conditions []string
	if videoID != "" {
		conditions = append(conditions, "video_id = ?")
		args = append(args, Normalize(videoID))
	}
	if rawURL != "" {
		conditions = append(conditions, "video_id = ?", "url = ?")
		args = append(args, Normalize(rawURL), rawURL)
	}

	query := "UPDATE downloads SET " + strings.Join(sets, ", ") +
		" WHERE " + strings.Join(conditions, " OR ")
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update history row: %w", err)
	}
	return nil
}

// Filter selects and bounds the rows returned by List.
type Filter struct {
	Statuses   []string
	Limit      int    // <= 0 means unlimited
	Since      string // inclusive, naive-UTC ISO-8601
	PlaylistID string
}

// List returns records ordered by finished_at descending, falling back to
// started_at when finished_at is null.
func (s *Store) List(ctx context.Context, filter Filter) ([]model.HistoryRecord, error) {
	db, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `SELECT ` + recordColumns + ` FROM downloads`
	var (
		conditions []string
		args       []any
	)

	var statuses []string
	for _, status := range filter.Statuses {
		if status != "" {
			statuses = append(statuses, status)
		}
	}
	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
		conditions = append(conditions, "status IN ("+placeholders+")")
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	if filter.Since != "" {
		conditions = append(conditions, "COALESCE(finished_at, started_at) >= ?")
		args = append(args, filter.Since)
	}
	if filter.PlaylistID != "" {
		conditions = append(conditions, "playlist_id = ?")
		args = append(args, filter.PlaylistID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(finished_at, started_at) DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var records []model.HistoryRecord
	if err := db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list history rows: %w", err)
	}
	return records, nil
}

func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(timeLayout)
	return &formatted
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
