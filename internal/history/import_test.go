package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytd/internal/model"
)

func writeMetaLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meta.jsonl")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFromLog_MissingFile(t *testing.T) {
	store := newTestStore(t)

	added, err := store.ImportFromLog(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestImportFromLog_SeedsEmptyStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := writeMetaLog(t,
		`{"id": "dQw4w9WgXcQ", "webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "title": "First", "filepath": "/media/first.mp4", "upload_date": "20240511"}`,
		`not json at all`,
		`{"title": "no identifier, dropped"}`,
		`{"id": "import-second", "url": "https://example.com/v/2", "timestamp": 1715400000}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	record, err := store.Fetch(ctx, "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "yt:dQw4w9WgXcQ", record.VideoID)
	assert.Equal(t, "finished", record.Status)
	require.NotNil(t, record.Title)
	assert.Equal(t, "First", *record.Title)
	require.NotNil(t, record.FilePath)
	assert.Equal(t, "/media/first.mp4", *record.FilePath)
	require.NotNil(t, record.FinishedAt)
	assert.Equal(t, "2024-05-11T00:00:00", *record.FinishedAt)
	assert.Nil(t, record.StartedAt)
}

func TestImportFromLog_SecondRunIsNoop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := writeMetaLog(t,
		`{"id": "import-once", "url": "https://example.com/v/1"}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestImportFromLog_GuardedByExistingRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "existing-row",
		URL:     "https://example.com/e",
		Status:  model.StatusSuccess,
	}))

	path := writeMetaLog(t,
		`{"id": "never-lands", "url": "https://example.com/v/9"}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	record, err := store.Fetch(ctx, "never-lands", "")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestImportFromLog_IdentifierPriority(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := writeMetaLog(t,
		// id wins over display_id and url.
		`{"id": "primary-key-1", "display_id": "display-key", "url": "https://example.com/v/a"}`,
		// No id: display_id wins over url.
		`{"display_id": "display-key-2", "url": "https://example.com/v/b"}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	record, err := store.Fetch(ctx, "primary-key-1", "")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.URL)
	assert.Equal(t, "https://example.com/v/a", *record.URL)

	record, err = store.Fetch(ctx, "display-key-2", "")
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestImportFromLog_RequestedDownloadsPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := writeMetaLog(t,
		`{"id": "nested-path-1", "url": "https://example.com/v/n", "requested_downloads": [{"filepath": "/media/nested.mkv"}]}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	record, err := store.Fetch(ctx, "nested-path-1", "")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.FilePath)
	assert.Equal(t, "/media/nested.mkv", *record.FilePath)
}

func TestImportFromLog_PlaylistAndStatusFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	path := writeMetaLog(t,
		`{"id": "in-a-playlist", "url": "https://example.com/v/p", "status": "failed", "playlist": "Mix Of Things"}`,
	)

	added, err := store.ImportFromLog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	record, err := store.Fetch(ctx, "in-a-playlist", "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "failed", record.Status)
	require.NotNil(t, record.PlaylistID)
	assert.Equal(t, "Mix Of Things", *record.PlaylistID)
	require.NotNil(t, record.PlaylistTitle)
	assert.Equal(t, "Mix Of Things", *record.PlaylistTitle)
}

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"epoch number", float64(1715400000), "2024-05-11T04:00:00"},
		{"epoch string", "1715400000", "2024-05-11T04:00:00"},
		{"calendar date", "20240511", "2024-05-11T00:00:00"},
		{"iso datetime", "2024-05-11T10:20:30", "2024-05-11T10:20:30"},
		{"rfc3339 with zone", "2024-05-11T10:20:30+02:00", "2024-05-11T08:20:30"},
		{"garbage", "soon", ""},
		{"nil", nil, ""},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTimestamp(tt.value))
		})
	}
}
