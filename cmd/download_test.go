package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/wizard"
)

const testPlaylistURL = "https://www.youtube.com/playlist?list=PLtest123"

func seededDriver(t *testing.T, input string) (*history.Store, *history.Driver) {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	_, err = store.EnsureSchema(ctx)
	require.NoError(t, err)

	finished := time.Date(2024, 5, 11, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		URL:        testPlaylistURL,
		Status:     model.StatusSuccess,
		FinishedAt: &finished,
	}))

	prompter := wizard.NewPrompter(strings.NewReader(input), &bytes.Buffer{})
	return store, history.NewDriver(store, prompter, zap.NewNop())
}

func TestDecideTopLevel_KnownPlaylistSkipsByDefault(t *testing.T) {
	ctx := context.Background()
	store, driver := seededDriver(t, "\n")

	opts := model.DownloadOptions{URL: testPlaylistURL, OutputDir: "downloads"}
	assert.False(t, decideTopLevel(ctx, driver, &opts),
		"a successfully downloaded playlist container should be skipped by default")

	record, err := store.Fetch(ctx, "", testPlaylistURL)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, "skip", *record.LastAction)
	assert.Equal(t, 0, record.RetryCount)
}

func TestDecideTopLevel_OverwriteProceedsAndWritesBack(t *testing.T) {
	ctx := context.Background()
	store, driver := seededDriver(t, "2\n")

	opts := model.DownloadOptions{URL: testPlaylistURL, OutputDir: "downloads"}
	assert.True(t, decideTopLevel(ctx, driver, &opts))
	assert.True(t, opts.Overwrite)

	record, err := store.Fetch(ctx, "", testPlaylistURL)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(model.StatusInProgress), record.Status)
	assert.Equal(t, 1, record.RetryCount)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, "overwrite", *record.LastAction)
}

func TestDecideTopLevel_UnknownURLProceedsSilently(t *testing.T) {
	ctx := context.Background()
	_, driver := seededDriver(t, "")

	opts := model.DownloadOptions{URL: "https://example.com/other", OutputDir: "downloads"}
	assert.True(t, decideTopLevel(ctx, driver, &opts))
	assert.False(t, opts.Overwrite)
}
