package download

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/model"
)

func TestRecordAll_FailedEventDoesNotSuppressTheRest(t *testing.T) {
	ctx := context.Background()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	_, err = store.EnsureSchema(ctx)
	require.NoError(t, err)

	d := New(zap.NewNop(), store, "")

	// The first event carries neither id nor url so the store rejects it;
	// the remaining events must still be written.
	d.recordAll(ctx, []model.DownloadEvent{
		{Status: model.StatusFailed},
		{VideoID: "first-valid-video", Status: model.StatusSuccess},
		{VideoID: "second-valid-video", Status: model.StatusSuccess},
	})

	for _, id := range []string{"first-valid-video", "second-valid-video"} {
		record, err := store.Fetch(ctx, id, "")
		require.NoError(t, err)
		require.NotNil(t, record, "event after a failed one should still be recorded")
		require.Equal(t, string(model.StatusSuccess), record.Status)
	}
}
