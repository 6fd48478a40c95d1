package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytd/internal/model"
)

// scriptedPrompter replays canned answers and records everything said to it.
type scriptedPrompter struct {
	answers []string
	said    []string
	inputs  []string
}

func (p *scriptedPrompter) Say(msg string) { p.said = append(p.said, msg) }

func (p *scriptedPrompter) Choose(prompt, defaultChoice string) string {
	return p.next(defaultChoice)
}

func (p *scriptedPrompter) Input(prompt, defaultValue string) string {
	p.inputs = append(p.inputs, defaultValue)
	return p.next(defaultValue)
}

func (p *scriptedPrompter) next(fallback string) string {
	if len(p.answers) == 0 {
		return fallback
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	if answer == "" {
		return fallback
	}
	return answer
}

func TestDecide_NilStoreProceeds(t *testing.T) {
	driver := NewDriver(nil, &scriptedPrompter{}, nil)

	decision := driver.Decide(context.Background(), "whatever-id", "", "", "")
	assert.True(t, decision.Proceed)
	assert.Empty(t, decision.Action)
}

func TestDecide_NoRecordProceedsSilently(t *testing.T) {
	store := newTestStore(t)
	prompter := &scriptedPrompter{}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(context.Background(), "unseen-key-1", "https://x.test/unseen", "", "")
	assert.True(t, decision.Proceed)
	assert.Empty(t, prompter.said)
}

func TestDecide_SuccessDefaultsToSkip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/done",
		Status:  model.StatusSuccess,
		Title:   strptr("Done Already"),
	}))

	prompter := &scriptedPrompter{answers: []string{""}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/done", "Done Already", "downloads")
	assert.False(t, decision.Proceed)
	assert.Equal(t, ActionSkip, decision.Action)
	assert.Contains(t, prompter.said, "Skipped (already in download history)")

	record, err := store.Fetch(ctx, "", "https://x.test/done")
	require.NoError(t, err)
	require.NotNil(t, record)
	// Skipping does not disturb the stored status or retry count.
	assert.Equal(t, string(model.StatusSuccess), record.Status)
	assert.Equal(t, 0, record.RetryCount)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, ActionSkip, *record.LastAction)
}

func TestDecide_SuccessOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/redo",
		Status:  model.StatusSuccess,
	}))

	prompter := &scriptedPrompter{answers: []string{"2"}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/redo", "", "downloads")
	assert.True(t, decision.Proceed)
	assert.True(t, decision.Overwrite)
	assert.Equal(t, ActionOverwrite, decision.Action)

	record, err := store.Fetch(ctx, "", "https://x.test/redo")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(model.StatusInProgress), record.Status)
	assert.Equal(t, 1, record.RetryCount)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, ActionOverwrite, *record.LastAction)
}

func TestDecide_SuccessDownloadElsewhere(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID:  "https://x.test/move",
		Status:   model.StatusSuccess,
		FilePath: strptr("/media/old/clip.mp4"),
	}))

	prompter := &scriptedPrompter{answers: []string{"3", "/media/new"}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/move", "", "downloads")
	assert.True(t, decision.Proceed)
	assert.False(t, decision.Overwrite)
	assert.Equal(t, "/media/new", decision.NewOutputDir)
	assert.Equal(t, ActionDownloadElsewhere, decision.Action)
	// The previous file location seeds the directory prompt.
	require.Len(t, prompter.inputs, 1)
	assert.Equal(t, "/media/old/clip.mp4", prompter.inputs[0])
}

func TestDecide_UnfinishedDefaultsToResume(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/half",
		Status:  model.StatusFailed,
		Error:   strptr("network timeout"),
	}))

	prompter := &scriptedPrompter{answers: []string{""}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/half", "", "downloads")
	assert.True(t, decision.Proceed)
	assert.False(t, decision.Overwrite)
	assert.Equal(t, ActionResume, decision.Action)

	record, err := store.Fetch(ctx, "", "https://x.test/half")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(model.StatusInProgress), record.Status)
	assert.Equal(t, 1, record.RetryCount)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, ActionResume, *record.LastAction)
}

func TestDecide_UnfinishedRestart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/broken",
		Status:  model.StatusInProgress,
	}))

	prompter := &scriptedPrompter{answers: []string{"2"}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/broken", "", "downloads")
	assert.True(t, decision.Proceed)
	assert.True(t, decision.Overwrite)
	assert.Equal(t, ActionRestart, decision.Action)

	record, err := store.Fetch(ctx, "", "https://x.test/broken")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.NotNil(t, record.LastAction)
	assert.Equal(t, ActionRestart, *record.LastAction)
	assert.Equal(t, 1, record.RetryCount)
}

func TestDecide_UnfinishedSkip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/leave",
		Status:  model.StatusFailed,
	}))

	prompter := &scriptedPrompter{answers: []string{"0"}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/leave", "", "downloads")
	assert.False(t, decision.Proceed)
	assert.Equal(t, ActionSkip, decision.Action)

	record, err := store.Fetch(ctx, "", "https://x.test/leave")
	require.NoError(t, err)
	require.NotNil(t, record)
	// Declining to restart leaves the failed status in place.
	assert.Equal(t, string(model.StatusFailed), record.Status)
	assert.Equal(t, 0, record.RetryCount)
}

func TestDecide_UnknownStatusBinaryChoice(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordEvent(ctx, model.DownloadEvent{
		VideoID: "https://x.test/odd",
		Status:  model.Status("finished"),
	}))

	prompter := &scriptedPrompter{answers: []string{""}}
	driver := NewDriver(store, prompter, nil)

	decision := driver.Decide(ctx, "", "https://x.test/odd", "", "downloads")
	assert.True(t, decision.Proceed)
	assert.Equal(t, ActionProceed, decision.Action)

	prompter = &scriptedPrompter{answers: []string{"0"}}
	decision = NewDriver(store, prompter, nil).Decide(ctx, "", "https://x.test/odd", "", "downloads")
	assert.False(t, decision.Proceed)
	assert.Equal(t, ActionSkip, decision.Action)
}
