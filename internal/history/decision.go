package history

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/model"
)

// Action tags recorded as last_action after a decision.
const (
	ActionSkip              = "skip"
	ActionProceed           = "proceed"
	ActionOverwrite         = "overwrite"
	ActionDownloadElsewhere = "download_elsewhere"
	ActionResume            = "resume"
	ActionRestart           = "restart"
)

// Decision is the outcome of consulting history before a download attempt:
// whether to proceed, with which output overrides, and under which action tag.
type Decision struct {
	Proceed        bool
	Overwrite      bool
	NewOutputDir   string
	Action         string
	IncrementRetry bool
}

// Prompter abstracts the interactive questions the decision driver asks, so
// the driver can be exercised with scripted answers in tests.
type Prompter interface {
	// Say prints one line of context to the user.
	Say(msg string)
	// Choose asks for a menu choice and returns the entered token, or the
	// default on empty input.
	Choose(prompt, defaultChoice string) string
	// Input asks for a free-form value with a default.
	Input(prompt, defaultValue string) string
}

// Driver turns fetched history records into user decisions and writes the
// outcome back. A driver with a nil store always decides to proceed.
type Driver struct {
	store    *Store
	prompter Prompter
	logger   *zap.Logger
}

// NewDriver creates a decision driver.
func NewDriver(store *Store, prompter Prompter, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{store: store, prompter: prompter, logger: logger}
}

// Decide fetches the history record for the given identifiers and, when one
// exists, prompts the user for how to handle the repeat download. The chosen
// action is written back (last_action, retry increment, and status forced to
// in_progress when proceeding with a non-skip action); write-back failures
// are logged at debug level and swallowed.
//
// defaultDir seeds the "different directory" prompt when the user redirects
// the download.
func (d *Driver) Decide(ctx context.Context, videoID, rawURL, titleHint, defaultDir string) Decision {
	if d == nil || d.store == nil {
		return Decision{Proceed: true}
	}

	record, err := d.store.Fetch(ctx, videoID, rawURL)
	if err != nil {
		d.logger.Debug("history fetch failed", zap.String("url", rawURL), zap.Error(err))
		return Decision{Proceed: true}
	}
	if record == nil {
		return Decision{Proceed: true}
	}

	if titleHint != "" {
		d.prompter.Say("-> " + titleHint)
	}
	d.sayCard(record)

	var decision Decision
	switch status := model.Status(strings.ToLower(record.Status)); {
	case status == model.StatusSuccess:
		decision = d.decideOnSuccess(record, defaultDir)
	case status.IsUnfinished():
		decision = d.decideOnUnfinished()
	default:
		decision = d.decideOnOther()
	}

	d.writeBack(ctx, videoID, rawURL, decision)

	if !decision.Proceed {
		d.prompter.Say("Skipped (already in download history)")
	}
	return decision
}

func (d *Driver) decideOnSuccess(record *model.HistoryRecord, defaultDir string) Decision {
	d.prompter.Say("This download already finished successfully. Choose an action:")
	d.prompter.Say("  1) Skip it")
	d.prompter.Say("  2) Overwrite the existing files")
	d.prompter.Say("  3) Download to a different directory")

	switch strings.TrimSpace(d.prompter.Choose("Your choice", "1")) {
	case "2":
		return Decision{Proceed: true, Overwrite: true, Action: ActionOverwrite, IncrementRetry: true}
	case "3":
		suggested := defaultDir
		if record.FilePath != nil && *record.FilePath != "" {
			suggested = *record.FilePath
		}
		dir := d.prompter.Input("New output directory", suggested)
		return Decision{Proceed: true, NewOutputDir: dir, Action: ActionDownloadElsewhere, IncrementRetry: true}
	default:
		return Decision{Action: ActionSkip}
	}
}

func (d *Driver) decideOnUnfinished() Decision {
	d.prompter.Say("The previous download did not finish. What now?")
	d.prompter.Say("  1) Resume")
	d.prompter.Say("  2) Start over")
	d.prompter.Say("  0) Skip")

	switch strings.TrimSpace(d.prompter.Choose("Your choice", "1")) {
	case "2":
		return Decision{Proceed: true, Overwrite: true, Action: ActionRestart, IncrementRetry: true}
	case "0":
		return Decision{Action: ActionSkip}
	default:
		return Decision{Proceed: true, Action: ActionResume, IncrementRetry: true}
	}
}

func (d *Driver) decideOnOther() Decision {
	d.prompter.Say("A history record exists for this URL. Continue downloading?")
	d.prompter.Say("  1) Yes")
	d.prompter.Say("  0) No, skip it")

	if strings.TrimSpace(d.prompter.Choose("Your choice", "1")) == "0" {
		return Decision{Action: ActionSkip}
	}
	return Decision{Proceed: true, Action: ActionProceed}
}

func (d *Driver) writeBack(ctx context.Context, videoID, rawURL string, decision Decision) {
	params := UpdateParams{
		LastAction:     &decision.Action,
		RetryIncrement: decision.IncrementRetry,
	}
	if decision.Proceed && decision.Action != ActionSkip {
		inProgress := string(model.StatusInProgress)
		params.Status = &inProgress
	}
	if err := d.store.Update(ctx, videoID, rawURL, params); err != nil {
		d.logger.Debug("history write-back failed", zap.String("url", rawURL), zap.Error(err))
	}
}

func (d *Driver) sayCard(record *model.HistoryRecord) {
	d.prompter.Say("")
	d.prompter.Say("Found in download history:")
	d.prompter.Say(fmt.Sprintf("  id:      %s", record.VideoID))
	if record.Title != nil {
		d.prompter.Say(fmt.Sprintf("  title:   %s", *record.Title))
	}
	d.prompter.Say(fmt.Sprintf("  status:  %s", record.Status))
	if record.StartedAt != nil {
		d.prompter.Say(fmt.Sprintf("  started: %s", *record.StartedAt))
	}
	if record.FinishedAt != nil {
		d.prompter.Say(fmt.Sprintf("  finished:%s", " "+*record.FinishedAt))
	}
	if record.FilePath != nil {
		d.prompter.Say(fmt.Sprintf("  file:    %s", *record.FilePath))
	}
	if record.Error != nil {
		d.prompter.Say(fmt.Sprintf("  error:   %s", *record.Error))
	}
	if record.RetryCount > 0 {
		d.prompter.Say(fmt.Sprintf("  retries: %d", record.RetryCount))
	}
	if record.LastAction != nil {
		d.prompter.Say(fmt.Sprintf("  action:  %s", *record.LastAction))
	}
}
