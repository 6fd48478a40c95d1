package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/platform"
)

// Downloader wraps yt-dlp with retry, history and metadata plumbing. A nil
// store disables history without changing anything else.
type Downloader struct {
	logger *zap.Logger
	store  *history.Store
	proxy  string
}

// New creates a downloader. Every downloader carries a run id in its log
// fields so parallel invocations stay distinguishable in the shared log file.
func New(logger *zap.Logger, store *history.Store, proxy string) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		logger: logger.With(zap.String("run_id", uuid.NewString())),
		store:  store,
		proxy:  proxy,
	}
}

// EnsureBinary provisions the yt-dlp binary when it is not already on the
// system, downloading a managed copy if needed.
func EnsureBinary(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	return nil
}

// Download runs one download request with retries and returns the saved file
// paths. History events (in_progress, then success or failed) are emitted per
// entry; history failures never abort the download. On DryRun nothing is
// downloaded or recorded.
func (d *Downloader) Download(ctx context.Context, opts model.DownloadOptions) ([]string, error) {
	if err := platform.EnsureDir(opts.OutputDir); err != nil {
		return nil, fmt.Errorf("prepare output dir: %w", err)
	}

	attempts := opts.Retry
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			d.logger.Warn("download failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("of", attempts),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		files, info, err := d.runOnce(ctx, opts)
		if err == nil {
			if !opts.DryRun {
				d.recordAll(ctx, buildEvents(info, opts, eventPatch{
					status:       model.StatusSuccess,
					finishedAt:   nowPtr(),
					filePaths:    files,
					withMetadata: true,
				}))
			}
			return files, nil
		}

		lastErr = err
		if !opts.DryRun {
			d.recordAll(ctx, buildEvents(info, opts, eventPatch{
				status:     model.StatusFailed,
				finishedAt: nowPtr(),
				err:        err.Error(),
			}))
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
	}

	d.logger.Error("download failed after all attempts",
		zap.Int("attempts", attempts), zap.String("url", opts.URL), zap.Error(lastErr))
	return nil, lastErr
}

// runOnce performs a single yt-dlp invocation: probe for metadata, emit the
// in_progress events, run the command, and collect the resulting filenames.
func (d *Downloader) runOnce(ctx context.Context, opts model.DownloadOptions) ([]string, *model.VideoInfo, error) {
	var info *model.VideoInfo
	if !opts.DryRun {
		probed, err := d.probeForRun(ctx, opts)
		if err != nil {
			d.logger.Debug("metadata probe failed", zap.String("url", opts.URL), zap.Error(err))
		} else {
			info = probed
			d.printInfo(info)
		}
		d.recordAll(ctx, buildEvents(info, opts, eventPatch{
			status:    model.StatusInProgress,
			startedAt: nowPtr(),
		}))
	}

	result, err := d.buildCommand(opts).Run(ctx, opts.URL)
	if err != nil {
		return nil, info, fmt.Errorf("yt-dlp: %w", err)
	}
	if opts.DryRun {
		return nil, info, nil
	}

	var files []string
	if result != nil {
		if extracted, infoErr := result.GetExtractedInfo(); infoErr == nil {
			for _, entry := range extracted {
				if entry != nil && entry.Filename != nil && *entry.Filename != "" {
					files = append(files, *entry.Filename)
				}
			}
		}
	}
	for _, f := range files {
		d.logger.Info("saved", zap.String("file", f))
	}
	return files, info, nil
}

func (d *Downloader) probeForRun(ctx context.Context, opts model.DownloadOptions) (*model.VideoInfo, error) {
	if opts.Playlist {
		return d.ProbePlaylist(ctx, opts.URL)
	}
	return d.Probe(ctx, opts.URL)
}

// recordAll writes events to the history store. History is advisory: each
// write is independently best-effort, errors are logged at debug and
// swallowed so one unrecordable entry cannot suppress the rest.
func (d *Downloader) recordAll(ctx context.Context, events []model.DownloadEvent) {
	if d.store == nil {
		// Without a store the metadata log is still kept.
		for _, event := range events {
			if event.Metadata != nil && event.MetadataPath != "" {
				if err := history.AppendMetaLog(event.Metadata, event.MetadataPath); err != nil {
					d.logger.Debug("metadata log append failed", zap.Error(err))
				}
			}
		}
		return
	}
	for _, event := range events {
		if err := d.store.RecordEvent(ctx, event); err != nil {
			d.logger.Debug("history record failed",
				zap.String("video_id", event.VideoID), zap.Error(err))
		}
	}
}

// printInfo logs the probed metadata the way the CLI presents it.
func (d *Downloader) printInfo(info *model.VideoInfo) {
	if info == nil {
		return
	}
	if info.IsPlaylist() {
		d.logger.Info("playlist",
			zap.String("title", info.Title),
			zap.Int("videos", len(info.Entries)))
		return
	}
	fields := []zap.Field{zap.String("title", info.Title)}
	if uploader := firstNonEmpty(info.Uploader, info.Channel); uploader != "" {
		fields = append(fields, zap.String("channel", uploader))
	}
	if info.Duration > 0 {
		fields = append(fields, zap.String("duration", info.DurationString()))
	}
	if info.ViewCount > 0 {
		fields = append(fields, zap.Int64("views", info.ViewCount))
	}
	d.logger.Info("video", fields...)
}

func nowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}
