package download

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/platform"
)

// progressInterval is how often yt-dlp progress updates are sampled.
const progressInterval = 500 * time.Millisecond

// FormatString derives the yt-dlp format selector from the options. An
// explicit CustomFormat wins; otherwise audio-only and the quality/container
// presets are applied.
func FormatString(opts model.DownloadOptions) string {
	if opts.CustomFormat != "" {
		return opts.CustomFormat
	}

	if opts.AudioOnly || opts.Quality == "audio" {
		audioExt := opts.AudioFormat
		if audioExt == "" {
			audioExt = "m4a"
		}
		return fmt.Sprintf("bestaudio[ext=%s]/bestaudio/best", audioExt)
	}

	ext := opts.VideoFormat
	if ext == "" {
		ext = "mp4"
	}
	audioExt := "webm"
	if ext == "mp4" {
		audioExt = "m4a"
	}

	if maxHeight := qualityHeight(opts.Quality); maxHeight > 0 {
		return fmt.Sprintf(
			"bestvideo[height<=%d][ext=%s]+bestaudio[ext=%s]/best[height<=%d][ext=%s]/best[height<=%d]",
			maxHeight, ext, audioExt, maxHeight, ext, maxHeight)
	}
	return fmt.Sprintf("bestvideo[ext=%s]+bestaudio[ext=%s]/best[ext=%s]/best", ext, audioExt, ext)
}

// qualityHeight extracts the numeric height from presets like "1080p".
func qualityHeight(quality string) int {
	trimmed := strings.TrimSuffix(quality, "p")
	if trimmed == quality {
		return 0
	}
	var h int
	if _, err := fmt.Sscanf(trimmed, "%d", &h); err != nil {
		return 0
	}
	return h
}

// BuildOutputTemplate decorates the base name template with the file prefix
// and the quality suffix, the latter inserted before the extension.
func BuildOutputTemplate(opts model.DownloadOptions) string {
	template := opts.NameTemplate
	if template == "" {
		template = "%(title)s [%(id)s].%(ext)s"
	}

	if opts.QualitySuffix != "" {
		if strings.Contains(template, ".%(ext)s") {
			base := strings.Replace(template, ".%(ext)s", "", 1)
			template = base + opts.QualitySuffix + ".%(ext)s"
		} else {
			template += opts.QualitySuffix
		}
	}
	return opts.FilePrefix + template
}

// buildCommand assembles the yt-dlp invocation for the given options.
func (d *Downloader) buildCommand(opts model.DownloadOptions) *ytdlp.Command {
	cmd := ytdlp.New().
		RestrictFilenames().
		Output(filepath.Join(opts.OutputDir, BuildOutputTemplate(opts))).
		Format(FormatString(opts))

	if opts.Overwrite {
		cmd = cmd.ForceOverwrites()
	}
	if !opts.Playlist {
		cmd = cmd.NoPlaylist()
	}
	if opts.PlaylistItems != "" {
		cmd = cmd.PlaylistItems(opts.PlaylistItems)
	}
	if opts.Proxy != "" {
		cmd = cmd.Proxy(opts.Proxy)
	}
	if len(opts.Subtitles) > 0 {
		cmd = cmd.WriteSubs().
			SubLangs(strings.Join(opts.Subtitles, ",")).
			SubFormat("srt")
	}
	if opts.DryRun {
		cmd = cmd.SkipDownload()
	}
	if ffmpegDir := platform.FindFFmpeg(); ffmpegDir != "" {
		cmd = cmd.FFmpegLocation(ffmpegDir)
	}

	cmd.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		d.logProgress(update)
	})
	return cmd
}

func (d *Downloader) logProgress(update ytdlp.ProgressUpdate) {
	fields := []zap.Field{
		zap.Int("downloaded_bytes", update.DownloadedBytes),
		zap.Int("total_bytes", update.TotalBytes),
	}
	if update.TotalBytes > 0 {
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		fields = append(fields, zap.String("percent", fmt.Sprintf("%.1f%%", percent)))
	}
	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed > 0 {
			speed := float64(update.DownloadedBytes) / elapsed.Seconds()
			fields = append(fields, zap.String("speed", fmt.Sprintf("%.1fMB/s", speed/1024/1024)))
		}
	}
	if update.Info != nil && update.Info.Title != nil {
		fields = append(fields, zap.String("title", *update.Info.Title))
	}
	d.logger.Debug("downloading", fields...)
}
