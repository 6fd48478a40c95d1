package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ytget/ytd/internal/download"
	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/pause"
	"github.com/ytget/ytd/internal/platform"
	"github.com/ytget/ytd/internal/wizard"
)

var downloadFlags struct {
	output        string
	urlsFile      string
	audioOnly     bool
	audioFormat   string
	videoFormat   string
	quality       string
	nameTemplate  string
	subtitles     []string
	proxy         string
	retry         int
	retryDelay    time.Duration
	dryRun        bool
	playlist      bool
	playlistItems string
	interactive   bool
	pauseBetween  bool
	overwrite     bool
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video, audio track, or playlist",
	Long: `Download media with yt-dlp. A single URL can be given as an argument,
or a batch of URLs via --urls-file (one per line, # starts a comment).

Known downloads are checked against the history database first, and in
interactive mode the quality, filename, and playlist selection are chosen
through prompts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	f := downloadCmd.Flags()
	f.StringVarP(&downloadFlags.output, "output", "o", "", "output directory")
	f.StringVarP(&downloadFlags.urlsFile, "urls-file", "f", "", "file with URLs, one per line")
	f.BoolVar(&downloadFlags.audioOnly, "audio-only", false, "download only the audio track")
	f.StringVar(&downloadFlags.audioFormat, "audio-format", "", "audio container (m4a, mp3, opus)")
	f.StringVar(&downloadFlags.videoFormat, "video-format", "", "video container (mp4, webm)")
	f.StringVarP(&downloadFlags.quality, "quality", "q", "", "quality: best, 1080p, 720p, 480p or audio")
	f.StringVar(&downloadFlags.nameTemplate, "name", "", "output name template (yt-dlp syntax)")
	f.StringSliceVar(&downloadFlags.subtitles, "subtitles", nil, "subtitle languages to embed (en,ru,...)")
	f.StringVar(&downloadFlags.proxy, "proxy", "", "proxy URL (http://, socks5://)")
	f.IntVar(&downloadFlags.retry, "retry", -1, "retry attempts on failure")
	f.DurationVar(&downloadFlags.retryDelay, "retry-delay", 0, "initial delay between retries")
	f.BoolVar(&downloadFlags.dryRun, "dry-run", false, "resolve metadata without downloading")
	f.BoolVar(&downloadFlags.playlist, "playlist", false, "treat the URL as a playlist")
	f.StringVar(&downloadFlags.playlistItems, "playlist-items", "", "playlist items to fetch, e.g. 1-3,7")
	f.BoolVarP(&downloadFlags.interactive, "interactive", "i", false, "choose quality and names interactively")
	f.BoolVar(&downloadFlags.pauseBetween, "pause-between", false, "allow pausing between videos with a hotkey")
	f.BoolVar(&downloadFlags.overwrite, "overwrite", false, "overwrite files that already exist")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no URL given: pass one as an argument or use --urls-file")
	}

	if err := download.EnsureBinary(ctx); err != nil {
		return err
	}

	opts := baseOptions(a)
	dl := download.New(a.logger, a.store, opts.Proxy)
	driver := history.NewDriver(a.store, a.prompter, a.logger)

	var pc *pause.Controller
	if downloadFlags.pauseBetween || a.cfg.PauseBetweenVideos {
		pc = pause.NewController(a.cfg.PauseKey, a.cfg.ResumeKey)
		if err := pc.Enable(); err != nil {
			a.logger.Debug("pause hotkeys unavailable", zap.Error(err))
		} else {
			defer pc.Disable()
		}
	}

	var failed []string
	for i, url := range urls {
		if i > 0 && pc != nil {
			pc.WaitIfPaused()
		}

		perURL := opts
		perURL.URL = url
		if downloadFlags.playlist || download.IsPlaylistURL(url) {
			err = runPlaylist(ctx, a, dl, driver, pc, perURL)
		} else {
			err = runSingle(ctx, a, dl, driver, perURL)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.prompter.Say(fmt.Sprintf("[ERROR] %s: %v", url, err))
			failed = append(failed, url)
		}
	}

	if len(urls) > 1 {
		a.prompter.Say("")
		a.prompter.Say(fmt.Sprintf("Done: %d of %d succeeded", len(urls)-len(failed), len(urls)))
		for _, url := range failed {
			a.prompter.Say("  failed: " + url)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(failed), len(urls))
	}
	return nil
}

// baseOptions merges configuration defaults with the command line, flags
// winning.
func baseOptions(a *app) model.DownloadOptions {
	cfg := a.cfg
	opts := model.DownloadOptions{
		OutputDir:     cfg.Output,
		AudioOnly:     cfg.AudioOnly || downloadFlags.audioOnly,
		AudioFormat:   cfg.AudioFormat,
		VideoFormat:   cfg.VideoFormat,
		Quality:       cfg.Quality,
		NameTemplate:  cfg.NameTemplate,
		Subtitles:     cfg.Subtitles,
		Proxy:         cfg.Proxy,
		Retry:         cfg.Retry,
		RetryDelay:    cfg.RetryDelay,
		SaveMetadata:  cfg.SaveMetadata,
		DryRun:        downloadFlags.dryRun,
		PlaylistItems: downloadFlags.playlistItems,
		Overwrite:     downloadFlags.overwrite,
	}
	if downloadFlags.output != "" {
		opts.OutputDir = downloadFlags.output
	}
	if downloadFlags.audioFormat != "" {
		opts.AudioFormat = downloadFlags.audioFormat
	}
	if downloadFlags.videoFormat != "" {
		opts.VideoFormat = downloadFlags.videoFormat
	}
	if downloadFlags.quality != "" {
		opts.Quality = downloadFlags.quality
	}
	if downloadFlags.nameTemplate != "" {
		opts.NameTemplate = downloadFlags.nameTemplate
	}
	if len(downloadFlags.subtitles) > 0 {
		opts.Subtitles = downloadFlags.subtitles
	}
	if downloadFlags.proxy != "" {
		opts.Proxy = downloadFlags.proxy
	}
	if downloadFlags.retry >= 0 {
		opts.Retry = downloadFlags.retry
	}
	if downloadFlags.retryDelay > 0 {
		opts.RetryDelay = downloadFlags.retryDelay
	}
	return opts
}

func collectURLs(args []string) ([]string, error) {
	var urls []string
	urls = append(urls, args...)

	if downloadFlags.urlsFile == "" {
		return urls, nil
	}
	file, err := os.Open(downloadFlags.urlsFile)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	return urls, nil
}

// decideTopLevel consults the history for a top-level URL before its first
// download attempt and applies the outcome. Returns false when the user chose
// to skip.
func decideTopLevel(ctx context.Context, driver *history.Driver, opts *model.DownloadOptions) bool {
	decision := driver.Decide(ctx, "", opts.URL, "", opts.OutputDir)
	if !decision.Proceed {
		return false
	}
	applyDecision(opts, decision)
	return true
}

func runSingle(ctx context.Context, a *app, dl *download.Downloader, driver *history.Driver, opts model.DownloadOptions) error {
	if !decideTopLevel(ctx, driver, &opts) {
		return nil
	}

	if downloadFlags.interactive {
		info, err := dl.Probe(ctx, opts.URL)
		if err != nil {
			a.logger.Warn("metadata probe failed, downloading with configured settings", zap.Error(err))
		} else {
			configureInteractive(a, &opts, info)
		}
	}

	files, err := dl.Download(ctx, opts)
	if err != nil {
		return err
	}
	for _, file := range files {
		a.prompter.Say("Saved: " + file)
	}
	return nil
}

// configureInteractive runs the single-video wizard: quality menu, filename
// suffix and prefix, and the overwrite check against existing files.
func configureInteractive(a *app, opts *model.DownloadOptions, info *model.VideoInfo) {
	p := a.prompter
	if info.Title != "" {
		p.Say("")
		p.Say("Title: " + info.Title)
	}

	heightToExt, heights := wizard.CollectAvailableHeights(info.Formats)
	options := wizard.BuildQualityOptions(heightToExt, heights)
	choice := wizard.ShowQualityMenu(p, options)
	opts.CustomFormat = choice.Format

	defaultSuffix := platform.QualitySuffix(choice.Format, choice.Label)
	opts.QualitySuffix = wizard.ConfigureFilenameSuffix(p, defaultSuffix)

	prefix, replaceName := wizard.ConfigureFilenamePrefix(p)
	if replaceName {
		name := p.Input("New filename (without extension)", info.Title)
		if name != "" {
			opts.NameTemplate = platform.SanitizeFilename(name) + ".%(ext)s"
		}
	} else {
		opts.FilePrefix = prefix
	}

	if !opts.Overwrite && info.ID != "" {
		opts.Overwrite = wizard.CheckExistingFilesDialog(p, opts.OutputDir, info.ID)
	}
}

func runPlaylist(ctx context.Context, a *app, dl *download.Downloader, driver *history.Driver, pc *pause.Controller, opts model.DownloadOptions) error {
	opts.Playlist = true

	// The container URL gets its own history decision before any entry is
	// touched; each entry is decided independently later.
	if !decideTopLevel(ctx, driver, &opts) {
		return nil
	}

	info, err := dl.ProbePlaylist(ctx, opts.URL)
	if err != nil || !info.IsPlaylist() {
		if err != nil {
			a.logger.Debug("playlist probe failed, handing the URL to yt-dlp directly", zap.Error(err))
		}
		_, err := dl.Download(ctx, opts)
		return err
	}

	wizard.ShowPlaylistInfo(a.prompter, info)

	if !downloadFlags.interactive {
		_, err := dl.Download(ctx, opts)
		return err
	}

	mode, ok := wizard.ChoosePlaylistMode(a.prompter)
	if !ok {
		a.prompter.Say("Cancelled")
		return nil
	}

	entries := selectEntries(a, info)
	if len(entries) == 0 {
		a.prompter.Say("Nothing to download")
		return nil
	}

	existing, missing := wizard.AnalyzePlaylistProgress(opts.OutputDir, playlistEntries(info, entries))
	indices, restart := wizard.PromptPlaylistResume(a.prompter, playlistEntries(info, entries), existing, missing)
	if len(indices) == 0 {
		a.prompter.Say("Playlist download skipped")
		return nil
	}
	if restart {
		opts.Overwrite = true
	}

	numbered, numberTemplate := wizard.ConfigurePlaylistNumbering(a.prompter)

	plan := playlistPlan{strategy: platform.StrategyEconom}
	if mode == wizard.PlaylistModeUnified {
		plan = configureUnified(ctx, a, dl, info, entries, indices)
	}

	var failed int
	for i, sel := range indices {
		entry := info.Entries[entries[sel-1]]
		if i > 0 && pc != nil {
			pc.WaitIfPaused()
		}

		entryOpts := opts
		entryOpts.Playlist = false
		entryOpts.PlaylistItems = ""
		entryOpts.URL = entry.BestURL()
		if numbered {
			entryOpts.FilePrefix = wizard.ExpandNumberTemplate(numberTemplate, sel)
		}

		decision := driver.Decide(ctx, entry.ID, entryOpts.URL, entry.Title, entryOpts.OutputDir)
		if !decision.Proceed {
			continue
		}
		applyDecision(&entryOpts, decision)

		if mode == wizard.PlaylistModePerItem {
			if full, err := dl.Probe(ctx, entryOpts.URL); err == nil {
				configureInteractive(a, &entryOpts, full)
			}
		} else {
			applyUnifiedChoice(ctx, a, dl, &entryOpts, entry, plan)
		}

		if _, err := dl.Download(ctx, entryOpts); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.prompter.Say(fmt.Sprintf("[ERROR] %s: %v", entryOpts.URL, err))
			failed++
		}
	}

	a.prompter.Say("")
	a.prompter.Say(fmt.Sprintf("Playlist done: %d of %d succeeded", len(indices)-failed, len(indices)))
	if failed > 0 {
		return fmt.Errorf("%d of %d playlist items failed", failed, len(indices))
	}
	return nil
}

// selectEntries applies --playlist-items to the probed entry list and returns
// the 0-based positions of the chosen entries.
func selectEntries(a *app, info *model.VideoInfo) []int {
	total := len(info.Entries)
	if downloadFlags.playlistItems == "" {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}

	selection, err := wizard.ParseSelectionMask(downloadFlags.playlistItems, total)
	if err != nil {
		a.prompter.Say("[WARN] bad --playlist-items value, taking the whole playlist: " + err.Error())
		return selectEntriesAll(total)
	}
	out := make([]int, 0, len(selection))
	for _, idx := range selection {
		out = append(out, idx-1)
	}
	return out
}

func selectEntriesAll(total int) []int {
	out := make([]int, total)
	for i := range out {
		out[i] = i
	}
	return out
}

// playlistEntries maps the selected 0-based positions back to entry infos, so
// the resume dialogs operate on the selection only.
func playlistEntries(info *model.VideoInfo, positions []int) []*model.VideoInfo {
	out := make([]*model.VideoInfo, len(positions))
	for i, pos := range positions {
		out[i] = info.Entries[pos]
	}
	return out
}

// playlistPlan carries the unified-mode choices applied to every entry.
type playlistPlan struct {
	choice   wizard.QualityOption
	suffix   string
	strategy string
	chosen   bool
}

// configureUnified runs the quality wizard once against the first selected
// entry and remembers the fallback strategy for entries that lack the chosen
// resolution.
func configureUnified(ctx context.Context, a *app, dl *download.Downloader, info *model.VideoInfo, entries, indices []int) playlistPlan {
	plan := playlistPlan{strategy: platform.StrategyEconom}

	first := info.Entries[entries[indices[0]-1]]
	probe, err := dl.Probe(ctx, first.BestURL())
	if err != nil {
		a.logger.Warn("could not probe the first playlist entry, using configured quality", zap.Error(err))
		return plan
	}

	heightToExt, heights := wizard.CollectAvailableHeights(probe.Formats)
	options := wizard.BuildQualityOptions(heightToExt, heights)
	plan.choice = wizard.ShowQualityMenu(a.prompter, options)
	plan.chosen = true

	defaultSuffix := platform.QualitySuffix(plan.choice.Format, plan.choice.Label)
	plan.suffix = wizard.ConfigureFilenameSuffix(a.prompter, defaultSuffix)

	if plan.choice.TargetHeight > 0 {
		plan.strategy = wizard.ConfigureQualityFallback(a.prompter)
	}
	return plan
}

// applyUnifiedChoice fits the unified quality choice to one entry. When a
// specific resolution was requested, the entry's own format list is consulted
// and the closest height under the configured strategy is substituted.
func applyUnifiedChoice(ctx context.Context, a *app, dl *download.Downloader, opts *model.DownloadOptions, entry *model.VideoInfo, plan playlistPlan) {
	if !plan.chosen {
		return
	}
	opts.CustomFormat = plan.choice.Format
	opts.QualitySuffix = plan.suffix

	if plan.choice.TargetHeight <= 0 {
		return
	}

	probe, err := dl.Probe(ctx, opts.URL)
	if err != nil {
		a.logger.Debug("entry probe failed, keeping the unified format", zap.Error(err))
		return
	}
	heightToExt, heights := wizard.CollectAvailableHeights(probe.Formats)
	if len(heights) == 0 {
		return
	}

	height, ok := platform.BestQualityMatch(heights, plan.choice.TargetHeight, plan.strategy)
	if !ok || height == plan.choice.TargetHeight {
		return
	}
	for _, opt := range wizard.BuildQualityOptions(heightToExt, heights) {
		if opt.TargetHeight == height {
			a.logger.Info("adjusted quality for entry",
				zap.String("url", opts.URL),
				zap.Int("requested", plan.choice.TargetHeight),
				zap.Int("selected", height))
			opts.CustomFormat = opt.Format
			if plan.suffix != "" {
				opts.QualitySuffix = "_" + platform.HeightLabel(height)
			}
			return
		}
	}
}

func applyDecision(opts *model.DownloadOptions, decision history.Decision) {
	if decision.Overwrite {
		opts.Overwrite = true
	}
	if decision.NewOutputDir != "" {
		opts.OutputDir = decision.NewOutputDir
	}
}
