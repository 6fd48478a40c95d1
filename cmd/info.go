package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytget/ytd/internal/download"
	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/wizard"
)

var infoAsJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <url>",
	Short: "Show metadata for a video or playlist without downloading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		url := args[0]

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := download.EnsureBinary(ctx); err != nil {
			return err
		}

		dl := download.New(a.logger, a.store, a.cfg.Proxy)
		var info *model.VideoInfo
		if download.IsPlaylistURL(url) {
			info, err = dl.ProbePlaylist(ctx, url)
		} else {
			info, err = dl.Probe(ctx, url)
		}
		if err != nil {
			return fmt.Errorf("fetch metadata: %w", err)
		}

		if infoAsJSON {
			if info.Raw == nil {
				return errors.New("no raw metadata available")
			}
			payload, err := json.MarshalIndent(info.Raw, "", "  ")
			if err != nil {
				return fmt.Errorf("encode metadata: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		}

		printInfoSummary(cmd, info)
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoAsJSON, "json", false, "print the raw yt-dlp metadata as JSON")
	rootCmd.AddCommand(infoCmd)
}

func printInfoSummary(cmd *cobra.Command, info *model.VideoInfo) {
	out := cmd.OutOrStdout()

	if info.IsPlaylist() {
		fmt.Fprintf(out, "Playlist: %s\n", info.Title)
		fmt.Fprintf(out, "Entries:  %d\n", len(info.Entries))
		shown := len(info.Entries)
		if shown > 10 {
			shown = 10
		}
		for i := 0; i < shown; i++ {
			entry := info.Entries[i]
			if entry == nil {
				continue
			}
			fmt.Fprintf(out, "  %2d) %s (%s)\n", i+1, entry.Title, entry.DurationString())
		}
		if len(info.Entries) > shown {
			fmt.Fprintf(out, "  ... and %d more\n", len(info.Entries)-shown)
		}
		return
	}

	fmt.Fprintf(out, "Title:    %s\n", info.Title)
	fmt.Fprintf(out, "ID:       %s\n", info.ID)
	if info.Uploader != "" {
		fmt.Fprintf(out, "Uploader: %s\n", info.Uploader)
	} else if info.Channel != "" {
		fmt.Fprintf(out, "Channel:  %s\n", info.Channel)
	}
	fmt.Fprintf(out, "Duration: %s\n", info.DurationString())
	if info.ViewCount > 0 {
		fmt.Fprintf(out, "Views:    %d\n", info.ViewCount)
	}
	if info.UploadDate != "" {
		fmt.Fprintf(out, "Uploaded: %s\n", info.UploadDate)
	}
	if url := info.BestURL(); url != "" {
		fmt.Fprintf(out, "URL:      %s\n", url)
	}

	if _, heights := wizard.CollectAvailableHeights(info.Formats); len(heights) > 0 {
		fmt.Fprint(out, "Formats: ")
		for i, h := range heights {
			if i > 0 {
				fmt.Fprint(out, ", ")
			}
			fmt.Fprintf(out, "%dp", h)
		}
		fmt.Fprintln(out)
	}
}
