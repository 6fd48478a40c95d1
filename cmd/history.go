package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ytget/ytd/internal/history"
	"github.com/ytget/ytd/internal/model"
)

var historyFlags struct {
	statuses []string
	limit    int
	since    string
	playlist string
	format   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryList(cmd)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id-or-url>",
	Short: "Show one history record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryShow(cmd, args[0])
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history records as JSONL or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryExport(cmd)
	},
}

func init() {
	f := historyCmd.PersistentFlags()
	f.StringSliceVarP(&historyFlags.statuses, "status", "s", nil, "filter by status (repeatable)")
	f.StringVar(&historyFlags.since, "since", "", "only records since this time (2006-01-02 or RFC3339)")
	f.StringVar(&historyFlags.playlist, "playlist", "", "only records from this playlist id")

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum rows to show, 0 for all")
	historyExportCmd.Flags().StringVar(&historyFlags.format, "format", "jsonl", "export format: jsonl or csv")

	historyCmd.AddCommand(historyShowCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory builds the app and fails loudly when the history database is
// unavailable; unlike downloads, the history commands are useless without it.
func openHistory(cmd *cobra.Command) (*app, error) {
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, err
	}
	if a.store == nil {
		a.close()
		return nil, errors.New("download history is disabled or unavailable")
	}
	return a, nil
}

func historyFilter(limit int) (history.Filter, error) {
	filter := history.Filter{
		Statuses:   historyFlags.statuses,
		Limit:      limit,
		PlaylistID: historyFlags.playlist,
	}
	if historyFlags.since != "" {
		since, err := parseSince(historyFlags.since)
		if err != nil {
			return history.Filter{}, err
		}
		filter.Since = since
	}
	return filter, nil
}

// parseSince accepts a date or an RFC3339 timestamp and converts it to the
// naive-UTC form the store compares against.
func parseSince(value string) (string, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05"), nil
		}
	}
	return "", fmt.Errorf("cannot parse --since value %q", value)
}

func runHistoryList(cmd *cobra.Command) error {
	a, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	filter, err := historyFilter(historyFlags.limit)
	if err != nil {
		return err
	}
	records, err := a.store.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history records match")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Finished", "Retries", "Last action"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.VideoID,
			truncate(r.GetTitle(), 48),
			r.Status,
			strOr(r.FinishedAt, "-"),
			r.RetryCount,
			strOr(r.LastAction, "-"),
		})
	}
	t.Render()
	return nil
}

func runHistoryShow(cmd *cobra.Command, ident string) error {
	a, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	// The argument may be a plain video id or a full URL; Fetch tries both
	// interpretations.
	videoID := history.ExtractVideoID(ident)
	record, err := a.store.Fetch(cmd.Context(), videoID, ident)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record not found: %s", ident)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:             %s\n", record.VideoID)
	fmt.Fprintf(out, "status:         %s\n", record.Status)
	fmt.Fprintf(out, "title:          %s\n", strOr(record.Title, "-"))
	fmt.Fprintf(out, "url:            %s\n", strOr(record.URL, "-"))
	fmt.Fprintf(out, "started:        %s\n", strOr(record.StartedAt, "-"))
	fmt.Fprintf(out, "finished:       %s\n", strOr(record.FinishedAt, "-"))
	fmt.Fprintf(out, "file:           %s\n", strOr(record.FilePath, "-"))
	fmt.Fprintf(out, "error:          %s\n", strOr(record.Error, "-"))
	fmt.Fprintf(out, "playlist id:    %s\n", strOr(record.PlaylistID, "-"))
	fmt.Fprintf(out, "playlist title: %s\n", strOr(record.PlaylistTitle, "-"))
	fmt.Fprintf(out, "retries:        %d\n", record.RetryCount)
	fmt.Fprintf(out, "last action:    %s\n", strOr(record.LastAction, "-"))
	return nil
}

func runHistoryExport(cmd *cobra.Command) error {
	a, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	filter, err := historyFilter(0)
	if err != nil {
		return err
	}
	records, err := a.store.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	switch historyFlags.format {
	case "jsonl":
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	case "csv":
		return exportCSV(cmd, records)
	default:
		return fmt.Errorf("unknown export format %q (want jsonl or csv)", historyFlags.format)
	}
}

func exportCSV(cmd *cobra.Command, records []model.HistoryRecord) error {
	w := csv.NewWriter(cmd.OutOrStdout())
	header := []string{
		"video_id", "url", "title", "status", "started_at", "finished_at",
		"file_path", "error", "playlist_id", "playlist_title", "retry_count", "last_action",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.VideoID,
			strOr(r.URL, ""),
			strOr(r.Title, ""),
			r.Status,
			strOr(r.StartedAt, ""),
			strOr(r.FinishedAt, ""),
			strOr(r.FilePath, ""),
			strOr(r.Error, ""),
			strOr(r.PlaylistID, ""),
			strOr(r.PlaylistTitle, ""),
			strconv.Itoa(r.RetryCount),
			strOr(r.LastAction, ""),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func strOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
