// Package cmd implements the ytd command-line interface: downloading videos
// and playlists, probing metadata, and inspecting the download history.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set during build via -ldflags "-X github.com/ytget/ytd/cmd.version=X.Y.Z"
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// verbose switches the file log to debug level.
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "ytd",
		Short: "Video and audio downloader with a local download history",
		Long: `ytd downloads videos, audio and playlists via yt-dlp and keeps a local
history of every download, so repeated links can be skipped, resumed or
redone deliberately.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so YTD_ variables reach the config layer.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./ytd.config.yaml or $YTD_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose logging (debug level in the log file)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ytd version %s\n", version)
		},
	})
}
