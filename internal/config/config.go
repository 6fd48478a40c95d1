// Package config loads application configuration from a YAML file and
// YTD_-prefixed environment variables, with environment taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ytget/ytd/internal/platform"
)

// Default values applied when neither the config file nor the environment
// provides a setting.
const (
	DefaultOutput       = "downloads"
	DefaultQuality      = "best"
	DefaultVideoFormat  = "mp4"
	DefaultAudioFormat  = "m4a"
	DefaultNameTemplate = "%(title)s [%(id)s].%(ext)s"
	DefaultRetry        = 3
	DefaultRetryDelay   = 5 * time.Second
	DefaultSaveMetadata = "data/meta.jsonl"
	DefaultHistoryDB    = "data/history.db"
	DefaultPauseKey     = "p"
	DefaultResumeKey    = "r"
	DefaultLogLevel     = "info"
	DefaultLogFile      = "logs/ytd.log"
)

// ConfigFileEnvVar names an alternate config file location.
const ConfigFileEnvVar = "YTD_CONFIG"

// DefaultConfigFile is looked up in the working directory when no explicit
// path is given.
const DefaultConfigFile = "ytd.config.yaml"

// Config is the resolved application configuration. Paths are absolute and
// their parent directories exist by the time Load returns.
type Config struct {
	Output       string
	Quality      string
	VideoFormat  string
	AudioOnly    bool
	AudioFormat  string
	NameTemplate string
	Subtitles    []string
	Proxy        string
	Retry        int
	RetryDelay   time.Duration

	// SaveMetadata is the JSONL metadata log; empty disables metadata capture.
	SaveMetadata string

	// HistoryDB is the sqlite download history; HistoryEnabled false turns
	// the whole history subsystem off.
	HistoryDB      string
	HistoryEnabled bool

	PauseBetweenVideos bool
	PauseKey           string
	ResumeKey          string

	LogLevel string
	LogFile  string
}

// Load resolves configuration with the priority: environment > config file >
// defaults. configPath may be empty, in which case YTD_CONFIG and then
// ./ytd.config.yaml are tried. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ytd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = os.Getenv(ConfigFileEnvVar)
	}
	explicit := configPath != ""
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
		// Absent file: fall through to defaults and environment.
	}

	cfg := &Config{
		Output:             v.GetString("output"),
		Quality:            v.GetString("quality"),
		VideoFormat:        v.GetString("video_format"),
		AudioOnly:          v.GetBool("audio_only"),
		AudioFormat:        v.GetString("audio_format"),
		NameTemplate:       v.GetString("name_template"),
		Subtitles:          subtitleList(v),
		Proxy:              v.GetString("proxy"),
		Retry:              v.GetInt("retry"),
		RetryDelay:         retryDelay(v),
		SaveMetadata:       v.GetString("save_metadata"),
		HistoryDB:          v.GetString("history_db"),
		HistoryEnabled:     v.GetBool("history_enabled"),
		PauseBetweenVideos: v.GetBool("pause_between_videos"),
		PauseKey:           v.GetString("pause_key"),
		ResumeKey:          v.GetString("resume_key"),
		LogLevel:           v.GetString("log_level"),
		LogFile:            v.GetString("log_file"),
	}

	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("quality", DefaultQuality)
	v.SetDefault("video_format", DefaultVideoFormat)
	v.SetDefault("audio_only", false)
	v.SetDefault("audio_format", DefaultAudioFormat)
	v.SetDefault("name_template", DefaultNameTemplate)
	v.SetDefault("subtitles", []string{})
	v.SetDefault("proxy", "")
	v.SetDefault("retry", DefaultRetry)
	v.SetDefault("retry_delay", DefaultRetryDelay.Seconds())
	v.SetDefault("save_metadata", DefaultSaveMetadata)
	v.SetDefault("history_db", DefaultHistoryDB)
	v.SetDefault("history_enabled", true)
	v.SetDefault("pause_between_videos", false)
	v.SetDefault("pause_key", DefaultPauseKey)
	v.SetDefault("resume_key", DefaultResumeKey)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)
}

// retryDelay accepts either a duration string ("2s", "500ms") or a float
// number of seconds, the latter matching older config files.
func retryDelay(v *viper.Viper) time.Duration {
	raw := v.GetString("retry_delay")
	if raw == "" {
		return DefaultRetryDelay
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if seconds := v.GetFloat64("retry_delay"); seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return DefaultRetryDelay
}

// subtitleList reads the subtitles setting either as a YAML list or as a
// comma-separated string from the environment.
func subtitleList(v *viper.Viper) []string {
	var values []string
	switch raw := v.Get("subtitles").(type) {
	case string:
		values = strings.Split(raw, ",")
	default:
		values = v.GetStringSlice("subtitles")
	}
	var out []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// prepare makes paths absolute and creates the directories the application
// writes into.
func (c *Config) prepare() error {
	var err error
	if c.Output, err = absPath(c.Output); err != nil {
		return err
	}
	if err := platform.EnsureDir(c.Output); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	if c.SaveMetadata != "" {
		if c.SaveMetadata, err = absPath(c.SaveMetadata); err != nil {
			return err
		}
		if err := platform.EnsureDir(filepath.Dir(c.SaveMetadata)); err != nil {
			return fmt.Errorf("prepare metadata dir: %w", err)
		}
	}

	if c.HistoryDB != "" {
		if c.HistoryDB, err = absPath(c.HistoryDB); err != nil {
			return err
		}
	}
	return nil
}

// absPath expands a leading "~" and anchors relative paths at the working
// directory.
func absPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
