package platform

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Filename length limit imposed by common filesystems
const (
	MaxFilenameLength = 255
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:/\\|?*"]`)
	controlChars         = regexp.MustCompile(`[\x00-\x1F]`)
)

// Windows reserved device names; a bare "CON.mp4" is still invalid there.
var reservedBaseNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Media extensions considered when scanning for previous downloads.
var (
	VideoExtensions = []string{".mp4", ".webm", ".mkv", ".flv", ".avi"}
	AudioExtensions = []string{".m4a", ".mp3", ".opus", ".ogg", ".wav"}
)

// EnsureDir creates the directory and any missing parents. Idempotent.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, DefaultDirPermissions)
}

// SanitizeFilename rewrites a name so it is valid on every supported OS
// (the Windows rules being the strictest): forbidden characters become '_',
// control characters are dropped, trailing dots and spaces are trimmed,
// reserved device names get a suffix, and the result is capped at 255
// characters while preserving the extension when possible.
func SanitizeFilename(name string) string {
	if name == "" {
		return ""
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	base = invalidFilenameChars.ReplaceAllString(base, "_")
	base = controlChars.ReplaceAllString(base, "")
	base = strings.TrimRight(strings.TrimSpace(base), ". ")
	if base == "" {
		base = "_"
	}

	if reservedBaseNames[strings.ToUpper(base)] {
		base += "_"
	}

	safe := strings.TrimRight(strings.TrimSpace(base+ext), ". ")
	if safe == "" {
		safe = "_"
	}

	if runes := []rune(safe); len(runes) > MaxFilenameLength {
		extRunes := []rune(ext)
		if ext != "" && len(extRunes) < 20 {
			keep := MaxFilenameLength - len(extRunes)
			safe = string(runes[:keep]) + ext
		} else {
			safe = string(runes[:MaxFilenameLength])
		}
	}

	return safe
}

// FindExistingFiles scans outputDir for media files that belong to the given
// video. Downloads are named with the bracketed video id ("Title [id].mp4"),
// so membership is a plain substring check rather than a glob, where the
// brackets would be pattern syntax. Results come back sorted.
func FindExistingFiles(outputDir, videoID string) []string {
	if videoID == "" {
		return nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}

	marker := "[" + videoID + "]"
	extensions := make(map[string]bool)
	for _, ext := range VideoExtensions {
		extensions[ext] = true
	}
	for _, ext := range AudioExtensions {
		extensions[ext] = true
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if strings.Contains(name, marker) {
			found = append(found, filepath.Join(outputDir, name))
		}
	}
	sort.Strings(found)
	return found
}
