package platform

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// Environment variables that may point at an ffmpeg binary or its directory.
const (
	FFmpegEnvVar       = "YTD_FFMPEG"
	FFmpegBinaryEnvVar = "FFMPEG_BINARY"
)

// FindFFmpeg locates an ffmpeg installation and returns the directory that
// holds the binary, or "" when none is found. Lookup order:
//
//  1. YTD_FFMPEG or FFMPEG_BINARY (either the binary path or its directory)
//  2. the system PATH
//  3. a local tools/ffmpeg tree, searched recursively
func FindFFmpeg() string {
	for _, key := range []string{FFmpegEnvVar, FFmpegBinaryEnvVar} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		info, err := os.Stat(value)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return value
		}
		return filepath.Dir(value)
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return filepath.Dir(path)
	}

	toolsRoot := filepath.Join("tools", "ffmpeg")
	var found string
	_ = filepath.WalkDir(toolsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == "ffmpeg" || name == "ffmpeg.exe" {
			found = filepath.Dir(path)
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
