package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()
	testDir := filepath.Join(tempDir, "nested", "dirs")

	if err := EnsureDir(testDir); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Fatalf("Directory was not created: %s", testDir)
	}

	// Second call should not fail
	if err := EnsureDir(testDir); err != nil {
		t.Fatalf("Failed to handle existing directory: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"clean name kept", "My Video [abc123].mp4", "My Video [abc123].mp4"},
		{"forbidden characters", `a<b>c:d"e/f\g|h?i*j.mp4`, "a_b_c_d_e_f_g_h_i_j.mp4"},
		{"control characters removed", "tab\there.mp4", "tabhere.mp4"},
		{"trailing dots and spaces", "name. . ", "name"},
		{"question marks", "???", "___"},
		{"only control characters", "\x01\x02", "_"},
		{"reserved device name", "CON.mp4", "CON_.mp4"},
		{"reserved lowercase", "aux.txt", "aux_.txt"},
		{"reserved with ordinal", "COM3", "COM3_"},
		{"non-reserved lookalike", "CONSOLE.mp4", "CONSOLE.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LengthCap(t *testing.T) {
	long := strings.Repeat("x", 300) + ".mp4"
	got := SanitizeFilename(long)

	if len([]rune(got)) != MaxFilenameLength {
		t.Errorf("Expected %d characters, got %d", MaxFilenameLength, len([]rune(got)))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("Extension was not preserved: %q", got[len(got)-10:])
	}
}

func TestFindExistingFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"Some Title [abc123DEF-_].mp4",
		"Some Title [abc123DEF-_]_audio.m4a",
		"Unrelated [other456].mp4",
		"Some Title [abc123DEF-_].txt", // not a media extension
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to create fixture: %v", err)
		}
	}

	found := FindExistingFiles(dir, "abc123DEF-_")
	if len(found) != 2 {
		t.Fatalf("Expected 2 matches, got %d: %v", len(found), found)
	}
	// Sorted output
	if filepath.Base(found[0]) != "Some Title [abc123DEF-_].mp4" {
		t.Errorf("Unexpected first match: %s", found[0])
	}
}

func TestFindExistingFiles_MissingDirOrID(t *testing.T) {
	if found := FindExistingFiles(filepath.Join(t.TempDir(), "absent"), "abc"); found != nil {
		t.Errorf("Expected nil for missing directory, got %v", found)
	}
	if found := FindExistingFiles(t.TempDir(), ""); found != nil {
		t.Errorf("Expected nil for empty id, got %v", found)
	}
}
