package platform

import "testing"

func TestQualitySuffix(t *testing.T) {
	tests := []struct {
		name     string
		choice   string
		label    string
		expected string
	}{
		{"height from label", "bestvideo+bestaudio", "Video MP4 1080p", "_1080p"},
		{"audio label", "bestaudio[ext=m4a]/bestaudio", "Audio only (m4a)", "_audio"},
		{"bestaudio choice", "bestaudio/best", "", "_audio"},
		{"height from format", "bestvideo[height<=720]+bestaudio/best[height<=720]", "", "_720p"},
		{"default best", "best", "Best available", "_best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualitySuffix(tt.choice, tt.label); got != tt.expected {
				t.Errorf("QualitySuffix(%q, %q) = %q, want %q", tt.choice, tt.label, got, tt.expected)
			}
		})
	}
}

func TestBestQualityMatch(t *testing.T) {
	heights := []int{360, 480, 720, 1440}

	tests := []struct {
		name     string
		heights  []int
		target   int
		strategy string
		expected int
		ok       bool
	}{
		{"empty set", nil, 720, StrategyEconom, 0, false},
		{"no target returns max", heights, 0, StrategyEconom, 1440, true},
		{"exact match", heights, 720, StrategyEconom, 720, true},
		{"econom prefers below", heights, 1080, StrategyEconom, 720, true},
		{"econom falls back above", []int{720, 1080}, 480, StrategyEconom, 720, true},
		{"rich prefers above", heights, 1080, StrategyRich, 1440, true},
		{"rich falls back below", []int{360, 480}, 1080, StrategyRich, 480, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestQualityMatch(tt.heights, tt.target, tt.strategy)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("BestQualityMatch(%v, %d, %s) = (%d, %v), want (%d, %v)",
					tt.heights, tt.target, tt.strategy, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestHeightLabel(t *testing.T) {
	if got := HeightLabel(1080); got != "1080p" {
		t.Errorf("HeightLabel(1080) = %q", got)
	}
}
