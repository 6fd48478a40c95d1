package platform

import (
	"fmt"
	"regexp"
	"strings"
)

// Quality match strategies
const (
	StrategyEconom = "econom"
	StrategyRich   = "rich"
)

var (
	labelHeightRe  = regexp.MustCompile(`(\d{3,4})p`)
	formatHeightRe = regexp.MustCompile(`height<=(\d{3,4})`)
)

// QualitySuffix derives a filename suffix from the chosen format, so files
// downloaded at different qualities do not collide: "_1080p", "_audio", or
// "_best" when nothing more specific can be read off the selection.
func QualitySuffix(formatChoice, formatLabel string) string {
	if m := labelHeightRe.FindStringSubmatch(formatLabel); m != nil {
		return "_" + m[1] + "p"
	}
	// A capped-height selection wins over the audio check: combined formats
	// like "bestvideo[height<=720]+bestaudio/..." also contain "bestaudio".
	if m := formatHeightRe.FindStringSubmatch(formatChoice); m != nil {
		return "_" + m[1] + "p"
	}
	if strings.Contains(strings.ToLower(formatLabel), "audio") ||
		strings.Contains(formatChoice, "bestaudio") {
		return "_audio"
	}
	return "_best"
}

// BestQualityMatch picks the height to download given what the extractor
// offers. targetHeight 0 means "best available". Strategies:
//
//   - econom: largest height at or below the target, falling back to the
//     smallest one above it. Saves bandwidth when the exact target is missing.
//   - rich: largest height at or above the target, falling back to the
//     largest one below it.
//
// The second return value is false when no heights are available.
func BestQualityMatch(availableHeights []int, targetHeight int, strategy string) (int, bool) {
	if len(availableHeights) == 0 {
		return 0, false
	}

	if targetHeight == 0 {
		return maxOf(availableHeights), true
	}

	var lower, higher []int
	for _, h := range availableHeights {
		if h == targetHeight {
			return h, true
		}
		if h < targetHeight {
			lower = append(lower, h)
		} else {
			higher = append(higher, h)
		}
	}

	if strategy == StrategyRich {
		if len(higher) > 0 {
			return maxOf(higher), true
		}
		return maxOf(lower), true
	}

	// econom
	if len(lower) > 0 {
		return maxOf(lower), true
	}
	return minOf(higher), true
}

// HeightLabel formats a height for menus, e.g. "1080p".
func HeightLabel(height int) string {
	return fmt.Sprintf("%dp", height)
}

func maxOf(values []int) int {
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func minOf(values []int) int {
	best := values[0]
	for _, v := range values[1:] {
		if v < best {
			best = v
		}
	}
	return best
}
