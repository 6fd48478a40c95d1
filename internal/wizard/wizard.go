package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ytget/ytd/internal/model"
	"github.com/ytget/ytd/internal/platform"
)

// Prompter is the question surface the wizard flows need.
type Prompter interface {
	Say(msg string)
	Choose(prompt, defaultChoice string) string
	Input(prompt, defaultValue string) string
	Confirm(prompt string, defaultYes bool) bool
}

const separator = "============================================================"

// AudioOnlyHeight marks the audio-only quality option.
const AudioOnlyHeight = -1

// maxMenuOptions caps the quality menu length.
const maxMenuOptions = 8

// QualityOption is one entry of the quality menu.
type QualityOption struct {
	Label  string
	Format string
	// TargetHeight is the resolution this option asks for, 0 for "best
	// available" and AudioOnlyHeight for audio-only.
	TargetHeight int
}

// CollectAvailableHeights scans the format list for video variants and maps
// each height to its preferred container (mp4 over webm). The returned
// heights are sorted descending.
func CollectAvailableHeights(formats []model.FormatInfo) (map[int]string, []int) {
	heightToExt := make(map[int]string)
	for _, f := range formats {
		if f.VCodec == "" || f.VCodec == "none" || f.Height <= 0 {
			continue
		}
		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}
		if existing, ok := heightToExt[f.Height]; !ok || (ext == "mp4" && existing != "mp4") {
			heightToExt[f.Height] = ext
		}
	}

	heights := make([]int, 0, len(heightToExt))
	for h := range heightToExt {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heightToExt, heights
}

// BuildQualityOptions assembles the quality menu: best available first, then
// per-height options, audio-only last.
func BuildQualityOptions(heightToExt map[int]string, heights []int) []QualityOption {
	options := []QualityOption{
		{Label: "Best available quality", Format: "bestvideo+bestaudio/best", TargetHeight: 0},
	}

	for _, h := range heights {
		ext := heightToExt[h]
		audioExt := "webm"
		if ext == "mp4" {
			audioExt = "m4a"
		}
		format := fmt.Sprintf(
			"bestvideo[height<=%d][ext=%s]+bestaudio[ext=%s]/best[height<=%d][ext=%s]/best[height<=%d]",
			h, ext, audioExt, h, ext, h)
		options = append(options, QualityOption{
			Label:        fmt.Sprintf("Video %s %dp", strings.ToUpper(ext), h),
			Format:       format,
			TargetHeight: h,
		})
		if len(options) >= maxMenuOptions {
			break
		}
	}

	options = append(options, QualityOption{
		Label:        "Audio only (m4a)",
		Format:       "bestaudio[ext=m4a]/bestaudio",
		TargetHeight: AudioOnlyHeight,
	})
	return options
}

// ShowQualityMenu presents the options and returns the chosen one. Bad input
// falls back to the first option.
func ShowQualityMenu(p Prompter, options []QualityOption) QualityOption {
	p.Say("")
	p.Say(separator)
	p.Say("Choose quality:")
	p.Say(separator)
	for i, opt := range options {
		p.Say(fmt.Sprintf("  %d) %s", i+1, opt.Label))
	}

	choice := strings.TrimSpace(p.Choose("Option number", "1"))
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(options) {
		p.Say("Invalid choice, using best available")
		return options[0]
	}
	return options[idx-1]
}

// ConfigureFilenameSuffix asks whether to append a quality suffix to the
// filename. Returns "" when the user declines.
func ConfigureFilenameSuffix(p Prompter, defaultSuffix string) string {
	p.Say("")
	p.Say("Append a quality suffix to the filename?")
	p.Say(fmt.Sprintf("  1) Yes, append '%s'", defaultSuffix))
	p.Say("  2) Yes, but enter my own")
	p.Say("  3) No suffix")

	switch strings.TrimSpace(p.Choose("Pick an option", "1")) {
	case "2":
		return p.Input("Suffix (e.g. '_720p' or '_hd')", defaultSuffix)
	case "3":
		return ""
	default:
		return defaultSuffix
	}
}

// ConfigureFilenamePrefix asks about a filename prefix. The second return is
// true when the user wants to replace the name entirely.
func ConfigureFilenamePrefix(p Prompter) (string, bool) {
	p.Say("")
	p.Say("Filename options:")
	p.Say("  1) Keep as is")
	p.Say("  2) Add a prefix (e.g. '01_')")
	p.Say("  3) Replace the whole name")

	switch strings.TrimSpace(p.Choose("Pick an action", "1")) {
	case "2":
		return p.Input("Prefix (e.g. '01_')", ""), false
	case "3":
		return "", true
	default:
		return "", false
	}
}

// CheckExistingFilesDialog lists files already downloaded for the video and
// asks whether to overwrite them. Returns true to overwrite.
func CheckExistingFilesDialog(p Prompter, outputDir, videoID string) bool {
	existing := platform.FindExistingFiles(outputDir, videoID)
	if len(existing) == 0 {
		return false
	}

	p.Say("")
	p.Say(separator)
	p.Say("Files for this video already exist:")
	p.Say(separator)
	for i, path := range existing {
		line := fmt.Sprintf("  %d) %s", i+1, filepath.Base(path))
		if info, err := os.Stat(path); err == nil {
			line += fmt.Sprintf(" (%.1f MB)", float64(info.Size())/(1024*1024))
		}
		p.Say(line)
	}

	if p.Confirm("Overwrite the existing files?", false) {
		p.Say("Existing files will be overwritten")
		return true
	}
	p.Say("Download will be skipped when the file already exists")
	return false
}

// ShowPlaylistInfo prints the playlist summary and its first entries.
func ShowPlaylistInfo(p Prompter, info *model.VideoInfo) {
	title := info.Title
	if title == "" {
		title = "Unknown playlist"
	}

	p.Say("")
	p.Say(separator)
	p.Say(fmt.Sprintf("Playlist detected: %q (%d videos)", title, len(info.Entries)))
	p.Say(separator)

	const preview = 10
	for i, entry := range info.Entries {
		if i >= preview {
			p.Say(fmt.Sprintf("  ... and %d more", len(info.Entries)-preview))
			break
		}
		entryTitle := entry.Title
		if entryTitle == "" {
			entryTitle = "Untitled"
		}
		p.Say(fmt.Sprintf("  %2d) %s (%s)", i+1, entryTitle, entry.DurationString()))
	}
	p.Say(separator)
}

// Playlist configuration modes.
const (
	PlaylistModeUnified = 1
	PlaylistModePerItem = 2
)

// ChoosePlaylistMode asks how to configure the playlist. ok is false on
// cancel.
func ChoosePlaylistMode(p Prompter) (mode int, ok bool) {
	p.Say("")
	p.Say("Choose a configuration mode:")
	p.Say("  1) One set of settings for every video (fast, recommended)")
	p.Say("  2) Configure each video separately (slow, flexible)")
	p.Say("  3) Cancel")

	switch strings.TrimSpace(p.Choose("Your choice", "1")) {
	case "2":
		return PlaylistModePerItem, true
	case "3":
		return 0, false
	default:
		return PlaylistModeUnified, true
	}
}

// ConfigurePlaylistNumbering asks whether to number playlist files. The
// returned template contains {N} placeholders, e.g. "{N:02d}_".
func ConfigurePlaylistNumbering(p Prompter) (bool, string) {
	p.Say("")
	p.Say("Number the playlist files?")
	p.Say("  1) Yes, auto-increment (01_, 02_, 03_...)")
	p.Say("  2) Yes, with a custom prefix template")
	p.Say("  3) No")

	switch strings.TrimSpace(p.Choose("Your choice", "1")) {
	case "2":
		template := p.Input("Prefix template ({N} is the number, e.g. 'Video_{N:03d}_')", "{N:02d}_")
		return true, template
	case "3":
		return false, ""
	default:
		return true, "{N:02d}_"
	}
}

// ExpandNumberTemplate substitutes the item number into a numbering
// template produced by ConfigurePlaylistNumbering.
func ExpandNumberTemplate(template string, n int) string {
	replacements := []struct{ from, to string }{
		{"{N:02d}", fmt.Sprintf("%02d", n)},
		{"{N:03d}", fmt.Sprintf("%03d", n)},
		{"{N}", strconv.Itoa(n)},
	}
	out := template
	for _, r := range replacements {
		out = strings.ReplaceAll(out, r.from, r.to)
	}
	return out
}

// ConfigureQualityFallback asks which strategy to use when the chosen
// quality is unavailable for some videos.
func ConfigureQualityFallback(p Prompter) string {
	p.Say("")
	p.Say("When the chosen quality is unavailable for some videos:")
	p.Say("  1) econom: closest at or below, else closest above (recommended)")
	p.Say("  2) rich: best at or above, else closest below")

	if strings.TrimSpace(p.Choose("Your choice", "1")) == "2" {
		return platform.StrategyRich
	}
	return platform.StrategyEconom
}

// ParseSelectionMask parses a playlist selection like "1,3,5-7", "5-",
// "-4", or "all" into sorted 1-based indices.
func ParseSelectionMask(mask string, total int) ([]int, error) {
	if total <= 0 {
		return nil, nil
	}
	mask = strings.TrimSpace(strings.ReplaceAll(mask, ";", ","))
	if mask == "" {
		return nil, fmt.Errorf("empty selection")
	}

	picked := make(map[int]bool)
	for _, token := range strings.Split(mask, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.EqualFold(token, "all") {
			return fullRange(total), nil
		}

		if strings.Contains(token, "-") {
			parts := strings.SplitN(token, "-", 2)
			start, end := 1, total
			var err error
			if s := strings.TrimSpace(parts[0]); s != "" {
				if start, err = strconv.Atoi(s); err != nil {
					return nil, fmt.Errorf("bad range start %q", parts[0])
				}
			}
			if s := strings.TrimSpace(parts[1]); s != "" {
				if end, err = strconv.Atoi(s); err != nil {
					return nil, fmt.Errorf("bad range end %q", parts[1])
				}
			}
			if start < 1 || end < 1 || start > total || end > total {
				return nil, fmt.Errorf("range %s out of bounds 1-%d", token, total)
			}
			if start > end {
				return nil, fmt.Errorf("range %s starts after it ends", token)
			}
			for i := start; i <= end; i++ {
				picked[i] = true
			}
			continue
		}

		value, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("bad index %q", token)
		}
		if value < 1 || value > total {
			return nil, fmt.Errorf("index %d out of bounds 1-%d", value, total)
		}
		picked[value] = true
	}

	if len(picked) == 0 {
		return nil, fmt.Errorf("nothing selected")
	}
	indices := make([]int, 0, len(picked))
	for i := range picked {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices, nil
}

// AnalyzePlaylistProgress reports which playlist items already have files in
// the output directory. Keys of existing and entries of missing are 1-based.
func AnalyzePlaylistProgress(outputDir string, entries []*model.VideoInfo) (existing map[int][]string, missing []int) {
	existing = make(map[int][]string)
	for i, entry := range entries {
		idx := i + 1
		if entry == nil || entry.ID == "" {
			missing = append(missing, idx)
			continue
		}
		if found := platform.FindExistingFiles(outputDir, entry.ID); len(found) > 0 {
			existing[idx] = found
		} else {
			missing = append(missing, idx)
		}
	}
	return existing, missing
}

// PromptPlaylistResume shows what is already downloaded and asks how to
// continue. It returns the 1-based indices to download and whether existing
// files should be redownloaded from scratch.
func PromptPlaylistResume(p Prompter, entries []*model.VideoInfo, existing map[int][]string, missing []int) (indices []int, restart bool) {
	total := len(entries)
	if total == 0 {
		return nil, false
	}
	if len(existing) == 0 {
		return fullRange(total), false
	}

	p.Say("")
	p.Say(separator)
	p.Say(fmt.Sprintf("Already downloaded videos found: %d", len(existing)))
	p.Say(separator)

	indicesWithFiles := make([]int, 0, len(existing))
	for idx := range existing {
		indicesWithFiles = append(indicesWithFiles, idx)
	}
	sort.Ints(indicesWithFiles)
	for _, idx := range indicesWithFiles {
		title := fmt.Sprintf("Video %d", idx)
		if idx-1 < len(entries) && entries[idx-1] != nil && entries[idx-1].Title != "" {
			title = entries[idx-1].Title
		}
		p.Say(fmt.Sprintf("  %2d) %s, %d file(s)", idx, title, len(existing[idx])))
	}
	p.Say(separator)

	if len(missing) > 0 {
		p.Say(fmt.Sprintf("By default the download resumes from video #%d.", missing[0]))
		p.Say("Available actions:")
		p.Say("  1) Resume from that video")
		p.Say("  2) Delete the found files and download the playlist again")
		p.Say("  3) Pick videos manually")
	} else {
		p.Say("Every playlist video is already present in the output directory.")
		p.Say("Choose an action:")
		p.Say("  1) Skip the download")
		p.Say("  2) Delete the found files and download the playlist again")
		p.Say("  3) Pick videos manually")
	}

	for {
		switch strings.TrimSpace(p.Choose("Your choice", "1")) {
		case "1":
			if len(missing) > 0 {
				out := make([]int, 0, total-missing[0]+1)
				for i := missing[0]; i <= total; i++ {
					out = append(out, i)
				}
				return out, false
			}
			return nil, false
		case "2":
			return fullRange(total), true
		case "3":
			return promptManualSelection(p, total, missing), false
		default:
			p.Say("Enter 1, 2 or 3")
		}
	}
}

func promptManualSelection(p Prompter, total int, defaultIndices []int) []int {
	defaultMask := "all"
	if len(defaultIndices) > 0 {
		parts := make([]string, len(defaultIndices))
		for i, v := range defaultIndices {
			parts[i] = strconv.Itoa(v)
		}
		defaultMask = strings.Join(parts, ",")
	}

	p.Say("")
	p.Say("Manual selection: enter video numbers separated by commas.")
	p.Say("Ranges are supported: '3-7', '5-' (from the 5th on), '-4' (up to the 4th), and 'all'.")

	for {
		input := p.Input("Numbers/ranges", defaultMask)
		selection, err := ParseSelectionMask(input, total)
		if err != nil {
			p.Say("[ERROR] " + err.Error())
			continue
		}
		if len(selection) == 0 {
			p.Say("[WARN] no videos selected")
			continue
		}
		return selection
	}
}

func fullRange(total int) []int {
	out := make([]int, total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
