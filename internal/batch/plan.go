package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hiinaspace/animutools/internal/episode"
	"github.com/hiinaspace/animutools/internal/services"
	"github.com/hiinaspace/animutools/internal/textutil"
)

// NumberToken is the placeholder in output patterns replaced by the
// zero-padded episode number.
const NumberToken = "{num}"

var videoExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
}

// Item is one planned encode.
type Item struct {
	Input      string
	Output     string
	Episode    int
	HasEpisode bool
	SkipReason string
}

// Skipped reports whether the item will not be encoded.
func (i Item) Skipped() bool { return i.SkipReason != "" }

// Plan is an ordered set of encodes derived from a directory scan.
type Plan struct {
	Items []Item
}

// BuildPlan scans dir for video files and maps each to an output path by
// substituting the guessed episode number into outputPattern. Files whose
// output already exists, or whose episode number can't be guessed, are
// planned as skips rather than errors.
func BuildPlan(dir, outputPattern string) (*Plan, error) {
	if !strings.Contains(outputPattern, NumberToken) {
		return nil, services.Wrap(services.ErrValidation, "batch", "output pattern",
			fmt.Sprintf("%q must contain %s", outputPattern, NumberToken), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "batch", "scan directory", dir, err)
	}

	var inputs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := videoExtensions[ext]; ok {
			inputs = append(inputs, filepath.Join(dir, entry.Name()))
		}
	}
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "batch", "scan directory",
			fmt.Sprintf("no video files in %s", dir), nil)
	}
	sort.Strings(inputs)

	plan := &Plan{Items: make([]Item, 0, len(inputs))}
	seen := make(map[int]string, len(inputs))
	for _, input := range inputs {
		item := Item{Input: input}
		num, ok := episode.GuessNumber(input)
		if !ok {
			item.SkipReason = "no episode number"
			plan.Items = append(plan.Items, item)
			continue
		}
		item.Episode = num
		item.HasEpisode = true
		item.Output = renderOutput(outputPattern, num)

		if prior, dup := seen[num]; dup {
			item.SkipReason = fmt.Sprintf("duplicate of %s", filepath.Base(prior))
		} else if _, err := os.Stat(item.Output); err == nil {
			item.SkipReason = "output exists"
			seen[num] = input
		} else {
			seen[num] = input
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

// renderOutput substitutes the episode number into the pattern and sanitizes
// the resulting filename. Patterns often come from pasted show titles, which
// carry colons and other characters unsafe on removable media.
func renderOutput(outputPattern string, num int) string {
	rendered := strings.ReplaceAll(outputPattern, NumberToken, episode.FormatNumber(num))
	dir, base := filepath.Split(rendered)
	return filepath.Join(dir, textutil.SanitizeFileName(base))
}

// Pending returns the items that will actually be encoded.
func (p *Plan) Pending() []Item {
	pending := make([]Item, 0, len(p.Items))
	for _, item := range p.Items {
		if !item.Skipped() {
			pending = append(pending, item)
		}
	}
	return pending
}

// TableRows renders the plan for display: input, episode, output, status.
func (p *Plan) TableRows() [][]string {
	rows := make([][]string, 0, len(p.Items))
	for _, item := range p.Items {
		episodeText := "-"
		if item.HasEpisode {
			episodeText = episode.FormatNumber(item.Episode)
		}
		outputText := "-"
		if item.Output != "" {
			outputText = filepath.Base(item.Output)
		}
		status := "encode"
		if item.Skipped() {
			status = "skip: " + item.SkipReason
		}
		rows = append(rows, []string{
			filepath.Base(item.Input),
			episodeText,
			outputText,
			status,
		})
	}
	return rows
}
