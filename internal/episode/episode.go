package episode

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	resolutionPattern = regexp.MustCompile(`(?i)\b\d{3,4}p\b|\bx26[45]\b|\b(?:10|8)bit\b`)

	// ordered from most to least specific
	seasonEpisodePattern = regexp.MustCompile(`(?i)\bs\d{1,2}[ ._]?e(\d{1,4})\b`)
	episodeWordPattern   = regexp.MustCompile(`(?i)\be(?:p(?:isode)?)?[ ._]?(\d{1,4})\b`)
	dashNumberPattern    = regexp.MustCompile(`- ?(\d{1,4})(?:v\d)?\b`)
	bareNumberPattern    = regexp.MustCompile(`\b(\d{1,4})(?:v\d)?\b`)

	screenSizePattern = regexp.MustCompile(`(?i)\b\d{3,4}p\b`)
)

// GuessNumber extracts the episode number from a release filename. Bracketed
// group/hash tags and resolution markers are stripped first so they can't be
// mistaken for episode numbers. Returns false when no plausible number
// remains.
func GuessNumber(filename string) (int, bool) {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = bracketPattern.ReplaceAllString(name, " ")
	name = resolutionPattern.ReplaceAllString(name, " ")
	// dot-separated release names
	name = strings.NewReplacer(".", " ", "_", " ").Replace(name)

	for _, pattern := range []*regexp.Regexp{
		seasonEpisodePattern,
		episodeWordPattern,
		dashNumberPattern,
	} {
		if match := pattern.FindStringSubmatch(name); match != nil {
			if num, err := strconv.Atoi(match[1]); err == nil {
				return num, true
			}
		}
	}

	// Fall back to the last standalone number, skipping year-like values.
	matches := bareNumberPattern.FindAllStringSubmatch(name, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		num, err := strconv.Atoi(matches[i][1])
		if err != nil || num >= 1900 {
			continue
		}
		return num, true
	}
	return 0, false
}

// GuessResolution extracts a screen-size tag like "480p" from a release name,
// normalized to lowercase. Returns "" when the name carries none.
func GuessResolution(name string) string {
	return strings.ToLower(screenSizePattern.FindString(name))
}

// FormatNumber renders an episode number zero-padded to two digits, the usual
// width for seasonal releases.
func FormatNumber(num int) string {
	text := strconv.Itoa(num)
	if num >= 0 && num < 10 {
		return "0" + text
	}
	return text
}
