package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Date shapes seen on note article pages, tried in order by the enrichment
// fallback chain. The raw matched text is kept as-is; conversion to a typed
// date happens downstream in the processor.
var (
	// 2023年10月1日, 2023/10/1, 2023-10-1
	DateJapanese = regexp.MustCompile(`\d{4}[年/\-]\s*\d{1,2}[月/\-]\s*\d{1,2}日?`)
	// 10月1日, 2023
	DateDayMonthYear = regexp.MustCompile(`\d{1,2}[月/\-]\s*\d{1,2}日?,\s*\d{4}`)
	// 2023-10-01
	DateISO = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// DatePatterns returns the publish-date patterns in resolution order.
func DatePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{DateJapanese, DateDayMonthYear, DateISO}
}

// ViewPatterns are the last-resort body-text patterns for a view count: a
// number followed by a view unit, or a labeled value ("views:" / "閲覧数:").
var ViewPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(?:views|回|閲覧)`),
	regexp.MustCompile(`(?i)閲覧数[：:]\s*(\d[\d,]*(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)views[：:]\s*(\d[\d,]*(?:\.\d+)?)`),
}

// ParseCount converts dashboard count text into an integer. Handles thousands
// separators and a single k/m magnitude suffix ("1.2k" -> 1200). Unparseable
// input yields 0, never an error.
func ParseCount(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0
	}

	multiplier := 1.0
	if strings.Contains(text, "k") {
		multiplier = 1_000
		text = strings.ReplaceAll(text, "k", "")
	} else if strings.Contains(text, "m") {
		multiplier = 1_000_000
		text = strings.ReplaceAll(text, "m", "")
	}

	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value < 0 {
		return 0
	}

	return int(value * multiplier)
}

var spaceRun = regexp.MustCompile(`\s+`)

// CollapseSpaces trims the string and squeezes whitespace runs, NBSP included,
// into single spaces.
func CollapseSpaces(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanURL trims the URL and drops any fragment.
func CleanURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// FirstMatch runs the patterns in order against text and returns the first
// match. Patterns with a capture group yield the group, bare patterns the
// whole match.
func FirstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) == 0 {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return m[1], true
		}
		return m[0], true
	}
	return "", false
}
