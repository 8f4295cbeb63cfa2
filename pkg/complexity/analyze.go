package complexity

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Level is a discrete complexity bucket.
type Level string

// Complexity levels in increasing order.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelUltra  Level = "ultra"
)

const (
	// LongLineThreshold is the rune length above which a line counts as long.
	LongLineThreshold = 100

	// indentUnit is the number of columns per list nesting level.
	indentUnit = 2

	// tabWidth is the column width assumed for a tab in list indentation.
	tabWidth = 2

	// MaxScale caps RecommendedScale.
	MaxScale = 2.5
)

// Profile holds the structural metrics of an outline. It is computed once
// per request and never modified.
type Profile struct {
	Score            float64 `json:"score"`
	Level            Level   `json:"level"`
	Headers          int     `json:"headers"`
	ListItems        int     `json:"list_items"`
	MaxDepth         int     `json:"max_depth"`
	LongLines        int     `json:"long_lines"`
	TotalLength      int     `json:"total_length"`
	RecommendedScale float64 `json:"recommended_scale"`
}

var numberedItem = regexp.MustCompile(`^\d+\.`)

// Analyze scores text. Blank lines are ignored; empty input yields a
// zero-score low profile.
func Analyze(text string) Profile {
	var p Profile

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#"):
			p.Headers++
			p.MaxDepth = max(p.MaxDepth, headerDepth(line))
		case isListItem(line):
			p.ListItems++
			p.MaxDepth = max(p.MaxDepth, indentWidth(raw)/indentUnit+1)
		}

		n := utf8.RuneCountInString(line)
		p.TotalLength += n
		if n > LongLineThreshold {
			p.LongLines++
		}
	}

	p.Score = float64(p.Headers)*2 +
		float64(p.ListItems)*1.5 +
		float64(p.MaxDepth)*3 +
		float64(p.LongLines)*2 +
		float64(p.TotalLength)/100
	p.Level = LevelForScore(p.Score)
	p.RecommendedScale = ScaleForScore(p.Score)
	return p
}

// LevelForScore maps a score onto its level.
func LevelForScore(score float64) Level {
	switch {
	case score < 20:
		return LevelLow
	case score < 50:
		return LevelMedium
	case score < 100:
		return LevelHigh
	default:
		return LevelUltra
	}
}

// ScaleForScore returns min(1 + score/50, 2.5). Negative scores are treated
// as zero so the result is always within [1, 2.5].
func ScaleForScore(score float64) float64 {
	if score < 0 || math.IsNaN(score) {
		score = 0
	}
	return math.Min(1+score/50, MaxScale)
}

func headerDepth(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	return n
}

func isListItem(line string) bool {
	for _, m := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return numberedItem.MatchString(line)
}

// indentWidth measures leading whitespace in columns.
func indentWidth(raw string) int {
	w := 0
	for _, r := range raw {
		switch r {
		case ' ':
			w++
		case '\t':
			w += tabWidth
		default:
			return w
		}
	}
	return w
}
