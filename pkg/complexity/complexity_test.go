package complexity

import (
	"math"
	"strings"
	"testing"
)

var defaultBounds = Bounds{BaseWidth: 1200, BaseHeight: 800, MaxWidth: 2400, MaxHeight: 1600}

func TestAnalyzeSimpleOutline(t *testing.T) {
	p := Analyze("# Title\n## A\n- x")

	if p.Headers != 2 {
		t.Errorf("Headers = %d, want 2", p.Headers)
	}
	if p.ListItems != 1 {
		t.Errorf("ListItems = %d, want 1", p.ListItems)
	}
	if p.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", p.MaxDepth)
	}
	if p.Level != LevelLow {
		t.Errorf("Level = %s, want low", p.Level)
	}

	vp := DeriveViewport(p, defaultBounds)
	if vp.Width != 1200 || vp.Height != 800 {
		t.Errorf("viewport = %dx%d, want base 1200x800", vp.Width, vp.Height)
	}
	if vp.Level != LevelLow {
		t.Errorf("viewport level = %s", vp.Level)
	}
}

func TestAnalyzeCounts(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		headers   int
		listItems int
		maxDepth  int
		longLines int
	}{
		{"empty", "", 0, 0, 0, 0},
		{"blank lines", "\n\n   \n", 0, 0, 0, 0},
		{"header depth", "### Deep", 1, 0, 3, 0},
		{"bullets", "- a\n* b\n+ c", 0, 3, 1, 0},
		{"nested bullets", "- a\n  - b\n    - c", 0, 3, 3, 0},
		{"tab indent", "- a\n\t- b", 0, 2, 2, 0},
		{"numbered", "1. one\n  2. two", 0, 2, 2, 0},
		{"dash without space", "-not a list", 0, 0, 0, 0},
		{"long line", "# T\n" + strings.Repeat("x", 101), 1, 0, 1, 1},
		{"exactly threshold", strings.Repeat("y", 100), 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Analyze(tt.text)
			if p.Headers != tt.headers || p.ListItems != tt.listItems ||
				p.MaxDepth != tt.maxDepth || p.LongLines != tt.longLines {
				t.Errorf("got headers=%d lists=%d depth=%d long=%d, want %d %d %d %d",
					p.Headers, p.ListItems, p.MaxDepth, p.LongLines,
					tt.headers, tt.listItems, tt.maxDepth, tt.longLines)
			}
		})
	}
}

func TestAnalyzeCountsRunesNotBytes(t *testing.T) {
	// 60 CJK runes are 180 bytes but not a long line.
	p := Analyze("# " + strings.Repeat("图", 60))
	if p.LongLines != 0 {
		t.Errorf("LongLines = %d, want 0", p.LongLines)
	}
	if p.TotalLength != 62 {
		t.Errorf("TotalLength = %d, want 62", p.TotalLength)
	}
}

func TestAnalyzeScore(t *testing.T) {
	// 1 header (2) + 2 lists (3) + depth 2 (6) + trimmed length (3+3+3)/100
	p := Analyze("# T\n- a\n  - b")
	want := 2 + 3 + 6 + 0.09
	if math.Abs(p.Score-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", p.Score, want)
	}
}

func TestLevelForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{19.9, LevelLow},
		{20, LevelMedium},
		{49.9, LevelMedium},
		{50, LevelHigh},
		{99.9, LevelHigh},
		{100, LevelUltra},
		{1e6, LevelUltra},
	}
	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestLevelForScoreMonotonic(t *testing.T) {
	rank := map[Level]int{LevelLow: 0, LevelMedium: 1, LevelHigh: 2, LevelUltra: 3}
	prev := 0
	for s := 0.0; s < 200; s += 0.1 {
		r := rank[LevelForScore(s)]
		if r < prev {
			t.Fatalf("level decreased at score %v", s)
		}
		prev = r
	}
}

func TestScaleForScoreRange(t *testing.T) {
	for s := 0.0; s <= 500; s += 0.5 {
		got := ScaleForScore(s)
		if got < 1 || got > 2.5 {
			t.Fatalf("ScaleForScore(%v) = %v out of [1, 2.5]", s, got)
		}
	}
	if got := ScaleForScore(0); got != 1 {
		t.Errorf("ScaleForScore(0) = %v, want 1", got)
	}
	if got := ScaleForScore(25); got != 1.5 {
		t.Errorf("ScaleForScore(25) = %v, want 1.5", got)
	}
	if got := ScaleForScore(-10); got != 1 {
		t.Errorf("ScaleForScore(-10) = %v, want 1", got)
	}
}

func TestDeriveViewportLevels(t *testing.T) {
	tests := []struct {
		level Level
		w, h  int
	}{
		{LevelLow, 1200, 800},
		{LevelMedium, 1440, 880},
		{LevelHigh, 1800, 1040},
		{LevelUltra, 2160, 1200},
	}
	for _, tt := range tests {
		vp := DeriveViewport(Profile{Level: tt.level, MaxDepth: 3}, defaultBounds)
		if abs(vp.Width-tt.w) > 1 || abs(vp.Height-tt.h) > 1 {
			t.Errorf("%s: %dx%d, want %dx%d", tt.level, vp.Width, vp.Height, tt.w, tt.h)
		}
	}
}

func TestDeriveViewportLongLinesWiden(t *testing.T) {
	vp := DeriveViewport(Profile{Level: LevelLow, LongLines: 6}, defaultBounds)
	if vp.Width != 1440 {
		t.Errorf("Width = %d, want 1440", vp.Width)
	}
	if vp.Height != 800 {
		t.Errorf("Height = %d, want 800", vp.Height)
	}
}

func TestDeriveViewportDeepOutlineGrows(t *testing.T) {
	vp := DeriveViewport(Profile{Level: LevelLow, MaxDepth: 10}, defaultBounds)
	if vp.Width != 1800 {
		t.Errorf("Width = %d, want 1800", vp.Width)
	}
	if abs(vp.Height-1160) > 1 {
		t.Errorf("Height = %d, want ~1160", vp.Height)
	}
}

func TestDeriveViewportFiveLevelsGrowsHeightOnly(t *testing.T) {
	vp := DeriveViewport(Profile{Level: LevelLow, MaxDepth: 5}, defaultBounds)
	if vp.Width != 1200 {
		t.Errorf("Width = %d, want 1200", vp.Width)
	}
	if abs(vp.Height-1040) > 1 {
		t.Errorf("Height = %d, want ~1040", vp.Height)
	}

	vp = DeriveViewport(Profile{Level: LevelLow, MaxDepth: 4}, defaultBounds)
	if vp.Width != 1200 || vp.Height != 800 {
		t.Errorf("depth 4: %dx%d, want 1200x800", vp.Width, vp.Height)
	}
}

func TestDeriveViewportClamps(t *testing.T) {
	small := Bounds{BaseWidth: 100, BaseHeight: 100, MaxWidth: 2400, MaxHeight: 1600}
	vp := DeriveViewport(Profile{Level: LevelLow}, small)
	if vp.Width != MinWidth || vp.Height != MinHeight {
		t.Errorf("small base: %dx%d, want %dx%d", vp.Width, vp.Height, MinWidth, MinHeight)
	}

	vp = DeriveViewport(Profile{Level: LevelUltra, MaxDepth: 20, LongLines: 50}, defaultBounds)
	if vp.Width != 2400 || vp.Height != 1600 {
		t.Errorf("ultra: %dx%d, want max 2400x1600", vp.Width, vp.Height)
	}
}

func TestDeriveViewportAlwaysInBounds(t *testing.T) {
	boundsSet := []Bounds{
		defaultBounds,
		{BaseWidth: 100, BaseHeight: 50, MaxWidth: 800, MaxHeight: 600},
		{BaseWidth: 3000, BaseHeight: 3000, MaxWidth: 1000, MaxHeight: 900},
	}
	levels := []Level{LevelLow, LevelMedium, LevelHigh, LevelUltra}

	for _, b := range boundsSet {
		for _, lvl := range levels {
			for depth := 0; depth <= 12; depth++ {
				for long := 0; long <= 8; long += 4 {
					vp := DeriveViewport(Profile{Level: lvl, MaxDepth: depth, LongLines: long}, b)
					if vp.Width < MinWidth || vp.Width > b.MaxWidth {
						t.Fatalf("width %d out of [%d, %d] for %+v", vp.Width, MinWidth, b.MaxWidth, b)
					}
					if vp.Height < MinHeight || vp.Height > b.MaxHeight {
						t.Fatalf("height %d out of [%d, %d] for %+v", vp.Height, MinHeight, b.MaxHeight, b)
					}
				}
			}
		}
	}
}

func TestDeriveViewportCarriesScale(t *testing.T) {
	p := Analyze(strings.Repeat("# H\n- item\n", 30))
	vp := DeriveViewport(p, defaultBounds)
	if vp.Scale != p.RecommendedScale {
		t.Errorf("Scale = %v, want %v", vp.Scale, p.RecommendedScale)
	}
	if vp.Level != p.Level {
		t.Errorf("Level = %s, want %s", vp.Level, p.Level)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
