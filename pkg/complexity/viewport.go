package complexity

import "math"

// Minimum practical viewport size.
const (
	MinWidth  = 800
	MinHeight = 600
)

// Bounds are the configured base and maximum viewport dimensions.
type Bounds struct {
	BaseWidth  int
	BaseHeight int
	MaxWidth   int
	MaxHeight  int
}

// Viewport is the render surface chosen for one request.
type Viewport struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
	Level  Level   `json:"level"`
}

type multiplier struct{ w, h float64 }

var levelMultipliers = map[Level]multiplier{
	LevelLow:    {1.0, 1.0},
	LevelMedium: {1.2, 1.1},
	LevelHigh:   {1.5, 1.3},
	LevelUltra:  {1.8, 1.5},
}

// DeriveViewport sizes the render surface for p. The result is always within
// [MinWidth, b.MaxWidth] x [MinHeight, b.MaxHeight] when the maximum is at
// least the minimum.
func DeriveViewport(p Profile, b Bounds) Viewport {
	m, ok := levelMultipliers[p.Level]
	if !ok {
		m = levelMultipliers[LevelLow]
	}
	width := int(float64(b.BaseWidth) * m.w)
	height := int(float64(b.BaseHeight) * m.h)

	if p.LongLines > 5 {
		width = int(float64(width) * 1.2)
	}

	// Outlines shallower than five levels keep their level size.
	depth := math.Min(float64(p.MaxDepth)/5, 1.5)
	if depth >= 1 {
		width = int(float64(width) * depth)
		height = int(float64(height) * (1 + depth*0.3))
	}

	width = min(max(width, MinWidth), b.MaxWidth)
	height = min(max(height, MinHeight), b.MaxHeight)

	return Viewport{
		Width:  width,
		Height: height,
		Scale:  p.RecommendedScale,
		Level:  p.Level,
	}
}
