// Package complexity scores Markdown outlines and sizes the render surface.
//
// [Analyze] walks the outline once and produces a [Profile]: structural
// counts, a weighted score and a discrete [Level]. [DeriveViewport] turns a
// profile into concrete browser dimensions within configured [Bounds].
//
// # Scoring
//
//	score = headers*2 + listItems*1.5 + maxDepth*3 + longLines*2 + totalLength/100
//
// Levels use fixed boundaries that existing deployments depend on:
//
//	score < 20   low
//	score < 50   medium
//	score < 100  high
//	otherwise    ultra
//
// The recommended scale is min(1 + score/50, 2.5).
//
// # Viewport
//
// Base dimensions are multiplied per level (low 1.0/1.0, medium 1.2/1.1,
// high 1.5/1.3, ultra 1.8/1.5). Outlines with more than five long lines get
// 20% extra width. Outlines deeper than five levels grow by a depth factor
// capped at 1.5. The result is raised to at least 800x600 and then capped at
// the configured maximum.
package complexity
