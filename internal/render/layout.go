// Package render turns timeline data into bar geometry and serializes it
// as HTML, SVG, or raster output. All backends consume the same geometry;
// they differ only in markup.
package render

import (
	"github.com/nothatDinger/qwen-code-trace/internal/timeline"
)

const (
	// targetChartWidth is the preferred width of the plotted area.
	targetChartWidth = 960.0
	// minCanvasWidth is the floor for the overall canvas regardless of the
	// computed scale.
	minCanvasWidth = 320.0
	// minPxPerMs keeps zero and near-zero duration timelines visible.
	minPxPerMs  = 0.02
	rowHeight   = 22.0
	rowGap      = 8.0
	padding     = 16.0
	minBarWidth = 2.0
)

// BarGeom is the computed pixel geometry for one bar.
type BarGeom struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Color  string
	Label  string
}

// Geometry is the full canvas layout handed unchanged to every backend.
type Geometry struct {
	Width   float64
	Height  float64
	PxPerMs float64
	Bars    []BarGeom
}

// Layout converts a timeline into pixel geometry: a clamped horizontal
// millisecond scale and one fixed-height row per bar, stacked in timeline
// order.
func Layout(tl timeline.Timeline) Geometry {
	durMs := float64(tl.TotalDuration.Milliseconds())

	pxPerMs := minPxPerMs
	if durMs > 0 {
		pxPerMs = targetChartWidth / durMs
		if pxPerMs < minPxPerMs {
			pxPerMs = minPxPerMs
		}
	}

	width := padding*2 + durMs*pxPerMs
	if width < minCanvasWidth {
		width = minCanvasWidth
	}

	height := padding * 2
	if n := len(tl.Bars); n > 0 {
		height += float64(n)*(rowHeight+rowGap) - rowGap
	}

	g := Geometry{
		Width:   width,
		Height:  height,
		PxPerMs: pxPerMs,
		Bars:    make([]BarGeom, 0, len(tl.Bars)),
	}
	for i, b := range tl.Bars {
		w := float64(b.Duration.Milliseconds()) * pxPerMs
		if w < minBarWidth {
			w = minBarWidth
		}
		g.Bars = append(g.Bars, BarGeom{
			X:      padding + float64(b.Start.Milliseconds())*pxPerMs,
			Y:      padding + float64(i)*(rowHeight+rowGap),
			Width:  w,
			Height: rowHeight,
			Color:  b.Color,
			Label:  b.Name,
		})
	}
	return g
}
