package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/nothatDinger/qwen-code-trace/internal/timeline"
)

// Format selects a rendering backend.
type Format string

const (
	FormatHTML Format = "html"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// ErrUnsupportedFormat marks a caller error: a format string outside the
// supported set.
var ErrUnsupportedFormat = errors.New("unsupported render format")

// ErrRasterUnavailable marks the raster backend as absent. Callers should
// treat it as a recoverable, format-specific failure and fall back to
// another format.
var ErrRasterUnavailable = errors.New("raster renderer unavailable")

// RasterEncoder draws geometry into an image byte buffer. It is an injected
// strategy: the core never loads a drawing dependency itself.
type RasterEncoder interface {
	Encode(ctx context.Context, g Geometry) ([]byte, error)
}

// Renderer serializes timelines. Construct with NewRenderer; a nil raster
// encoder leaves the png format unavailable.
type Renderer struct {
	raster RasterEncoder
}

// NewRenderer creates a Renderer with an optional raster backend.
func NewRenderer(raster RasterEncoder) *Renderer {
	return &Renderer{raster: raster}
}

// HasRaster reports whether the png format can be rendered.
func (r *Renderer) HasRaster() bool { return r.raster != nil }

// Render lays out the timeline and serializes it in the requested format.
// Rendering is pure: writing the result anywhere is the caller's concern.
func (r *Renderer) Render(ctx context.Context, format Format, tl timeline.Timeline) ([]byte, error) {
	g := Layout(tl)

	switch format {
	case FormatHTML:
		return renderHTML(tl, g)
	case FormatSVG:
		return renderSVG(g), nil
	case FormatPNG:
		if r.raster == nil {
			return nil, ErrRasterUnavailable
		}
		return r.raster.Encode(ctx, g)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
