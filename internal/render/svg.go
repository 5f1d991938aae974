package render

import (
	"fmt"
	"strings"
)

// renderSVG serializes geometry as a standalone SVG document. The numbers
// are identical to the HTML and raster backends; only the markup differs.
func renderSVG(g Geometry) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		g.Width, g.Height, g.Width, g.Height)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%.0f" height="%.0f" fill="#0d1117"/>`+"\n", g.Width, g.Height)

	for _, bar := range g.Bars {
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s"><title>%s</title></rect>`+"\n",
			bar.X, bar.Y, bar.Width, bar.Height, escapeXML(bar.Color), escapeXML(bar.Label))
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-family="monospace" font-size="10" fill="#c9d1d9">%s</text>`+"\n",
			bar.X+bar.Width+6, bar.Y+bar.Height*0.7, escapeXML(bar.Label))
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
