// Package rendering provides the default plot renderer persisting
// figures as SVG artifacts. Plot styling is deliberately minimal; the
// engine's contract is artifact persistence, not publication graphics.
package rendering

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/reprokit/cook/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.PlotRenderer = (*SVGRenderer)(nil)

// Canvas geometry of rendered figures, in SVG user units.
const (
	canvasWidth  = 640
	canvasHeight = 480
	margin       = 48
)

// palette cycles through the series stroke colors.
var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"}

// SVGRenderer renders figures as standalone SVG documents. It holds no
// state between calls and is safe for reuse across tasks; the file
// handle acquired per Render is released before returning, on every
// path.
type SVGRenderer struct{}

// NewSVGRenderer creates the default renderer.
func NewSVGRenderer() *SVGRenderer { return &SVGRenderer{} }

// Render writes the figure to the file at path, creating parent
// directories as needed. Composite figures stack their panels
// vertically.
func (r *SVGRenderer) Render(ctx context.Context, fig ports.Figure, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var b strings.Builder
	panels := fig.Panels
	if len(panels) == 0 {
		panels = []ports.Figure{fig}
	}
	height := canvasHeight * len(panels)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`+"\n",
		canvasWidth, height)
	if fig.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="24" text-anchor="middle" font-size="16">%s</text>`+"\n",
			canvasWidth/2, escape(fig.Title))
	}
	for i, panel := range panels {
		renderPanel(&b, panel, i*canvasHeight)
	}
	b.WriteString("</svg>\n")

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer file.Close()
	if _, err := file.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// renderPanel draws one panel's axes frame, labels, and series at the
// given vertical offset.
func renderPanel(b *strings.Builder, panel ports.Figure, offset int) {
	top := offset + margin
	bottom := offset + canvasHeight - margin
	left, right := margin, canvasWidth-margin

	fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="black"/>`+"\n",
		left, top, right-left, bottom-top)
	if panel.XLabel != "" {
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" font-size="12">%s</text>`+"\n",
			canvasWidth/2, bottom+32, escape(panel.XLabel))
	}
	if panel.YLabel != "" {
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" font-size="12" transform="rotate(-90 16 %d)">%s</text>`+"\n",
			16, top+(bottom-top)/2, top+(bottom-top)/2, escape(panel.YLabel))
	}

	xMin, xMax, yMin, yMax := bounds(panel.Series)
	for i, series := range panel.Series {
		if len(series.X) == 0 {
			continue
		}
		var points strings.Builder
		for j := range series.X {
			px := scale(series.X[j], xMin, xMax, float64(left), float64(right))
			py := scale(series.Y[j], yMin, yMax, float64(bottom), float64(top))
			fmt.Fprintf(&points, "%.1f,%.1f ", px, py)
		}
		fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
			strings.TrimSpace(points.String()), palette[i%len(palette)])
	}
}

// bounds computes the data extent across all series of a panel.
func bounds(series []ports.Series) (xMin, xMax, yMin, yMax float64) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for i := range s.X {
			xMin, xMax = math.Min(xMin, s.X[i]), math.Max(xMax, s.X[i])
			yMin, yMax = math.Min(yMin, s.Y[i]), math.Max(yMax, s.Y[i])
		}
	}
	return xMin, xMax, yMin, yMax
}

// scale maps a value from data space to canvas space, degenerating to
// the midpoint for zero-extent data.
func scale(v, lo, hi, outLo, outHi float64) float64 {
	if hi == lo || math.IsInf(lo, 0) {
		return (outLo + outHi) / 2
	}
	return outLo + (v-lo)/(hi-lo)*(outHi-outLo)
}

func escape(s string) string {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
