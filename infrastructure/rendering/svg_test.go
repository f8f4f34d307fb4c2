package rendering

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/ports"
)

func testFigure() ports.Figure {
	return ports.Figure{
		Title:  "Sample <scan>",
		XLabel: "magnetic field / mT",
		YLabel: "intensity / a.u.",
		Series: []ports.Series{
			{Label: "raw", X: []float64{0, 1, 2}, Y: []float64{1, 3, 2}},
			{Label: "corrected", X: []float64{0, 1, 2}, Y: []float64{0, 2, 1}},
		},
	}
}

// TestSVGRendererRender verifies a well-formed document with one
// polyline per series and escaped text.
func TestSVGRendererRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.svg")
	require.NoError(t, NewSVGRenderer().Render(context.Background(), testFigure(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(content)

	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
	assert.Equal(t, 2, strings.Count(svg, "<polyline"), "One polyline per series.")
	assert.Contains(t, svg, "Sample &lt;scan&gt;", "Title text must be escaped.")
	assert.Contains(t, svg, "magnetic field / mT")
}

// TestSVGRendererPanels verifies vertical stacking of composite
// figures.
func TestSVGRendererPanels(t *testing.T) {
	fig := ports.Figure{
		Panels: []ports.Figure{
			{Series: []ports.Series{{X: []float64{0, 1}, Y: []float64{0, 1}}}},
			{Series: []ports.Series{{X: []float64{0, 1}, Y: []float64{1, 0}}}},
		},
	}
	path := filepath.Join(t.TempDir(), "panels.svg")
	require.NoError(t, NewSVGRenderer().Render(context.Background(), fig, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	svg := string(content)
	assert.Contains(t, svg, `height="960"`, "Two panels double the canvas height.")
	assert.Equal(t, 2, strings.Count(svg, "<rect"), "One axes frame per panel.")
}

// TestSVGRendererCreatesDirectories verifies nested artifact paths.
func TestSVGRendererCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "plot.svg")
	require.NoError(t, NewSVGRenderer().Render(context.Background(), testFigure(), path))
	assert.FileExists(t, path)
}

// TestSVGRendererCancelledContext verifies the renderer respects
// cancellation before touching the filesystem.
func TestSVGRendererCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "plot.svg")
	err := NewSVGRenderer().Render(ctx, testFigure(), path)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

// TestSVGRendererFlatSeries verifies zero-extent data degenerates to a
// drawable midpoint line instead of NaN coordinates.
func TestSVGRendererFlatSeries(t *testing.T) {
	fig := ports.Figure{Series: []ports.Series{{X: []float64{1, 1}, Y: []float64{5, 5}}}}
	path := filepath.Join(t.TempDir(), "flat.svg")
	require.NoError(t, NewSVGRenderer().Render(context.Background(), fig, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "NaN")
}
