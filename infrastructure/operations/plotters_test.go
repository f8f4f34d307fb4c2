package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// fakeRenderer records the figures and paths it was asked to render.
type fakeRenderer struct {
	figures []ports.Figure
	paths   []string
	err     error
}

func (f *fakeRenderer) Render(_ context.Context, fig ports.Figure, path string) error {
	if f.err != nil {
		return f.err
	}
	f.figures = append(f.figures, fig)
	f.paths = append(f.paths, path)
	return nil
}

func plotterConfig(renderer ports.PlotRenderer, extra map[string]any) map[string]any {
	config := map[string]any{"renderer": renderer}
	for k, v := range extra {
		config[k] = v
	}
	return config
}

// TestSinglePlotter1D verifies figure composition, axis labeling, and
// the returned artifact path.
func TestSinglePlotter1D(t *testing.T) {
	renderer := &fakeRenderer{}
	op, err := NewSinglePlotter1D(plotterConfig(renderer, map[string]any{
		"filename": "sample.svg",
		"title":    "Raw data",
	}))
	require.NoError(t, err)
	op.SetDefaults()
	require.NoError(t, op.Validate())

	ds := testDataset("sample.txt", 1, 2, 3)
	ds.Label = "raw"
	artifact, err := op.(ports.SinglePlotter).Plot(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "sample.svg", artifact.Filename)

	require.Len(t, renderer.figures, 1)
	fig := renderer.figures[0]
	assert.Equal(t, "Raw data", fig.Title)
	assert.Equal(t, "magnetic field / mT", fig.XLabel)
	assert.Equal(t, "intensity / a.u.", fig.YLabel)
	require.Len(t, fig.Series, 1)
	assert.Equal(t, "raw", fig.Series[0].Label)
	assert.Equal(t, []float64{1, 2, 3}, fig.Series[0].Y)
}

// TestSinglePlotter1DAutosave verifies the dataset-derived artifact
// name when autosave is on.
func TestSinglePlotter1DAutosave(t *testing.T) {
	renderer := &fakeRenderer{}
	op, err := NewSinglePlotter1D(plotterConfig(renderer, map[string]any{
		"autosave_plots":   true,
		"output_directory": "out",
	}))
	require.NoError(t, err)
	op.SetDefaults()
	require.NoError(t, op.Validate())

	ds := testDataset("scans/sample.txt", 1, 2, 3)
	artifact, err := op.(ports.SinglePlotter).Plot(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "out/sample_singleplotter1d.svg", artifact.Filename)
}

// TestSinglePlotter1DValidate rejects the no-filename, no-autosave
// combination at build time.
func TestSinglePlotter1DValidate(t *testing.T) {
	op, err := NewSinglePlotter1D(plotterConfig(&fakeRenderer{}, nil))
	require.NoError(t, err)
	op.SetDefaults()
	assert.ErrorIs(t, op.Validate(), ErrMissingFilename)
}

// TestNewSinglePlotter1DRequiresRenderer verifies the injected renderer
// is mandatory.
func TestNewSinglePlotter1DRequiresRenderer(t *testing.T) {
	_, err := NewSinglePlotter1D(map[string]any{"filename": "x.svg"})
	assert.Error(t, err)
}

// TestMultiPlotter1D verifies that all curves land in one figure in the
// caller-given order, and that an explicit filename is required.
func TestMultiPlotter1D(t *testing.T) {
	renderer := &fakeRenderer{}
	op, err := NewMultiPlotter1D(plotterConfig(renderer, map[string]any{"filename": "multi.svg"}))
	require.NoError(t, err)
	op.SetDefaults()
	require.NoError(t, op.Validate())

	a := testDataset("a.txt", 1, 2, 3)
	a.Label = "first"
	b := testDataset("b.txt", 4, 5, 6)
	b.Label = "second"

	artifact, err := op.(ports.MultiPlotter).PlotMulti(context.Background(), []*domain.Dataset{b, a})
	require.NoError(t, err)
	assert.Equal(t, "multi.svg", artifact.Filename)

	require.Len(t, renderer.figures, 1)
	fig := renderer.figures[0]
	require.Len(t, fig.Series, 2)
	assert.Equal(t, "second", fig.Series[0].Label, "Curves follow the caller-given order.")
	assert.Equal(t, "first", fig.Series[1].Label)
}

// TestMultiPlotter1DRequiresFilename: autosave cannot name an artifact
// derived from several datasets.
func TestMultiPlotter1DRequiresFilename(t *testing.T) {
	op, err := NewMultiPlotter1D(plotterConfig(&fakeRenderer{}, map[string]any{"autosave_plots": true}))
	require.NoError(t, err)
	op.SetDefaults()
	assert.ErrorIs(t, op.Validate(), ErrMissingFilename)
}

// TestCompositePlotter verifies one panel per dataset in order.
func TestCompositePlotter(t *testing.T) {
	renderer := &fakeRenderer{}
	op, err := NewCompositePlotter(plotterConfig(renderer, map[string]any{"filename": "panels.svg"}))
	require.NoError(t, err)
	op.SetDefaults()
	require.NoError(t, op.Validate())

	a := testDataset("a.txt", 1, 2, 3)
	b := testDataset("b.txt", 4, 5, 6)
	_, err = op.(ports.CompositePlotter).PlotComposite(context.Background(), []*domain.Dataset{a, b})
	require.NoError(t, err)

	require.Len(t, renderer.figures, 1)
	fig := renderer.figures[0]
	require.Len(t, fig.Panels, 2)
	assert.Equal(t, []float64{1, 2, 3}, fig.Panels[0].Series[0].Y)
	assert.Equal(t, []float64{4, 5, 6}, fig.Panels[1].Series[0].Y)
}

// TestPlotterParametersOmitPlumbing verifies the history parameters
// exclude the engine-injected renderer and directories.
func TestPlotterParametersOmitPlumbing(t *testing.T) {
	op, err := NewSinglePlotter1D(plotterConfig(&fakeRenderer{}, map[string]any{
		"filename":         "x.svg",
		"output_directory": "out",
	}))
	require.NoError(t, err)

	params := op.Parameters()
	assert.Equal(t, map[string]any{"filename": "x.svg", "title": ""}, params)
}
