package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var (
	_ ports.SinglePlotter    = (*SinglePlotter1D)(nil)
	_ ports.MultiPlotter     = (*MultiPlotter1D)(nil)
	_ ports.CompositePlotter = (*CompositePlotter)(nil)
)

// plotExtension is the artifact extension of the default renderer.
const plotExtension = ".svg"

// plotConfig is the shared configuration of the builtin plotters.
type plotConfig struct {
	artifactConfig `yaml:",inline"`
	// Title is the figure title; empty omits it.
	Title string `yaml:"title"`
}

// params renders the history parameter set: the declared configuration
// without the engine-injected artifact plumbing.
func (p plotConfig) params() map[string]any {
	return map[string]any{"filename": p.Filename, "title": p.Title}
}

// rendererFrom extracts the renderer the registry injects into plot
// configurations, removing it so the remaining configuration stays
// serializable.
func rendererFrom(config map[string]any) (ports.PlotRenderer, error) {
	renderer, ok := config["renderer"].(ports.PlotRenderer)
	if !ok {
		return nil, fmt.Errorf("no plot renderer configured")
	}
	delete(config, "renderer")
	return renderer, nil
}

// figureFor composes the renderer-agnostic figure of one 1D dataset.
func figureFor(ds *domain.Dataset, title string) ports.Figure {
	fig := ports.Figure{Title: title}
	if len(ds.Data.Axes) > 0 {
		fig.XLabel = axisLabel(ds.Data.Axes[0])
	}
	if len(ds.Data.Axes) > 1 {
		fig.YLabel = axisLabel(ds.Data.Axes[len(ds.Data.Axes)-1])
	}
	label := ds.Label
	if label == "" {
		label = ds.ID
	}
	fig.Series = []ports.Series{{Label: label, X: xValues(ds), Y: ds.Data.Values}}
	return fig
}

func axisLabel(axis domain.Axis) string {
	if axis.Label != "" {
		return axis.Label
	}
	if axis.Unit != "" {
		return fmt.Sprintf("%s / %s", axis.Quantity, axis.Unit)
	}
	return axis.Quantity
}

// SinglePlotter1D renders one 1D dataset into a persisted plot
// artifact. Rendering is delegated to the configured renderer; the
// plotter owns figure composition and filename resolution, including
// autosave-derived names.
type SinglePlotter1D struct {
	operationBase
	config   plotConfig
	renderer ports.PlotRenderer
}

// NewSinglePlotter1D creates the plotter from raw task configuration.
func NewSinglePlotter1D(config map[string]any) (ports.Operation, error) {
	renderer, err := rendererFrom(config)
	if err != nil {
		return nil, err
	}
	op := &SinglePlotter1D{
		operationBase: operationBase{
			name:    "SinglePlotter1D",
			family:  domain.FamilySinglePlot,
			version: "1.1.0",
		},
		renderer: renderer,
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; the filename default depends on the dataset
// and is resolved at plot time.
func (p *SinglePlotter1D) SetDefaults() {}

// Validate requires a way to name the artifact.
func (p *SinglePlotter1D) Validate() error {
	if p.config.Filename == "" && !p.config.Autosave {
		return ErrMissingFilename
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (p *SinglePlotter1D) Parameters() map[string]any { return p.config.params() }

// Plot renders the dataset and persists the artifact. The renderer owns
// any resource it acquires and releases it before returning, on every
// path.
func (p *SinglePlotter1D) Plot(ctx context.Context, ds *domain.Dataset) (ports.Artifact, error) {
	if err := requireOneDimensional(p.name, ds); err != nil {
		return ports.Artifact{}, err
	}
	path, err := p.config.resolvePath(ds, p.name, plotExtension)
	if err != nil {
		return ports.Artifact{}, err
	}
	if err := p.renderer.Render(ctx, figureFor(ds, p.config.Title), path); err != nil {
		return ports.Artifact{}, fmt.Errorf("rendering failed: %w", err)
	}
	return ports.Artifact{Filename: path}, nil
}

// MultiPlotter1D renders several 1D datasets as curves of one figure,
// in the declared target order.
type MultiPlotter1D struct {
	operationBase
	config   plotConfig
	renderer ports.PlotRenderer
}

// NewMultiPlotter1D creates the plotter from raw task configuration.
func NewMultiPlotter1D(config map[string]any) (ports.Operation, error) {
	renderer, err := rendererFrom(config)
	if err != nil {
		return nil, err
	}
	op := &MultiPlotter1D{
		operationBase: operationBase{
			name:    "MultiPlotter1D",
			family:  domain.FamilyMultiPlot,
			version: "1.1.0",
		},
		renderer: renderer,
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op.
func (p *MultiPlotter1D) SetDefaults() {}

// Validate requires an explicit filename; an autosave name cannot be
// derived from several datasets.
func (p *MultiPlotter1D) Validate() error {
	if p.config.Filename == "" {
		return ErrMissingFilename
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (p *MultiPlotter1D) Parameters() map[string]any { return p.config.params() }

// PlotMulti renders all datasets into one artifact, preserving order.
func (p *MultiPlotter1D) PlotMulti(ctx context.Context, datasets []*domain.Dataset) (ports.Artifact, error) {
	fig := ports.Figure{Title: p.config.Title}
	for _, ds := range datasets {
		if err := requireOneDimensional(p.name, ds); err != nil {
			return ports.Artifact{}, err
		}
		single := figureFor(ds, "")
		if fig.XLabel == "" {
			fig.XLabel, fig.YLabel = single.XLabel, single.YLabel
		}
		fig.Series = append(fig.Series, single.Series...)
	}
	path, err := p.config.resolvePath(nil, p.name, plotExtension)
	if err != nil {
		return ports.Artifact{}, err
	}
	if err := p.renderer.Render(ctx, fig, path); err != nil {
		return ports.Artifact{}, fmt.Errorf("rendering failed: %w", err)
	}
	return ports.Artifact{Filename: path}, nil
}

// CompositePlotter arranges one panel per dataset into one artifact,
// in the declared target order.
type CompositePlotter struct {
	operationBase
	config   plotConfig
	renderer ports.PlotRenderer
}

// NewCompositePlotter creates the plotter from raw task configuration.
func NewCompositePlotter(config map[string]any) (ports.Operation, error) {
	renderer, err := rendererFrom(config)
	if err != nil {
		return nil, err
	}
	op := &CompositePlotter{
		operationBase: operationBase{
			name:    "CompositePlotter",
			family:  domain.FamilyCompositePlot,
			version: "1.0.0",
		},
		renderer: renderer,
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op.
func (p *CompositePlotter) SetDefaults() {}

// Validate requires an explicit filename.
func (p *CompositePlotter) Validate() error {
	if p.config.Filename == "" {
		return ErrMissingFilename
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (p *CompositePlotter) Parameters() map[string]any { return p.config.params() }

// PlotComposite renders one panel per dataset into one artifact.
func (p *CompositePlotter) PlotComposite(ctx context.Context, datasets []*domain.Dataset) (ports.Artifact, error) {
	fig := ports.Figure{Title: p.config.Title}
	for _, ds := range datasets {
		if err := requireOneDimensional(p.name, ds); err != nil {
			return ports.Artifact{}, err
		}
		fig.Panels = append(fig.Panels, figureFor(ds, ""))
	}
	path, err := p.config.resolvePath(nil, p.name, plotExtension)
	if err != nil {
		return ports.Artifact{}, err
	}
	if err := p.renderer.Render(ctx, fig, path); err != nil {
		return ports.Artifact{}, fmt.Errorf("rendering failed: %w", err)
	}
	return ports.Artifact{Filename: path}, nil
}
