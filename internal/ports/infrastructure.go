package ports

import (
	"context"
	"time"

	"github.com/reprokit/cook/internal/domain"
)

// Importer populates a dataset from an external source. Implementations
// handle one source format each and fill data, axes, and metadata.
// Importers may append their own history record to the dataset, making
// the import itself part of the provenance.
type Importer interface {
	// ImportInto reads the importer's source and populates the dataset.
	ImportInto(ctx context.Context, ds *domain.Dataset) error
}

// ImporterFactory resolves a dataset source to a concrete importer.
// Resolution honors an explicitly requested importer name first, then
// falls back to source-based detection. No match fails with an
// ImporterNotFoundError.
type ImporterFactory interface {
	// GetImporter returns the importer for the source. pkg selects an
	// importer-providing namespace and explicit a concrete importer
	// by name; both may be empty.
	GetImporter(source, pkg, explicit string) (Importer, error)
}

// Figure is the renderer-agnostic description of a plot: one or more
// series plus axis labeling. Plot operations compose figures; a
// PlotRenderer turns them into persisted artifacts.
type Figure struct {
	// Title is the figure title, possibly empty.
	Title string
	// XLabel and YLabel carry the axis labels, quantity and unit.
	XLabel string
	YLabel string
	// Series holds the plotted curves in declaration order.
	Series []Series
	// Panels holds sub-figures for composite plots; when non-empty,
	// Series is ignored.
	Panels []Figure
}

// Series is one curve of a figure.
type Series struct {
	// Label identifies the curve in a legend, usually the dataset label.
	Label string
	// X and Y hold the curve points. Equal length.
	X []float64
	Y []float64
}

// PlotRenderer persists a figure as an artifact file. Rendering details
// are opaque to the engine; the contract is solely that a file exists at
// the given path on success and that any resource acquired for rendering
// is released before Render returns, on every path.
type PlotRenderer interface {
	// Render writes the figure to the file at path.
	Render(ctx context.Context, fig Figure, path string) error
}

// TaskObserver receives task lifecycle notifications from the chef.
// Implementations provide metrics or tracing; observers must never
// influence execution and their errors are not propagated.
type TaskObserver interface {
	// TaskStarted is called immediately before a task executes.
	// The returned context is passed to the operation, allowing
	// observers to attach spans.
	TaskStarted(ctx context.Context, family domain.Family, opType string, targets int) context.Context

	// TaskCompleted is called after a task finished, with its duration
	// and outcome.
	TaskCompleted(ctx context.Context, family domain.Family, opType string, duration time.Duration, err error)
}
