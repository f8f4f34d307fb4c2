// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/reprokit/cook/internal/domain"
)

// Operation is the capability shared by every concrete operation a task
// can dispatch to. Construction follows a two-phase contract enforced by
// every factory: SetDefaults is called first, then Validate; only a
// validated operation reaches the chef.
type Operation interface {
	// Name returns the concrete operation name as used in task
	// declarations, e.g. "BaselineCorrection".
	Name() string

	// Family returns the capability family the operation belongs to.
	// The family determines invocation cardinality and history
	// categorization.
	Family() domain.Family

	// Version returns the semantic version of the operation
	// implementation, recorded in every history entry it produces.
	Version() string

	// Parameters returns the exact parameter set in effect, after
	// defaulting and sanitization. The returned map is recorded in
	// history and must be serializable.
	Parameters() map[string]any

	// SetDefaults fills unset configuration with operation defaults.
	// It is the first construction hook and must be called before
	// Validate.
	SetDefaults()

	// Validate checks the operation's configuration for structural
	// validity. It is the second construction hook; a non-nil error
	// means the operation must not execute.
	Validate() error
}

// ProcessingStep mutates a dataset's data in place and is recorded in
// the dataset's task log. Steps that can invert their effect return
// true from Undoable; for those the chef snapshots the pre-step data.
type ProcessingStep interface {
	Operation

	// Applicable reports whether the step can run against the dataset,
	// returning a NotApplicableToDatasetError describing the mismatch
	// otherwise (typically a dimensionality constraint).
	Applicable(ds *domain.Dataset) error

	// Process applies the step to the dataset, mutating its data and
	// axes. The dataset's history is managed by the caller, not the step.
	Process(ctx context.Context, ds *domain.Dataset) error

	// Undoable reports whether the step's effect can be exactly
	// inverted by restoring the pre-step data.
	Undoable() bool
}

// SingleAnalysis derives a result value from one dataset without
// mutating it.
type SingleAnalysis interface {
	Operation

	// Analyze computes the analysis result for the dataset.
	Analyze(ctx context.Context, ds *domain.Dataset) (any, error)
}

// MultiAnalysis derives a result from several datasets at once. The
// slice order is the caller-declared target order and must be honored.
type MultiAnalysis interface {
	Operation

	// AnalyzeMulti computes the analysis result over all datasets.
	AnalyzeMulti(ctx context.Context, datasets []*domain.Dataset) (any, error)
}

// AggregatedAnalysis aggregates the same characteristic across several
// datasets into one result.
type AggregatedAnalysis interface {
	Operation

	// Aggregate computes the aggregated result over all datasets.
	Aggregate(ctx context.Context, datasets []*domain.Dataset) (any, error)
}

// Model calculates a synthetic dataset from parameters, optionally
// taking axis values from a template dataset.
type Model interface {
	Operation

	// Evaluate produces the calculated dataset. template may be nil;
	// when given, the model evaluates over the template's first axis.
	Evaluate(ctx context.Context, template *domain.Dataset) (*domain.Dataset, error)
}

// Artifact describes a persisted output file produced by a plotting,
// report, table, or export operation.
type Artifact struct {
	// Filename is the path of the persisted file.
	Filename string
}

// SinglePlotter renders one dataset into a persisted plot artifact.
// The rendering itself is delegated to a PlotRenderer; the operation
// owns figure composition and filename handling.
type SinglePlotter interface {
	Operation

	// Plot renders the dataset and persists the artifact.
	Plot(ctx context.Context, ds *domain.Dataset) (Artifact, error)
}

// MultiPlotter renders several datasets into one artifact, in the
// caller-declared order.
type MultiPlotter interface {
	Operation

	// PlotMulti renders all datasets into one artifact.
	PlotMulti(ctx context.Context, datasets []*domain.Dataset) (Artifact, error)
}

// CompositePlotter arranges several panels, one per dataset, into one
// artifact, in the caller-declared order.
type CompositePlotter interface {
	Operation

	// PlotComposite renders all datasets as panels of one artifact.
	PlotComposite(ctx context.Context, datasets []*domain.Dataset) (Artifact, error)
}

// Annotator attaches an annotation to a dataset without altering data.
type Annotator interface {
	Operation

	// Annotate builds the annotation for the dataset.
	Annotate(ctx context.Context, ds *domain.Dataset) (domain.Annotation, error)
}

// Reporter renders a report artifact for a dataset from its history,
// analyses, and representations.
type Reporter interface {
	Operation

	// Report renders and persists the report artifact.
	Report(ctx context.Context, ds *domain.Dataset) (Artifact, error)
}

// Tabulator formats a dataset's data as a textual table artifact.
type Tabulator interface {
	Operation

	// Tabulate renders and persists the table artifact.
	Tabulate(ctx context.Context, ds *domain.Dataset) (Artifact, error)
}

// Exporter writes a dataset to an external representation. Exports are
// loggable tasks and land in the dataset's task log.
type Exporter interface {
	Operation

	// Export persists the dataset and returns the artifact written.
	Export(ctx context.Context, ds *domain.Dataset) (Artifact, error)
}

// OperationFactory constructs a concrete operation from the flexible
// configuration of a task declaration. Factories must run the
// defaults-then-validate construction hooks before returning.
type OperationFactory func(config map[string]any) (Operation, error)

// OperationRegistry maps (family, type) task declarations to
// constructible operations across namespaces.
type OperationRegistry interface {
	// Create instantiates the operation named opType within the family,
	// searching the given namespaces in order before the builtin one.
	// It fails with a ParameterError when the type is unknown in every
	// searched namespace or the configuration is invalid.
	Create(family domain.Family, opType string, namespaces []string, config map[string]any) (Operation, error)

	// Register adds a factory for an operation type under a namespace.
	// Registering under the empty namespace targets the builtin table.
	Register(namespace string, family domain.Family, opType string, factory OperationFactory) error

	// SupportedTypes lists the operation types registered for a family
	// across all namespaces, for diagnostics and suggestions.
	SupportedTypes(family domain.Family) []string
}
