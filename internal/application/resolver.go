package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// Resolver maintains the mapping from string labels to datasets and
// result values.
//
// Dataset declarations are registered eagerly (the label is reserved at
// recipe-load time) but imported lazily: the importer runs on the first
// Resolve of the label. Results are bound by the chef after each task
// that declares one. A bound label is never silently overwritten:
// rebinding logs a warning and the new binding wins.
//
// The resolver is owned by the single chef thread of control for the
// duration of one cook and needs no internal locking.
type Resolver struct {
	entries map[string]*resolverEntry
	// order holds the labels of the initial dataset list in declaration
	// order; this ordering is load-bearing for the apply_to default.
	order     []string
	importers ports.ImporterFactory
	sourceDir string
	logger    *slog.Logger
}

type resolverEntry struct {
	// decl is set for entries originating from the initial dataset
	// list; nil for results.
	decl *DatasetDecl
	// dataset holds the imported dataset once available.
	dataset *domain.Dataset
	// result holds a bound result value; may itself be a dataset.
	result   any
	imported bool
	isResult bool
}

// NewResolver creates a resolver importing dataset sources through the
// given factory, relative sources resolved against sourceDir.
func NewResolver(importers ports.ImporterFactory, sourceDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		entries:   make(map[string]*resolverEntry),
		importers: importers,
		sourceDir: sourceDir,
		logger:    logger,
	}
}

// RegisterDataset reserves the label of a dataset declaration. The
// dataset is not imported until first resolved. Duplicate labels within
// the initial list fail, as silent shadowing between declared datasets
// would make references ambiguous.
func (r *Resolver) RegisterDataset(decl DatasetDecl) error {
	label := decl.EffectiveLabel()
	if _, exists := r.entries[label]; exists {
		return fmt.Errorf("label %q is already bound", label)
	}
	d := decl
	r.entries[label] = &resolverEntry{decl: &d}
	r.order = append(r.order, label)
	return nil
}

// RegisterResult binds a label to a result value. Rebinding an existing
// label is never silent: a warning is logged and the new binding wins.
func (r *Resolver) RegisterResult(label string, value any) {
	if prev, exists := r.entries[label]; exists {
		kind := "result"
		if prev.decl != nil {
			kind = "dataset"
		}
		r.logger.Warn("result label shadows existing binding",
			"label", label, "previous", kind)
	}
	r.entries[label] = &resolverEntry{result: value, isResult: true}
}

// Resolve returns the dataset or result value bound to the label,
// importing a declared dataset on first access. Unknown labels fail
// with an UndefinedResultError.
func (r *Resolver) Resolve(ctx context.Context, label string) (any, error) {
	entry, exists := r.entries[label]
	if !exists {
		return nil, &domain.UndefinedResultError{Label: label}
	}
	if entry.isResult {
		return entry.result, nil
	}
	if !entry.imported {
		ds, err := r.importDataset(ctx, *entry.decl)
		if err != nil {
			return nil, err
		}
		ds.Label = label
		entry.dataset = ds
		entry.imported = true
	}
	return entry.dataset, nil
}

// ResolveDataset resolves a label that must refer to a dataset, either
// from the initial list or a dataset-valued prior result.
func (r *Resolver) ResolveDataset(ctx context.Context, label string) (*domain.Dataset, error) {
	value, err := r.Resolve(ctx, label)
	if err != nil {
		return nil, err
	}
	ds, ok := value.(*domain.Dataset)
	if !ok {
		return nil, domain.NewParameterError("", "label %q resolves to a %T, not a dataset", label, value)
	}
	return ds, nil
}

// ResolveDatasets resolves a list of labels to datasets, preserving the
// caller-given order regardless of whether a label originates from the
// initial dataset list or from a prior result. This ordering guarantee
// is load-bearing for multi-dataset plotting and analysis.
func (r *Resolver) ResolveDatasets(ctx context.Context, labels []string) ([]*domain.Dataset, error) {
	datasets := make([]*domain.Dataset, 0, len(labels))
	for _, label := range labels {
		ds, err := r.ResolveDataset(ctx, label)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// DatasetLabels returns the labels of the initial dataset list in
// declaration order, the default target set for tasks without apply_to.
func (r *Resolver) DatasetLabels() []string {
	labels := make([]string, len(r.order))
	copy(labels, r.order)
	return labels
}

// DatasetPackage returns the importer package declared for a dataset
// label, if any. Used by the registry's namespace resolution order.
func (r *Resolver) DatasetPackage(label string) string {
	if entry, ok := r.entries[label]; ok && entry.decl != nil {
		return entry.decl.Package
	}
	return ""
}

// importDataset runs the importer factory against a declaration and
// imports the dataset. Import failures surface as the factory's
// ImporterNotFoundError or as a wrapped importer error.
func (r *Resolver) importDataset(ctx context.Context, decl DatasetDecl) (*domain.Dataset, error) {
	source := decl.Source
	if r.sourceDir != "" && !filepath.IsAbs(source) {
		source = filepath.Join(r.sourceDir, source)
	}
	importer, err := r.importers.GetImporter(source, decl.Package, decl.Importer)
	if err != nil {
		return nil, err
	}
	ds := domain.NewDataset(decl.EffectiveID())
	if len(decl.ImporterParameters) > 0 {
		if p, ok := importer.(interface{ SetParameters(map[string]any) }); ok {
			p.SetParameters(decl.ImporterParameters)
		}
	}
	if err := importer.ImportInto(ctx, ds); err != nil {
		return nil, fmt.Errorf("importing %q failed: %w", decl.Source, err)
	}
	return ds, nil
}
