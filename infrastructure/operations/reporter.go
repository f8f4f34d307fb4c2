package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Reporter = (*TextReporter)(nil)

// TextReporter renders a plain-text summary of a dataset: identity,
// shape, metadata, and the categorized provenance (processing tasks,
// analyses, representations, annotations). Template-driven report
// layouts are external; this reporter covers the builtin summary.
type TextReporter struct {
	operationBase
	config artifactConfig
}

// NewTextReporter creates the reporter from raw task configuration.
func NewTextReporter(config map[string]any) (ports.Operation, error) {
	op := &TextReporter{
		operationBase: operationBase{
			name:    "TextReporter",
			family:  domain.FamilyReport,
			version: "1.0.1",
		},
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; the filename default is dataset-derived.
func (t *TextReporter) SetDefaults() {}

// Validate requires a way to name the artifact.
func (t *TextReporter) Validate() error {
	if t.config.Filename == "" && !t.config.Autosave {
		return ErrMissingFilename
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (t *TextReporter) Parameters() map[string]any {
	return map[string]any{"filename": t.config.Filename}
}

// Report renders and persists the summary. The file handle is released
// before returning, on every path.
func (t *TextReporter) Report(_ context.Context, ds *domain.Dataset) (ports.Artifact, error) {
	path, err := t.config.resolvePath(ds, t.name, ".txt")
	if err != nil {
		return ports.Artifact{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset report\n==============\n\n")
	fmt.Fprintf(&b, "id:    %s\n", ds.ID)
	if ds.Label != "" {
		fmt.Fprintf(&b, "label: %s\n", ds.Label)
	}
	if ds.Calculated {
		fmt.Fprintf(&b, "calculated dataset\n")
	}
	fmt.Fprintf(&b, "shape: %v\n\n", ds.Data.Shape)

	if len(ds.Metadata) > 0 {
		fmt.Fprintf(&b, "Metadata\n--------\n")
		keys := make([]string, 0, len(ds.Metadata))
		for k := range ds.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, ds.Metadata[k])
		}
		b.WriteString("\n")
	}

	history := ds.History()
	fmt.Fprintf(&b, "History (%d records)\n-------------------\n", len(history))
	for i, rec := range history {
		fmt.Fprintf(&b, "  %2d. %s v%s (%s) parameters: %v\n",
			i+1, rec.Operation, rec.Version, rec.Family, rec.Parameters)
	}
	if len(ds.Analyses) > 0 {
		fmt.Fprintf(&b, "\nAnalyses\n--------\n")
		for _, a := range ds.Analyses {
			fmt.Fprintf(&b, "  %v\n", a.Result)
		}
	}
	if len(ds.Representations) > 0 {
		fmt.Fprintf(&b, "\nRepresentations\n---------------\n")
		for _, r := range ds.Representations {
			fmt.Fprintf(&b, "  %s\n", r.Filename)
		}
	}
	if len(ds.Annotations) > 0 {
		fmt.Fprintf(&b, "\nAnnotations\n-----------\n")
		for _, a := range ds.Annotations {
			fmt.Fprintf(&b, "  %s: %v\n", a.Type, a.Content)
		}
	}

	if err := writeArtifact(path, []byte(b.String())); err != nil {
		return ports.Artifact{}, err
	}
	return ports.Artifact{Filename: path}, nil
}

// writeArtifact persists artifact bytes, creating parent directories as
// needed.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
