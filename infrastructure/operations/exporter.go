package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Exporter = (*TxtExporter)(nil)

// TxtExporter writes a 1D dataset as whitespace-separated two-column
// text, the inverse of the txt importer. Exports are loggable tasks:
// the chef appends the export to the dataset's history.
type TxtExporter struct {
	operationBase
	config artifactConfig
}

// NewTxtExporter creates the exporter from raw task configuration.
func NewTxtExporter(config map[string]any) (ports.Operation, error) {
	op := &TxtExporter{
		operationBase: operationBase{
			name:    "TxtExporter",
			family:  domain.FamilyExport,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; the filename default is dataset-derived.
func (t *TxtExporter) SetDefaults() {}

// Validate requires a way to name the artifact.
func (t *TxtExporter) Validate() error {
	if t.config.Filename == "" && !t.config.Autosave {
		return ErrMissingFilename
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (t *TxtExporter) Parameters() map[string]any {
	return map[string]any{"filename": t.config.Filename}
}

// Export persists the dataset and returns the artifact written.
func (t *TxtExporter) Export(_ context.Context, ds *domain.Dataset) (ports.Artifact, error) {
	if err := requireOneDimensional(t.name, ds); err != nil {
		return ports.Artifact{}, err
	}
	path, err := t.config.resolvePath(ds, t.name, ".txt")
	if err != nil {
		return ports.Artifact{}, err
	}

	var b strings.Builder
	x := xValues(ds)
	for i, v := range ds.Data.Values {
		fmt.Fprintf(&b, "%g %g\n", x[i], v)
	}
	if err := writeArtifact(path, []byte(b.String())); err != nil {
		return ports.Artifact{}, err
	}
	return ports.Artifact{Filename: path}, nil
}
