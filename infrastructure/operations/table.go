package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Tabulator = (*DataTable)(nil)

// DataTable formats a 1D dataset as an aligned two-column text table
// of axis values and data values.
type DataTable struct {
	operationBase
	config dataTableConfig
}

type dataTableConfig struct {
	artifactConfig `yaml:",inline"`
	// Format is the numeric format verb applied to every value.
	Format string `yaml:"format"`
}

// NewDataTable creates the tabulator from raw task configuration.
func NewDataTable(config map[string]any) (ports.Operation, error) {
	op := &DataTable{
		operationBase: operationBase{
			name:    "DataTable",
			family:  domain.FamilyTable,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(config, &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults fills the numeric format.
func (t *DataTable) SetDefaults() {
	if t.config.Format == "" {
		t.config.Format = "%12.6g"
	}
}

// Validate requires a way to name the artifact and a float format verb.
func (t *DataTable) Validate() error {
	if t.config.Filename == "" && !t.config.Autosave {
		return ErrMissingFilename
	}
	if !strings.HasPrefix(t.config.Format, "%") {
		return fmt.Errorf("format %q is not a printf verb", t.config.Format)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (t *DataTable) Parameters() map[string]any {
	return map[string]any{"filename": t.config.Filename, "format": t.config.Format}
}

// Tabulate renders and persists the table artifact.
func (t *DataTable) Tabulate(_ context.Context, ds *domain.Dataset) (ports.Artifact, error) {
	if err := requireOneDimensional(t.name, ds); err != nil {
		return ports.Artifact{}, err
	}
	path, err := t.config.resolvePath(ds, t.name, ".txt")
	if err != nil {
		return ports.Artifact{}, err
	}

	var b strings.Builder
	x := xValues(ds)
	if len(ds.Data.Axes) > 1 {
		fmt.Fprintf(&b, "# %s\t%s\n", axisLabel(ds.Data.Axes[0]), axisLabel(ds.Data.Axes[len(ds.Data.Axes)-1]))
	}
	row := t.config.Format + "\t" + t.config.Format + "\n"
	for i, v := range ds.Data.Values {
		fmt.Fprintf(&b, row, x[i], v)
	}

	if err := writeArtifact(path, []byte(b.String())); err != nil {
		return ports.Artifact{}, err
	}
	return ports.Artifact{Filename: path}, nil
}
