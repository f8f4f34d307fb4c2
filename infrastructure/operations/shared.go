// Package operations provides the builtin operations of the cooking
// engine: processing steps, analyses, models, plotters, annotations,
// reports, tables, and exporters dispatched through the operation
// registry.
package operations

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/reprokit/cook/internal/domain"
)

// Common errors returned by builtin operations.
var (
	// ErrMissingFilename is returned by artifact-producing operations
	// that have neither an explicit filename nor autosave enabled.
	ErrMissingFilename = errors.New("no filename given and autosave is disabled")

	// ErrNoData is returned when an operation is invoked against a
	// dataset without data.
	ErrNoData = errors.New("dataset contains no data")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// operationBase carries the identity every builtin operation shares.
// Concrete operations embed it and add their configuration.
type operationBase struct {
	name    string
	family  domain.Family
	version string
}

// Name returns the concrete operation name.
func (b operationBase) Name() string { return b.name }

// Family returns the operation's capability family.
func (b operationBase) Family() domain.Family { return b.family }

// Version returns the semantic version of the operation implementation.
func (b operationBase) Version() string { return b.version }

// decodeConfig decodes the flexible task configuration into a typed
// configuration struct via a YAML round trip, so struct tags drive both
// document parsing and programmatic construction identically.
func decodeConfig(source map[string]any, target any) error {
	if source == nil {
		return nil
	}
	data, err := yaml.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	return nil
}

// parametersMap renders a configuration struct as the parameter map
// recorded in history, again via YAML so the recorded keys match the
// document form.
func parametersMap(config any) map[string]any {
	data, err := yaml.Marshal(config)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	if m == nil {
		m = map[string]any{}
	}
	return m
}

// subConfig extracts a nested configuration mapping, typically the
// conventional parameters key of a task's properties.
func subConfig(config map[string]any, key string) map[string]any {
	if nested, ok := config[key].(map[string]any); ok {
		return nested
	}
	return nil
}

// artifactConfig is the filename and autosave handling shared by every
// artifact-producing operation. The engine injects output_directory and
// autosave_plots from the recipe; filename comes from the task, already
// unpacked per target where declared as a list.
type artifactConfig struct {
	Filename        string `yaml:"filename"`
	OutputDirectory string `yaml:"output_directory"`
	Autosave        bool   `yaml:"autosave_plots"`
}

// resolvePath determines the artifact path for a dataset: the explicit
// filename resolved against the output directory, or an autosave name
// derived from the dataset id. Without either, fails with
// ErrMissingFilename.
func (a artifactConfig) resolvePath(ds *domain.Dataset, opName, extension string) (string, error) {
	filename := a.Filename
	if filename == "" {
		if !a.Autosave || ds == nil {
			return "", ErrMissingFilename
		}
		base := strings.TrimSuffix(filepath.Base(ds.ID), filepath.Ext(ds.ID))
		if base == "" || base == "." {
			base = "dataset"
		}
		filename = fmt.Sprintf("%s_%s%s", base, strings.ToLower(opName), extension)
	}
	if a.OutputDirectory != "" && !filepath.IsAbs(filename) {
		filename = filepath.Join(a.OutputDirectory, filename)
	}
	return filename, nil
}

// requireOneDimensional is the applicability check shared by the
// operations limited to 1D data.
func requireOneDimensional(opName string, ds *domain.Dataset) error {
	if ds.Data.Len() == 0 {
		return &domain.NotApplicableToDatasetError{
			Operation: opName, DatasetID: ds.ID, Reason: "dataset contains no data",
		}
	}
	if ds.Data.Dimensions() != 1 {
		return &domain.NotApplicableToDatasetError{
			Operation: opName, DatasetID: ds.ID,
			Reason: fmt.Sprintf("requires 1D data, got %dD", ds.Data.Dimensions()),
		}
	}
	return nil
}

// xValues returns the first-axis values of a 1D dataset, falling back
// to point indices for index axes.
func xValues(ds *domain.Dataset) []float64 {
	if len(ds.Data.Axes) > 0 && !ds.Data.Axes[0].Index() {
		return ds.Data.Axes[0].Values
	}
	x := make([]float64, ds.Data.Len())
	for i := range x {
		x[i] = float64(i)
	}
	return x
}
