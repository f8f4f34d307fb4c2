package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.ProcessingStep = (*Averaging)(nil)

// Averaging smooths 1D data with a centered moving average. The window
// is clipped at the data edges, so the number of points is preserved.
type Averaging struct {
	operationBase
	config AveragingConfig
}

// AveragingConfig is the parameter set of an averaging step.
type AveragingConfig struct {
	// Window is the moving-average window width in points; odd widths
	// center cleanly, even widths lean one point to the left.
	Window int `yaml:"window" validate:"min=1"`
}

// NewAveraging creates the step from raw task configuration.
func NewAveraging(config map[string]any) (ports.Operation, error) {
	op := &Averaging{
		operationBase: operationBase{
			name:    "Averaging",
			family:  domain.FamilyProcessing,
			version: "1.0.1",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults defaults the window to three points.
func (a *Averaging) SetDefaults() {
	if a.config.Window == 0 {
		a.config.Window = 3
	}
}

// Validate checks the parameter set.
func (a *Averaging) Validate() error {
	if err := validate.Struct(a.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (a *Averaging) Parameters() map[string]any { return parametersMap(a.config) }

// Undoable reports that the step snapshots cleanly.
func (a *Averaging) Undoable() bool { return true }

// Applicable requires non-empty 1D data wider than the window.
func (a *Averaging) Applicable(ds *domain.Dataset) error {
	if err := requireOneDimensional(a.name, ds); err != nil {
		return err
	}
	if ds.Data.Len() < a.config.Window {
		return &domain.NotApplicableToDatasetError{
			Operation: a.name, DatasetID: ds.ID,
			Reason: fmt.Sprintf("%d points are fewer than the window of %d", ds.Data.Len(), a.config.Window),
		}
	}
	return nil
}

// Process replaces the data with its moving average.
func (a *Averaging) Process(_ context.Context, ds *domain.Dataset) error {
	values := ds.Data.Values
	n := len(values)
	half := a.config.Window / 2
	smoothed := make([]float64, n)
	for i := range values {
		lo := max(0, i-half)
		hi := min(n, i+a.config.Window-half)
		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		smoothed[i] = sum / float64(hi-lo)
	}
	copy(values, smoothed)
	return nil
}
