package operations

import (
	"context"
	"fmt"
	"math"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.ProcessingStep = (*Normalisation)(nil)

// Normalisation scales a dataset's data according to the chosen kind:
// to its maximum, its minimum magnitude, its amplitude, or its area.
type Normalisation struct {
	operationBase
	config NormalisationConfig
}

// NormalisationConfig is the parameter set of a normalisation step.
type NormalisationConfig struct {
	// Kind selects the normalisation: maximum, minimum, amplitude, area.
	Kind string `yaml:"kind" validate:"required,oneof=maximum minimum amplitude area"`
}

// NewNormalisation creates the step from raw task configuration.
func NewNormalisation(config map[string]any) (ports.Operation, error) {
	op := &Normalisation{
		operationBase: operationBase{
			name:    "Normalisation",
			family:  domain.FamilyProcessing,
			version: "1.0.2",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults defaults the kind to maximum.
func (n *Normalisation) SetDefaults() {
	if n.config.Kind == "" {
		n.config.Kind = "maximum"
	}
}

// Validate checks the parameter set.
func (n *Normalisation) Validate() error {
	if err := validate.Struct(n.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (n *Normalisation) Parameters() map[string]any { return parametersMap(n.config) }

// Undoable reports that the step snapshots cleanly.
func (n *Normalisation) Undoable() bool { return true }

// Applicable requires non-empty data of any dimensionality.
func (n *Normalisation) Applicable(ds *domain.Dataset) error {
	if ds.Data.Len() == 0 {
		return &domain.NotApplicableToDatasetError{
			Operation: n.name, DatasetID: ds.ID, Reason: "dataset contains no data",
		}
	}
	return nil
}

// Process scales the data in place by the divisor the kind selects.
func (n *Normalisation) Process(_ context.Context, ds *domain.Dataset) error {
	values := ds.Data.Values
	var divisor float64
	switch n.config.Kind {
	case "maximum":
		divisor = math.Inf(-1)
		for _, v := range values {
			divisor = math.Max(divisor, v)
		}
	case "minimum":
		divisor = math.Inf(1)
		for _, v := range values {
			divisor = math.Min(divisor, math.Abs(v))
		}
	case "amplitude":
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		divisor = hi - lo
	case "area":
		for _, v := range values {
			divisor += math.Abs(v)
		}
	}
	if divisor == 0 || math.IsInf(divisor, 0) || math.IsNaN(divisor) {
		return fmt.Errorf("cannot normalise to %s: divisor is %g", n.config.Kind, divisor)
	}
	for i := range values {
		values[i] /= divisor
	}
	return nil
}
