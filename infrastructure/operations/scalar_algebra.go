package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.ProcessingStep = (*ScalarAlgebra)(nil)

// ScalarAlgebra applies an elementwise scalar operation to the data:
// add, subtract, multiply, or divide by a fixed value.
type ScalarAlgebra struct {
	operationBase
	config ScalarAlgebraConfig
}

// ScalarAlgebraConfig is the parameter set of a scalar algebra step.
type ScalarAlgebraConfig struct {
	// Kind selects the operation: plus, minus, times, by.
	Kind string `yaml:"kind" validate:"required,oneof=plus minus times by"`
	// Value is the scalar operand.
	Value float64 `yaml:"value"`
}

// NewScalarAlgebra creates the step from raw task configuration.
func NewScalarAlgebra(config map[string]any) (ports.Operation, error) {
	op := &ScalarAlgebra{
		operationBase: operationBase{
			name:    "ScalarAlgebra",
			family:  domain.FamilyProcessing,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; kind and value are explicit declarations.
func (s *ScalarAlgebra) SetDefaults() {}

// Validate checks the parameter set and guards against division by zero.
func (s *ScalarAlgebra) Validate() error {
	if s.config.Kind == "" {
		return fmt.Errorf("parameters.kind is required")
	}
	if err := validate.Struct(s.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if s.config.Kind == "by" && s.config.Value == 0 {
		return fmt.Errorf("division by zero")
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (s *ScalarAlgebra) Parameters() map[string]any { return parametersMap(s.config) }

// Undoable reports that the step snapshots cleanly.
func (s *ScalarAlgebra) Undoable() bool { return true }

// Applicable requires non-empty data.
func (s *ScalarAlgebra) Applicable(ds *domain.Dataset) error {
	if ds.Data.Len() == 0 {
		return &domain.NotApplicableToDatasetError{
			Operation: s.name, DatasetID: ds.ID, Reason: "dataset contains no data",
		}
	}
	return nil
}

// Process applies the scalar operation elementwise in place.
func (s *ScalarAlgebra) Process(_ context.Context, ds *domain.Dataset) error {
	values := ds.Data.Values
	switch s.config.Kind {
	case "plus":
		for i := range values {
			values[i] += s.config.Value
		}
	case "minus":
		for i := range values {
			values[i] -= s.config.Value
		}
	case "times":
		for i := range values {
			values[i] *= s.config.Value
		}
	case "by":
		for i := range values {
			values[i] /= s.config.Value
		}
	}
	return nil
}
