package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.ProcessingStep = (*BaselineCorrection)(nil)

// BaselineCorrection subtracts a polynomial baseline from 1D data.
//
// The baseline is fitted against the edges of the data, assuming the
// outer fit fraction on each side to be signal-free. An order of zero
// reduces to subtracting the mean of the edge points. The step is
// exactly invertible, so it is recorded as undoable.
type BaselineCorrection struct {
	operationBase
	config BaselineCorrectionConfig
}

// BaselineCorrectionConfig is the parameter set of a baseline
// correction, conventionally nested under the parameters key of the
// task properties.
type BaselineCorrectionConfig struct {
	// Kind selects the baseline model. Only polynomial is implemented.
	Kind string `yaml:"kind" validate:"required,oneof=polynomial"`
	// Order is the polynomial order, typically 0 or 1.
	Order int `yaml:"order" validate:"min=0,max=5"`
	// FitFraction is the fraction of points on each edge the baseline
	// is fitted against.
	FitFraction float64 `yaml:"fit_fraction" validate:"min=0,max=0.5"`
}

// NewBaselineCorrection creates the step from raw task configuration.
// It reads the conventional parameters key; the required kind being
// absent surfaces from Validate as a ParameterError at the registry.
func NewBaselineCorrection(config map[string]any) (ports.Operation, error) {
	op := &BaselineCorrection{
		operationBase: operationBase{
			name:    "BaselineCorrection",
			family:  domain.FamilyProcessing,
			version: "1.1.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults fills the fit fraction; kind has no default, it is a
// required declaration.
func (b *BaselineCorrection) SetDefaults() {
	if b.config.FitFraction == 0 {
		b.config.FitFraction = 0.1
	}
}

// Validate checks the parameter set.
func (b *BaselineCorrection) Validate() error {
	if b.config.Kind == "" {
		return fmt.Errorf("parameters.kind is required")
	}
	if err := validate.Struct(b.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (b *BaselineCorrection) Parameters() map[string]any { return parametersMap(b.config) }

// Undoable reports that the step snapshots cleanly.
func (b *BaselineCorrection) Undoable() bool { return true }

// Applicable restricts the step to non-empty 1D data.
func (b *BaselineCorrection) Applicable(ds *domain.Dataset) error {
	return requireOneDimensional(b.name, ds)
}

// Process fits the baseline polynomial against the edge points and
// subtracts it from the data in place.
func (b *BaselineCorrection) Process(_ context.Context, ds *domain.Dataset) error {
	values := ds.Data.Values
	n := len(values)
	edge := int(float64(n) * b.config.FitFraction)
	if edge < b.config.Order+1 {
		edge = b.config.Order + 1
	}
	if 2*edge > n {
		return &domain.NotApplicableToDatasetError{
			Operation: b.name, DatasetID: ds.ID,
			Reason: fmt.Sprintf("%d points are too few for order %d with fit fraction %g",
				n, b.config.Order, b.config.FitFraction),
		}
	}

	x := xValues(ds)
	fitX := make([]float64, 0, 2*edge)
	fitY := make([]float64, 0, 2*edge)
	fitX = append(fitX, x[:edge]...)
	fitX = append(fitX, x[n-edge:]...)
	fitY = append(fitY, values[:edge]...)
	fitY = append(fitY, values[n-edge:]...)

	coefficients, err := polyfit(fitX, fitY, b.config.Order)
	if err != nil {
		return fmt.Errorf("baseline fit failed: %w", err)
	}
	for i := range values {
		values[i] -= polyval(coefficients, x[i])
	}
	return nil
}

// polyfit computes least-squares polynomial coefficients (constant
// first) by solving the normal equations with Gaussian elimination.
// Orders are small here, so numerical refinement is not warranted.
func polyfit(x, y []float64, order int) ([]float64, error) {
	if len(x) != len(y) || len(x) <= order {
		return nil, fmt.Errorf("need more than %d points, got %d", order, len(x))
	}
	size := order + 1

	// Normal equations: A^T A c = A^T y with Vandermonde A.
	matrix := make([][]float64, size)
	rhs := make([]float64, size)
	powerSums := make([]float64, 2*size-1)
	for _, xi := range x {
		p := 1.0
		for k := range powerSums {
			powerSums[k] += p
			p *= xi
		}
	}
	for i, yi := range y {
		p := 1.0
		for k := 0; k < size; k++ {
			rhs[k] += yi * p
			p *= x[i]
		}
	}
	for i := range matrix {
		matrix[i] = make([]float64, size)
		for j := range matrix[i] {
			matrix[i][j] = powerSums[i+j]
		}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < size; col++ {
		pivot := col
		for row := col + 1; row < size; row++ {
			if abs(matrix[row][col]) > abs(matrix[pivot][col]) {
				pivot = row
			}
		}
		if matrix[pivot][col] == 0 {
			return nil, fmt.Errorf("singular fit matrix")
		}
		matrix[col], matrix[pivot] = matrix[pivot], matrix[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]
		for row := col + 1; row < size; row++ {
			factor := matrix[row][col] / matrix[col][col]
			for k := col; k < size; k++ {
				matrix[row][k] -= factor * matrix[col][k]
			}
			rhs[row] -= factor * rhs[col]
		}
	}
	coefficients := make([]float64, size)
	for row := size - 1; row >= 0; row-- {
		sum := rhs[row]
		for k := row + 1; k < size; k++ {
			sum -= matrix[row][k] * coefficients[k]
		}
		coefficients[row] = sum / matrix[row][row]
	}
	return coefficients, nil
}

// polyval evaluates a polynomial with constant-first coefficients.
func polyval(coefficients []float64, x float64) float64 {
	result := 0.0
	for i := len(coefficients) - 1; i >= 0; i-- {
		result = result*x + coefficients[i]
	}
	return result
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
