package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Model = (*PolynomialModel)(nil)

// PolynomialModel calculates a synthetic 1D dataset from polynomial
// coefficients, evaluated either over an explicit range or over the
// first axis of a template dataset.
type PolynomialModel struct {
	operationBase
	config PolynomialModelConfig
}

// PolynomialModelConfig is the parameter set of a polynomial model.
type PolynomialModelConfig struct {
	// Coefficients of the polynomial, constant term first.
	Coefficients []float64 `yaml:"coefficients" validate:"required,min=1"`
	// Range is the evaluation range [start, stop]; ignored when a
	// template dataset supplies the axis.
	Range []float64 `yaml:"range" validate:"omitempty,len=2"`
	// Points is the number of evaluation points for an explicit range.
	Points int `yaml:"points" validate:"min=0"`
}

// NewPolynomialModel creates the model from raw task configuration.
func NewPolynomialModel(config map[string]any) (ports.Operation, error) {
	op := &PolynomialModel{
		operationBase: operationBase{
			name:    "PolynomialModel",
			family:  domain.FamilyModel,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults fills the point count for explicit ranges.
func (p *PolynomialModel) SetDefaults() {
	if p.config.Points == 0 {
		p.config.Points = 101
	}
}

// Validate checks the parameter set.
func (p *PolynomialModel) Validate() error {
	if len(p.config.Coefficients) == 0 {
		return fmt.Errorf("parameters.coefficients is required")
	}
	if err := validate.Struct(p.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (p *PolynomialModel) Parameters() map[string]any { return parametersMap(p.config) }

// Evaluate produces the calculated dataset. A template dataset, when
// given, supplies the evaluation axis including quantity and unit;
// otherwise the explicit range is required.
func (p *PolynomialModel) Evaluate(_ context.Context, template *domain.Dataset) (*domain.Dataset, error) {
	var axis domain.Axis
	switch {
	case template != nil:
		if template.Data.Dimensions() != 1 {
			return nil, &domain.NotApplicableToDatasetError{
				Operation: p.name, DatasetID: template.ID,
				Reason: "template must provide a 1D axis",
			}
		}
		axis = template.Data.Axes[0].Copy()
		if axis.Index() {
			axis.Values = xValues(template)
		}
	case len(p.config.Range) == 2:
		axis = domain.Axis{Quantity: "position"}
		axis.Values = make([]float64, p.config.Points)
		step := (p.config.Range[1] - p.config.Range[0]) / float64(p.config.Points-1)
		for i := range axis.Values {
			axis.Values[i] = p.config.Range[0] + float64(i)*step
		}
	default:
		return nil, fmt.Errorf("polynomial model needs either a template dataset or parameters.range")
	}

	values := make([]float64, len(axis.Values))
	for i, x := range axis.Values {
		values[i] = polyval(p.config.Coefficients, x)
	}

	ds := domain.NewDataset("")
	ds.Data = domain.Data{
		Values: values,
		Shape:  []int{len(values)},
		Axes:   []domain.Axis{axis, {Quantity: "amplitude"}},
	}
	return ds, nil
}
