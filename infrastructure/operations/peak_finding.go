package operations

import (
	"context"
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.SingleAnalysis = (*PeakFinding)(nil)

// PeakFinding locates local maxima of 1D data above a threshold and
// returns their positions on the first axis, in axis order.
type PeakFinding struct {
	operationBase
	config PeakFindingConfig
}

// PeakFindingConfig is the parameter set of a peak search.
type PeakFindingConfig struct {
	// Threshold is the minimum height a local maximum must exceed.
	Threshold float64 `yaml:"threshold"`
	// Negative searches for minima instead, applying the threshold to
	// the inverted data.
	Negative bool `yaml:"negative"`
}

// NewPeakFinding creates the analysis from raw task configuration.
func NewPeakFinding(config map[string]any) (ports.Operation, error) {
	op := &PeakFinding{
		operationBase: operationBase{
			name:    "PeakFinding",
			family:  domain.FamilySingleAnalysis,
			version: "1.2.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults is a no-op; a zero threshold is meaningful.
func (p *PeakFinding) SetDefaults() {}

// Validate checks the parameter set.
func (p *PeakFinding) Validate() error {
	if err := validate.Struct(p.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (p *PeakFinding) Parameters() map[string]any { return parametersMap(p.config) }

// Analyze returns the first-axis positions of all qualifying peaks.
func (p *PeakFinding) Analyze(_ context.Context, ds *domain.Dataset) (any, error) {
	if err := requireOneDimensional(p.name, ds); err != nil {
		return nil, err
	}
	values := ds.Data.Values
	x := xValues(ds)

	sign := 1.0
	if p.config.Negative {
		sign = -1.0
	}
	var positions []float64
	for i := 1; i < len(values)-1; i++ {
		v := sign * values[i]
		if v > sign*values[i-1] && v >= sign*values[i+1] && v > p.config.Threshold {
			positions = append(positions, x[i])
		}
	}
	return positions, nil
}
