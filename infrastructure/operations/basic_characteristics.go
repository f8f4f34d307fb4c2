package operations

import (
	"context"
	"fmt"
	"math"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.SingleAnalysis = (*BasicCharacteristics)(nil)

// BasicCharacteristics computes a basic characteristic of a dataset's
// data: minimum, maximum, mean, standard deviation, or area. The kind
// "all" returns all of them as a map.
type BasicCharacteristics struct {
	operationBase
	config BasicCharacteristicsConfig
}

// BasicCharacteristicsConfig is the parameter set of the analysis.
type BasicCharacteristicsConfig struct {
	// Kind selects the characteristic: min, max, mean, std, area, all.
	Kind string `yaml:"kind" validate:"required,oneof=min max mean std area all"`
}

// NewBasicCharacteristics creates the analysis from raw task
// configuration.
func NewBasicCharacteristics(config map[string]any) (ports.Operation, error) {
	op := &BasicCharacteristics{
		operationBase: operationBase{
			name:    "BasicCharacteristics",
			family:  domain.FamilySingleAnalysis,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults defaults the kind to all.
func (b *BasicCharacteristics) SetDefaults() {
	if b.config.Kind == "" {
		b.config.Kind = "all"
	}
}

// Validate checks the parameter set.
func (b *BasicCharacteristics) Validate() error {
	if err := validate.Struct(b.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (b *BasicCharacteristics) Parameters() map[string]any { return parametersMap(b.config) }

// Analyze computes the requested characteristic without mutating the
// dataset.
func (b *BasicCharacteristics) Analyze(_ context.Context, ds *domain.Dataset) (any, error) {
	if ds.Data.Len() == 0 {
		return nil, ErrNoData
	}
	characteristics := characterize(ds.Data.Values)
	if b.config.Kind == "all" {
		return characteristics, nil
	}
	return characteristics[b.config.Kind], nil
}

func characterize(values []float64) map[string]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	sum, area := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
		area += math.Abs(v)
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(variance / float64(len(values)-1))
	}
	return map[string]float64{"min": lo, "max": hi, "mean": mean, "std": std, "area": area}
}
