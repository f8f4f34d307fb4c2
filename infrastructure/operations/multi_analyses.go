package operations

import (
	"context"
	"fmt"
	"math"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var (
	_ ports.MultiAnalysis      = (*CommonRange)(nil)
	_ ports.AggregatedAnalysis = (*AggregatedStatistics)(nil)
)

// CommonRange determines the overlapping first-axis range of several
// datasets, the prerequisite for comparing or combining them. The
// result is a two-element slice [lower, upper]; datasets without
// overlap fail.
type CommonRange struct {
	operationBase
}

// NewCommonRange creates the analysis; it has no parameters.
func NewCommonRange(map[string]any) (ports.Operation, error) {
	return &CommonRange{
		operationBase: operationBase{
			name:    "CommonRange",
			family:  domain.FamilyMultiAnalysis,
			version: "1.0.0",
		},
	}, nil
}

// SetDefaults is a no-op.
func (c *CommonRange) SetDefaults() {}

// Validate always passes; the analysis has no configuration.
func (c *CommonRange) Validate() error { return nil }

// Parameters returns an empty parameter set.
func (c *CommonRange) Parameters() map[string]any { return map[string]any{} }

// AnalyzeMulti intersects the first-axis ranges in caller order.
func (c *CommonRange) AnalyzeMulti(_ context.Context, datasets []*domain.Dataset) (any, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("no datasets to analyze")
	}
	lower, upper := math.Inf(-1), math.Inf(1)
	for _, ds := range datasets {
		if ds.Data.Len() == 0 {
			return nil, fmt.Errorf("dataset %s: %w", ds.ID, ErrNoData)
		}
		x := xValues(ds)
		lo, hi := x[0], x[len(x)-1]
		if lo > hi {
			lo, hi = hi, lo
		}
		lower = math.Max(lower, lo)
		upper = math.Min(upper, hi)
	}
	if lower > upper {
		return nil, fmt.Errorf("datasets share no common axis range")
	}
	return []float64{lower, upper}, nil
}

// AggregatedStatistics computes the same basic characteristic for each
// dataset of a list and returns the values in caller order, enabling
// series-level comparisons across measurements.
type AggregatedStatistics struct {
	operationBase
	config AggregatedStatisticsConfig
}

// AggregatedStatisticsConfig selects the aggregated characteristic.
type AggregatedStatisticsConfig struct {
	// Kind selects the characteristic: min, max, mean, std, area.
	Kind string `yaml:"kind" validate:"required,oneof=min max mean std area"`
}

// NewAggregatedStatistics creates the analysis from raw task
// configuration.
func NewAggregatedStatistics(config map[string]any) (ports.Operation, error) {
	op := &AggregatedStatistics{
		operationBase: operationBase{
			name:    "AggregatedStatistics",
			family:  domain.FamilyAggregatedAnalysis,
			version: "1.0.0",
		},
	}
	if err := decodeConfig(subConfig(config, "parameters"), &op.config); err != nil {
		return nil, err
	}
	return op, nil
}

// SetDefaults defaults the kind to mean.
func (a *AggregatedStatistics) SetDefaults() {
	if a.config.Kind == "" {
		a.config.Kind = "mean"
	}
}

// Validate checks the parameter set.
func (a *AggregatedStatistics) Validate() error {
	if err := validate.Struct(a.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// Parameters returns the exact parameter set used.
func (a *AggregatedStatistics) Parameters() map[string]any { return parametersMap(a.config) }

// Aggregate computes the characteristic per dataset, in caller order.
func (a *AggregatedStatistics) Aggregate(_ context.Context, datasets []*domain.Dataset) (any, error) {
	results := make([]float64, 0, len(datasets))
	for _, ds := range datasets {
		if ds.Data.Len() == 0 {
			return nil, fmt.Errorf("dataset %s: %w", ds.ID, ErrNoData)
		}
		results = append(results, characterize(ds.Data.Values)[a.config.Kind])
	}
	return results, nil
}
