package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// buildProcessing constructs a processing step through its factory and
// the defaults-then-validate hooks, the way the registry does.
func buildProcessing(t *testing.T, factory ports.OperationFactory, params map[string]any) ports.ProcessingStep {
	t.Helper()
	op, err := factory(map[string]any{"parameters": params})
	require.NoError(t, err)
	op.SetDefaults()
	require.NoError(t, op.Validate())
	step, ok := op.(ports.ProcessingStep)
	require.True(t, ok)
	return step
}

// TestBaselineCorrection verifies that a linear baseline is removed
// from a flat-edged signal and that the step declares itself undoable.
func TestBaselineCorrection(t *testing.T) {
	step := buildProcessing(t, NewBaselineCorrection, map[string]any{
		"kind":         "polynomial",
		"order":        1,
		"fit_fraction": 0.25,
	})
	assert.True(t, step.Undoable())
	assert.Equal(t, "polynomial", step.Parameters()["kind"])

	// A pure linear ramp is its own baseline: correcting it must leave
	// values near zero.
	values := make([]float64, 20)
	for i := range values {
		values[i] = 2*float64(i) + 5
	}
	ds := testDataset("ramp.txt", values...)

	require.NoError(t, step.Applicable(ds))
	require.NoError(t, step.Process(context.Background(), ds))
	for i, v := range ds.Data.Values {
		assert.InDelta(t, 0, v, 1e-9, "point %d must be baseline-free", i)
	}
}

// TestBaselineCorrectionValidation covers the required kind and the
// range checks on order and fit fraction.
func TestBaselineCorrectionValidation(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{name: "missing kind", params: map[string]any{"order": 1}},
		{name: "unknown kind", params: map[string]any{"kind": "spline"}},
		{name: "order too high", params: map[string]any{"kind": "polynomial", "order": 9}},
		{name: "fit fraction too high", params: map[string]any{"kind": "polynomial", "fit_fraction": 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := NewBaselineCorrection(map[string]any{"parameters": tt.params})
			require.NoError(t, err)
			op.SetDefaults()
			assert.Error(t, op.Validate())
		})
	}
}

// TestBaselineCorrectionApplicability restricts the step to 1D data.
func TestBaselineCorrectionApplicability(t *testing.T) {
	step := buildProcessing(t, NewBaselineCorrection, map[string]any{"kind": "polynomial"})

	twoD := domain.NewDataset("2d")
	twoD.Data = domain.Data{Values: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	var napErr *domain.NotApplicableToDatasetError
	assert.ErrorAs(t, step.Applicable(twoD), &napErr)
}

// TestNormalisation covers every normalisation kind on the same data.
func TestNormalisation(t *testing.T) {
	tests := []struct {
		kind string
		in   []float64
		want []float64
	}{
		{kind: "maximum", in: []float64{1, 2, 4}, want: []float64{0.25, 0.5, 1}},
		{kind: "minimum", in: []float64{1, 2, 4}, want: []float64{1, 2, 4}},
		{kind: "amplitude", in: []float64{0, 2, 4}, want: []float64{0, 0.5, 1}},
		{kind: "area", in: []float64{1, 2, 1}, want: []float64{0.25, 0.5, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			step := buildProcessing(t, NewNormalisation, map[string]any{"kind": tt.kind})
			ds := testDataset("a.txt", tt.in...)
			require.NoError(t, step.Process(context.Background(), ds))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], ds.Data.Values[i], 1e-12)
			}
		})
	}
}

// TestNormalisationDefaultsToMaximum verifies the default kind.
func TestNormalisationDefaultsToMaximum(t *testing.T) {
	step := buildProcessing(t, NewNormalisation, nil)
	assert.Equal(t, "maximum", step.Parameters()["kind"])
}

// TestNormalisationZeroDivisor verifies that degenerate data fails
// instead of producing NaNs.
func TestNormalisationZeroDivisor(t *testing.T) {
	step := buildProcessing(t, NewNormalisation, map[string]any{"kind": "amplitude"})
	ds := testDataset("flat.txt", 3, 3, 3)
	assert.Error(t, step.Process(context.Background(), ds))
}

// TestScalarAlgebra covers the four elementwise operations.
func TestScalarAlgebra(t *testing.T) {
	tests := []struct {
		kind  string
		value float64
		want  []float64
	}{
		{kind: "plus", value: 1, want: []float64{2, 3, 4}},
		{kind: "minus", value: 1, want: []float64{0, 1, 2}},
		{kind: "times", value: 2, want: []float64{2, 4, 6}},
		{kind: "by", value: 2, want: []float64{0.5, 1, 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			step := buildProcessing(t, NewScalarAlgebra, map[string]any{"kind": tt.kind, "value": tt.value})
			ds := testDataset("a.txt", 1, 2, 3)
			require.NoError(t, step.Process(context.Background(), ds))
			assert.Equal(t, tt.want, ds.Data.Values)
		})
	}
}

// TestScalarAlgebraValidation rejects a missing kind and division by
// zero at validation time, before any data is touched.
func TestScalarAlgebraValidation(t *testing.T) {
	op, err := NewScalarAlgebra(map[string]any{"parameters": map[string]any{"value": 1.0}})
	require.NoError(t, err)
	op.SetDefaults()
	assert.Error(t, op.Validate(), "kind is required")

	op, err = NewScalarAlgebra(map[string]any{"parameters": map[string]any{"kind": "by", "value": 0.0}})
	require.NoError(t, err)
	op.SetDefaults()
	assert.ErrorContains(t, op.Validate(), "division by zero")
}

// TestAveraging verifies the edge-clipped moving average and the
// window default.
func TestAveraging(t *testing.T) {
	step := buildProcessing(t, NewAveraging, nil)
	assert.Equal(t, 3, step.Parameters()["window"], "The window defaults to three points.")

	ds := testDataset("a.txt", 0, 3, 0, 3, 0)
	require.NoError(t, step.Applicable(ds))
	require.NoError(t, step.Process(context.Background(), ds))

	want := []float64{1.5, 1, 2, 1, 1.5}
	for i := range want {
		assert.InDelta(t, want[i], ds.Data.Values[i], 1e-12, "point %d", i)
	}
}

// TestAveragingApplicability rejects data narrower than the window.
func TestAveragingApplicability(t *testing.T) {
	step := buildProcessing(t, NewAveraging, map[string]any{"window": 5})
	ds := testDataset("short.txt", 1, 2, 3)
	var napErr *domain.NotApplicableToDatasetError
	assert.ErrorAs(t, step.Applicable(ds), &napErr)
}
