package operations

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
)

// testDataset builds a 1D dataset with a linear first axis.
func testDataset(id string, values ...float64) *domain.Dataset {
	ds := domain.NewDataset(id)
	axis := make([]float64, len(values))
	for i := range axis {
		axis[i] = float64(i)
	}
	ds.Data = domain.Data{
		Values: values,
		Shape:  []int{len(values)},
		Axes: []domain.Axis{
			{Quantity: "magnetic field", Unit: "mT", Values: axis},
			{Quantity: "intensity", Unit: "a.u."},
		},
	}
	return ds
}

// TestArtifactConfigResolvePath covers explicit filenames, output
// directory joining, autosave-derived names, and the missing-filename
// failure.
func TestArtifactConfigResolvePath(t *testing.T) {
	ds := testDataset("scans/sample.txt", 1, 2, 3)

	tests := []struct {
		name    string
		config  artifactConfig
		ds      *domain.Dataset
		want    string
		wantErr error
	}{
		{
			name:   "explicit filename",
			config: artifactConfig{Filename: "plot.svg"},
			ds:     ds,
			want:   "plot.svg",
		},
		{
			name:   "explicit filename joined to output directory",
			config: artifactConfig{Filename: "plot.svg", OutputDirectory: "out"},
			ds:     ds,
			want:   filepath.Join("out", "plot.svg"),
		},
		{
			name:   "absolute filename ignores output directory",
			config: artifactConfig{Filename: "/tmp/plot.svg", OutputDirectory: "out"},
			ds:     ds,
			want:   "/tmp/plot.svg",
		},
		{
			name:   "autosave derives name from dataset id",
			config: artifactConfig{Autosave: true, OutputDirectory: "out"},
			ds:     ds,
			want:   filepath.Join("out", "sample_singleplotter1d.svg"),
		},
		{
			name:    "no filename and autosave disabled",
			config:  artifactConfig{},
			ds:      ds,
			wantErr: ErrMissingFilename,
		},
		{
			name:    "autosave without dataset",
			config:  artifactConfig{Autosave: true},
			ds:      nil,
			wantErr: ErrMissingFilename,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.resolvePath(tt.ds, "SinglePlotter1D", ".svg")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestRequireOneDimensional covers the shared applicability check.
func TestRequireOneDimensional(t *testing.T) {
	require.NoError(t, requireOneDimensional("X", testDataset("a", 1, 2)))

	var napErr *domain.NotApplicableToDatasetError

	empty := domain.NewDataset("empty")
	err := requireOneDimensional("X", empty)
	require.ErrorAs(t, err, &napErr)

	twoD := domain.NewDataset("2d")
	twoD.Data = domain.Data{Values: []float64{1, 2, 3, 4}, Shape: []int{2, 2}}
	err = requireOneDimensional("X", twoD)
	require.ErrorAs(t, err, &napErr)
	assert.Contains(t, napErr.Reason, "2D")
}

// TestXValues verifies the index-axis fallback.
func TestXValues(t *testing.T) {
	withAxis := testDataset("a", 5, 6, 7)
	withAxis.Data.Axes[0].Values = []float64{10, 20, 30}
	assert.Equal(t, []float64{10, 20, 30}, xValues(withAxis))

	indexAxis := testDataset("b", 5, 6, 7)
	indexAxis.Data.Axes[0].Values = nil
	assert.Equal(t, []float64{0, 1, 2}, xValues(indexAxis))
}

// TestDecodeConfigRoundTrip verifies that task configuration reaches
// typed structs through the YAML round trip, including nested keys.
func TestDecodeConfigRoundTrip(t *testing.T) {
	var config BaselineCorrectionConfig
	source := map[string]any{"kind": "polynomial", "order": 1, "fit_fraction": 0.2}
	require.NoError(t, decodeConfig(source, &config))
	assert.Equal(t, BaselineCorrectionConfig{Kind: "polynomial", Order: 1, FitFraction: 0.2}, config)

	params := parametersMap(config)
	assert.Equal(t, "polynomial", params["kind"])
	assert.Equal(t, 1, params["order"])
}

// TestSubConfig verifies extraction of the conventional parameters key.
func TestSubConfig(t *testing.T) {
	config := map[string]any{"parameters": map[string]any{"kind": "maximum"}}
	assert.Equal(t, map[string]any{"kind": "maximum"}, subConfig(config, "parameters"))
	assert.Nil(t, subConfig(map[string]any{}, "parameters"))
	assert.Nil(t, subConfig(map[string]any{"parameters": "scalar"}, "parameters"))
}
