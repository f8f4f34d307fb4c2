package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestDatasetDeclUnmarshalYAML covers the scalar shorthand and the
// mapping form of dataset declarations.
func TestDatasetDeclUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want DatasetDecl
	}{
		{
			name: "scalar shorthand",
			doc:  `"scans/sample.txt"`,
			want: DatasetDecl{Source: "scans/sample.txt"},
		},
		{
			name: "mapping form",
			doc: `source: scans/sample.txt
label: raw
importer: txt
importer_parameters:
  skip_lines: 2`,
			want: DatasetDecl{
				Source:             "scans/sample.txt",
				Label:              "raw",
				Importer:           "txt",
				ImporterParameters: map[string]any{"skip_lines": 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decl DatasetDecl
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &decl))
			assert.Equal(t, tt.want, decl)
		})
	}
}

// TestDatasetDeclEffective verifies the id and label fallback chain:
// label falls back to id, id falls back to source.
func TestDatasetDeclEffective(t *testing.T) {
	tests := []struct {
		name      string
		decl      DatasetDecl
		wantID    string
		wantLabel string
	}{
		{
			name:      "source only",
			decl:      DatasetDecl{Source: "a.txt"},
			wantID:    "a.txt",
			wantLabel: "a.txt",
		},
		{
			name:      "explicit id",
			decl:      DatasetDecl{Source: "a.txt", ID: "scan-1"},
			wantID:    "scan-1",
			wantLabel: "scan-1",
		},
		{
			name:      "explicit label",
			decl:      DatasetDecl{Source: "a.txt", Label: "raw"},
			wantID:    "a.txt",
			wantLabel: "raw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, tt.decl.EffectiveID())
			assert.Equal(t, tt.wantLabel, tt.decl.EffectiveLabel())
		})
	}
}

// TestStringListUnmarshalYAML accepts both the scalar and the sequence
// form of apply_to/result.
func TestStringListUnmarshalYAML(t *testing.T) {
	var single StringList
	require.NoError(t, yaml.Unmarshal([]byte(`sample`), &single))
	assert.Equal(t, StringList{"sample"}, single)

	var list StringList
	require.NoError(t, yaml.Unmarshal([]byte(`[b, c, a]`), &list))
	assert.Equal(t, StringList{"b", "c", "a"}, list, "List order must be preserved.")
}

// TestSettingsDefaults verifies that unset switches default to enabled.
func TestSettingsDefaults(t *testing.T) {
	var s Settings
	assert.True(t, s.AutosaveEnabled())
	assert.True(t, s.WriteHistoryEnabled())

	off := false
	s = Settings{AutosavePlots: &off, WriteHistory: &off}
	assert.False(t, s.AutosaveEnabled())
	assert.False(t, s.WriteHistoryEnabled())
}

// TestRecipeSerializeRoundTrip verifies that a serialized recipe decodes
// back to an equal document, preserving the scalar shorthands.
func TestRecipeSerializeRoundTrip(t *testing.T) {
	recipe := &Recipe{
		Format: Format{Type: FormatType, Version: CurrentVersion},
		Datasets: []DatasetDecl{
			{Source: "a.txt"},
			{Source: "b.txt", Label: "second"},
		},
		Tasks: []Task{
			{
				Kind:       "processing",
				Type:       "Normalisation",
				Properties: map[string]any{"parameters": map[string]any{"kind": "maximum"}},
				ApplyTo:    StringList{"a.txt"},
			},
		},
	}

	data, err := recipe.Serialize()
	require.NoError(t, err)

	var decoded Recipe
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, recipe.Format, decoded.Format)
	assert.Equal(t, recipe.Datasets, decoded.Datasets)
	require.Len(t, decoded.Tasks, 1)
	assert.Equal(t, StringList{"a.txt"}, decoded.Tasks[0].ApplyTo)
}
