package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
)

const minimalRecipe = `format:
  type: cook recipe
  version: "0.3"
datasets:
  - sample.txt
tasks:
  - kind: processing
    type: Normalisation
    properties:
      parameters:
        kind: maximum
`

// TestRecipeLoaderLoad covers the happy path and the format failures a
// loader must reject before any task could run.
func TestRecipeLoaderLoad(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantErr   bool
		errSubstr string
	}{
		{
			name: "valid recipe",
			doc:  minimalRecipe,
		},
		{
			name:      "invalid YAML",
			doc:       "format: [unclosed",
			wantErr:   true,
			errSubstr: "YAML decode failed",
		},
		{
			name:      "empty document",
			doc:       "",
			wantErr:   true,
			errSubstr: "empty document",
		},
		{
			name: "wrong format type",
			doc: `format:
  type: shopping list
  version: "0.3"
`,
			wantErr:   true,
			errSubstr: "unrecognized format type",
		},
		{
			name: "unsupported version",
			doc: `format:
  type: cook recipe
  version: "9.9"
`,
			wantErr:   true,
			errSubstr: `unsupported recipe version "9.9"`,
		},
		{
			name: "tasks not a list",
			doc: `format:
  type: cook recipe
  version: "0.3"
tasks: not-a-list
`,
			wantErr:   true,
			errSubstr: "tasks must be a list",
		},
		{
			name: "task missing type",
			doc: `format:
  type: cook recipe
  version: "0.3"
tasks:
  - kind: processing
`,
			wantErr:   true,
			errSubstr: "task 0",
		},
		{
			name: "unknown task kind",
			doc: `format:
  type: cook recipe
  version: "0.3"
tasks:
  - kind: juggling
    type: Normalisation
`,
			wantErr:   true,
			errSubstr: `unknown task kind "juggling"`,
		},
		{
			name: "unknown field",
			doc: `format:
  type: cook recipe
  version: "0.3"
frobnicate: true
`,
			wantErr: true,
		},
		{
			name: "duplicate dataset labels",
			doc: `format:
  type: cook recipe
  version: "0.3"
datasets:
  - source: a.txt
    label: raw
  - source: b.txt
    label: raw
`,
			wantErr:   true,
			errSubstr: `label "raw" already used`,
		},
		{
			name: "dataset without source",
			doc: `format:
  type: cook recipe
  version: "0.3"
datasets:
  - label: raw
`,
			wantErr:   true,
			errSubstr: "dataset 0: missing source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewRecipeLoader()
			require.NoError(t, err)

			recipe, err := loader.Load([]byte(tt.doc))
			if tt.wantErr {
				require.Error(t, err)
				var formatErr *domain.RecipeFormatError
				assert.ErrorAs(t, err, &formatErr, "Load failures must be RecipeFormatErrors.")
				if tt.errSubstr != "" {
					assert.Contains(t, err.Error(), tt.errSubstr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, CurrentVersion, recipe.Format.Version)
			require.Len(t, recipe.Datasets, 1)
			assert.Equal(t, "sample.txt", recipe.Datasets[0].Source)
		})
	}
}

// TestRecipeLoaderTaskIndexInError verifies that task-level failures
// identify the offending task by index.
func TestRecipeLoaderTaskIndexInError(t *testing.T) {
	doc := `format:
  type: cook recipe
  version: "0.3"
tasks:
  - kind: processing
    type: Normalisation
  - kind: processing
`
	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	_, err = loader.Load([]byte(doc))
	require.Error(t, err)

	var formatErr *domain.RecipeFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 1, formatErr.TaskIndex, "The error must point at the second task.")
}

// TestRecipeLoaderMigration verifies the 0.1 → 0.2 → 0.3 chain: old
// top-level keys end up in settings and directories, and the loaded
// recipe declares the current version.
func TestRecipeLoaderMigration(t *testing.T) {
	v01 := `format:
  type: cook recipe
  version: "0.1"
default_package: spectra
output_directory: out
datasets_source_directory: scans
datasets:
  - sample.txt
`
	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	recipe, err := loader.Load([]byte(v01))
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, recipe.Format.Version)
	assert.Equal(t, "spectra", recipe.Settings.DefaultPackage)
	assert.Equal(t, "out", recipe.Directories.Output)
	assert.Equal(t, "scans", recipe.Directories.DatasetsSource)
}

// TestRecipeLoaderMigrationIdempotent verifies that re-loading the
// serialized form of a migrated recipe changes nothing.
func TestRecipeLoaderMigrationIdempotent(t *testing.T) {
	v02 := `format:
  type: cook recipe
  version: "0.2"
directories:
  datasets_source_directory: scans
datasets:
  - sample.txt
`
	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	first, err := loader.Load([]byte(v02))
	require.NoError(t, err)

	serialized, err := first.Serialize()
	require.NoError(t, err)

	second, err := loader.Load(serialized)
	require.NoError(t, err)
	assert.Equal(t, first, second, "Migrating an already-migrated document must be a no-op.")
}

// TestRecipeLoaderCache verifies that cached loads still return fresh,
// independently mutable recipes.
func TestRecipeLoaderCache(t *testing.T) {
	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	first, err := loader.Load([]byte(minimalRecipe))
	require.NoError(t, err)

	second, err := loader.Load([]byte(minimalRecipe))
	require.NoError(t, err)

	require.NotSame(t, first, second, "Every load must return a fresh recipe.")
	first.Tasks[0].Type = "mutated"
	assert.Equal(t, "Normalisation", second.Tasks[0].Type,
		"Mutating one loaded recipe must not affect another.")
}

// TestRecipeLoaderLoadFromFile exercises the file entry point.
func TestRecipeLoaderLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalRecipe), 0o644))

	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	recipe, err := loader.LoadFromFile(path)
	require.NoError(t, err)
	assert.Len(t, recipe.Tasks, 1)

	_, err = loader.LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

// TestRecipeLoaderLoadFromReader exercises the reader entry point.
func TestRecipeLoaderLoadFromReader(t *testing.T) {
	loader, err := NewRecipeLoader()
	require.NoError(t, err)

	recipe, err := loader.LoadFromReader(strings.NewReader(minimalRecipe))
	require.NoError(t, err)
	assert.Equal(t, "Normalisation", recipe.Tasks[0].Type)
}
