package application

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/reprokit/cook/internal/domain"
)

// TestExecutedRecipeGolden pins the serialized form of an executed
// recipe. Volatile fields are fixed so the document is deterministic;
// the layout itself is the contract replay depends on.
func TestExecutedRecipeGolden(t *testing.T) {
	recipe := &Recipe{
		Format: Format{Type: FormatType, Version: CurrentVersion},
		Datasets: []DatasetDecl{
			{Source: "a.txt"},
			{Source: "b.txt", Label: "raw"},
		},
		Tasks: []Task{
			{
				Kind:       "processing",
				Type:       "Normalisation",
				Properties: map[string]any{"parameters": map[string]any{"kind": "maximum"}},
				ApplyTo:    StringList{"raw"},
			},
		},
		Info: &ExecutionInfo{
			Start: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
			End:   time.Date(2026, 1, 2, 15, 5, 5, 0, time.UTC),
		},
		SystemInfo: &domain.SystemInfo{
			Platform:  "linux/amd64",
			Hostname:  "workstation",
			Username:  "analyst",
			GoVersion: "go1.24.4",
			Packages:  map[string]string{"cook": EngineVersion},
		},
	}

	data, err := recipe.Serialize()
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "executed_recipe", data)
}
