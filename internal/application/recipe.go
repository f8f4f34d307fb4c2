// Package application wires recipe loading, reference resolution,
// operation dispatch, and the chef orchestrator into the cooking engine.
package application

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reprokit/cook/internal/domain"
)

// FormatType is the format tag every recipe document must declare.
const FormatType = "cook recipe"

// CurrentVersion is the recipe schema version this engine reads and
// writes. Older versions are migrated on load (see migrations.go).
const CurrentVersion = "0.3"

// Recipe is the in-memory form of a recipe document: the initial dataset
// list, global settings, directory configuration, and the ordered task
// list. An executed recipe additionally carries Info and SystemInfo,
// making it the replayable provenance artifact.
//
// A Recipe is constructed by the RecipeLoader and mutated only by the
// Chef appending execution results; it is serializable at any point.
type Recipe struct {
	// Format declares the document type and schema version.
	Format Format `yaml:"format" validate:"required"`
	// Settings carries engine-wide defaults and switches.
	Settings Settings `yaml:"settings,omitempty"`
	// Directories configures source and output roots.
	Directories Directories `yaml:"directories,omitempty"`
	// Datasets is the initial dataset list in declaration order.
	Datasets []DatasetDecl `yaml:"datasets,omitempty" validate:"dive"`
	// Tasks is the ordered list of steps to cook.
	Tasks []Task `yaml:"tasks,omitempty" validate:"dive"`
	// Info is set on executed recipes only: start and end of the cook.
	Info *ExecutionInfo `yaml:"info,omitempty"`
	// SystemInfo is set on executed recipes only.
	SystemInfo *domain.SystemInfo `yaml:"system_info,omitempty"`
}

// Format is the type tag and schema version of a recipe document.
type Format struct {
	// Type identifies the document as a recipe; must equal FormatType.
	Type string `yaml:"type" validate:"required"`
	// Version is the schema version of the document.
	Version string `yaml:"version" validate:"required"`
}

// Settings holds recipe-global defaults and switches.
type Settings struct {
	// DefaultPackage is the operation namespace searched before the
	// builtin one when a task does not name a package itself.
	DefaultPackage string `yaml:"default_package,omitempty"`
	// AutosavePlots forces plot operations without an explicit filename
	// to persist an artifact under a name derived from the dataset id.
	// Unset defaults to true.
	AutosavePlots *bool `yaml:"autosave_plots,omitempty"`
	// WriteHistory controls whether cooked tasks append history records
	// to the datasets they touch. Unset defaults to true.
	WriteHistory *bool `yaml:"write_history,omitempty"`
}

// AutosaveEnabled reports the effective autosave_plots setting.
func (s Settings) AutosaveEnabled() bool { return s.AutosavePlots == nil || *s.AutosavePlots }

// WriteHistoryEnabled reports the effective write_history setting.
func (s Settings) WriteHistoryEnabled() bool { return s.WriteHistory == nil || *s.WriteHistory }

// Directories configures where dataset sources are read from and where
// artifacts are written to.
type Directories struct {
	// Output is the root for plot, report, table, and export artifacts.
	Output string `yaml:"output,omitempty"`
	// DatasetsSource is the root dataset sources are resolved against.
	DatasetsSource string `yaml:"datasets_source,omitempty"`
}

// DatasetDecl declares one entry of the initial dataset list. In a
// document it is either a plain string (the source) or a mapping with
// at least a source key.
type DatasetDecl struct {
	// Source locates the data, resolved against the datasets_source
	// directory unless absolute.
	Source string `yaml:"source" validate:"required"`
	// ID overrides the dataset id; defaults to the source.
	ID string `yaml:"id,omitempty"`
	// Label is the reference label; defaults to ID, then Source.
	Label string `yaml:"label,omitempty"`
	// Package selects an importer-providing namespace.
	Package string `yaml:"package,omitempty"`
	// Importer names a concrete importer, bypassing source detection.
	Importer string `yaml:"importer,omitempty"`
	// ImporterParameters is passed through to the importer untouched.
	ImporterParameters map[string]any `yaml:"importer_parameters,omitempty"`
}

// EffectiveID returns the dataset id the declaration resolves to.
func (d DatasetDecl) EffectiveID() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Source
}

// EffectiveLabel returns the label the declaration binds.
func (d DatasetDecl) EffectiveLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.EffectiveID()
}

// UnmarshalYAML accepts both the scalar shorthand and the mapping form
// of a dataset declaration.
func (d *DatasetDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&d.Source)
	}
	type plain DatasetDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = DatasetDecl(p)
	return nil
}

// MarshalYAML emits the scalar shorthand when only the source is set,
// keeping serialized recipes as close to their hand-written form as
// possible.
func (d DatasetDecl) MarshalYAML() (any, error) {
	if d.ID == "" && d.Label == "" && d.Package == "" && d.Importer == "" && len(d.ImporterParameters) == 0 {
		return d.Source, nil
	}
	type plain DatasetDecl
	return plain(d), nil
}

// StringList is a list of labels that also accepts a single scalar in
// YAML, since recipes commonly write `apply_to: sample` for one target.
type StringList []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

// MarshalYAML emits the scalar shorthand for single-element lists.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// Task is the in-memory representation of one declared step. It is
// immutable once the chef begins executing it.
type Task struct {
	// Kind is the operation family, e.g. "processing" or "singleplot".
	Kind string `yaml:"kind" validate:"required"`
	// Type is the concrete operation name within the family.
	Type string `yaml:"type" validate:"required"`
	// Package selects an operation namespace for this task only.
	Package string `yaml:"package,omitempty"`
	// Properties is the operation configuration, including the
	// conventional nested parameters key.
	Properties map[string]any `yaml:"properties,omitempty"`
	// ApplyTo lists the target labels. Empty means all datasets of the
	// initial list known at this point, in declaration order.
	ApplyTo StringList `yaml:"apply_to,omitempty"`
	// Result names the label(s) to bind outputs to. For per-target
	// operations the length must match the number of targets.
	Result StringList `yaml:"result,omitempty"`
	// Comment is free text carried into the history document.
	Comment string `yaml:"comment,omitempty"`
}

// Family returns the task kind as an operation family.
func (t Task) Family() domain.Family { return domain.Family(t.Kind) }

// ExecutionInfo records when a cook started and ended.
type ExecutionInfo struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
}

// Serialize renders the recipe as a YAML document. The output of an
// executed recipe is itself a loadable recipe, closing the
// reproducibility loop.
func (r *Recipe) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode recipe: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize recipe document: %w", err)
	}
	return buf.Bytes(), nil
}
