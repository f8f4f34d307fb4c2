// Package domain contains pure, dependency-light domain models and types
// for the recipe-driven cooking engine.
package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Axis describes one dimension of a dataset's data in physical terms.
// An axis either carries explicit values (one per point along the
// dimension) or is a pure index axis when Values is nil.
type Axis struct {
	// Quantity is the physical quantity the axis represents,
	// e.g. "magnetic field" or "time".
	Quantity string `yaml:"quantity"`
	// Unit is the unit the axis values are given in, e.g. "mT" or "s".
	Unit string `yaml:"unit"`
	// Label is an optional display label overriding quantity/unit.
	Label string `yaml:"label,omitempty"`
	// Values holds the axis values, one per point along the dimension.
	// A nil Values slice marks an index axis.
	Values []float64 `yaml:"values,omitempty"`
}

// Index reports whether the axis is a pure index axis without
// explicit values.
func (a Axis) Index() bool { return a.Values == nil }

// Copy returns a deep copy of the axis.
func (a Axis) Copy() Axis {
	c := a
	c.Values = slices.Clone(a.Values)
	return c
}

// Data is an N-dimensional numeric array stored row-major together with
// the axes describing each dimension. The last axis always describes the
// data values themselves (intensity axis), so len(Axes) == len(Shape)+1.
type Data struct {
	// Values holds the numeric data in row-major order.
	Values []float64
	// Shape holds the length of each dimension. A 1D dataset has one entry.
	Shape []int
	// Axes describes each dimension plus the data values; the final
	// entry is the intensity axis.
	Axes []Axis
}

// Dimensions returns the number of data dimensions.
func (d Data) Dimensions() int { return len(d.Shape) }

// Len returns the total number of data points.
func (d Data) Len() int { return len(d.Values) }

// Copy returns a deep copy of the data including axes.
func (d Data) Copy() Data {
	c := Data{
		Values: slices.Clone(d.Values),
		Shape:  slices.Clone(d.Shape),
		Axes:   make([]Axis, len(d.Axes)),
	}
	for i, ax := range d.Axes {
		c.Axes[i] = ax.Copy()
	}
	return c
}

// Equal reports whether two Data values are bit-for-bit identical,
// including shape and axis values. Used by the undo machinery and by
// replay verification.
func (d Data) Equal(other Data) bool {
	if !slices.Equal(d.Values, other.Values) || !slices.Equal(d.Shape, other.Shape) {
		return false
	}
	if len(d.Axes) != len(other.Axes) {
		return false
	}
	for i, ax := range d.Axes {
		o := other.Axes[i]
		if ax.Quantity != o.Quantity || ax.Unit != o.Unit || ax.Label != o.Label {
			return false
		}
		if !slices.Equal(ax.Values, o.Values) {
			return false
		}
	}
	return true
}

// Metadata is the free-form, keyed hierarchy an importer attaches to a
// dataset. The engine never interprets it beyond copying.
type Metadata map[string]any

// Copy returns a deep copy of the metadata hierarchy. Nested maps and
// slices are copied recursively; scalar leaves are shared.
func (m Metadata) Copy() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = deepCopyValue(v)
	}
	return c
}

// deepCopyValue copies nested maps and slices so that mutating a copied
// metadata hierarchy never leaks into the original.
func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, e := range v {
			c[k] = deepCopyValue(e)
		}
		return c
	case Metadata:
		return map[string]any(v.Copy())
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = deepCopyValue(e)
		}
		return c
	case []float64:
		return slices.Clone(v)
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

// Dataset is the unit the cooking engine operates on: numeric data plus
// axes, importer-supplied metadata, and an append-only provenance history.
//
// The history is the authoritative, ordered log of every recorded
// operation. The category logs (Tasks, Analyses, Representations,
// Annotations) reference history entries by record ID and categorize them
// by operation family for reporting. Records are immutable once appended;
// the only permitted removal is an undo of the most recent undoable
// record (see history.go).
type Dataset struct {
	// ID identifies the dataset: the source path it was imported from,
	// or a synthetic id for calculated datasets.
	ID string
	// Label is the human-facing label the dataset is referenced by in
	// recipes. May be empty for datasets only addressed positionally.
	Label string
	// Calculated marks datasets produced by a model rather than imported.
	Calculated bool
	// Data holds the numeric data and its axes.
	Data Data
	// Metadata is the keyed hierarchy supplied by the importer.
	Metadata Metadata

	history historyLog

	// Category logs referencing history records by ID, per operation
	// family, in append order.
	Tasks           []string
	Analyses        []AnalysisRecord
	Representations []Representation
	Annotations     []Annotation
}

// NewDataset creates an empty dataset with the given id.
func NewDataset(id string) *Dataset {
	return &Dataset{ID: id}
}

// History returns the ordered provenance records of the dataset.
// The returned slice is a copy; records themselves are shared and
// must be treated as immutable.
func (d *Dataset) History() []HistoryRecord { return d.history.Records() }

// AppendHistory appends a record to the dataset's history and to the
// category log matching its family, and returns the record ID.
func (d *Dataset) AppendHistory(rec HistoryRecord) string {
	id := d.history.Append(rec)
	switch rec.Family {
	case FamilyProcessing, FamilyExport:
		d.Tasks = append(d.Tasks, id)
	}
	return id
}

// Undo reverts the most recent history record. It fails with an
// ordering error when the given record is not the top of the history,
// and with ErrNotUndoable when the step recorded no way back.
// On success the record is removed and the dataset's data is restored
// bit-for-bit to its pre-step state.
func (d *Dataset) Undo(recordID string) error {
	rec, err := d.history.PopIfTop(recordID)
	if err != nil {
		return err
	}
	if rec.snapshot == nil {
		// Push the record back; the log is otherwise append-only and
		// the caller must see an unchanged dataset on failure.
		d.history.Append(*rec)
		return fmt.Errorf("record %s (%s): %w", recordID, rec.Operation, ErrNotUndoable)
	}
	d.Data = rec.snapshot.Copy()
	if n := len(d.Tasks); n > 0 && d.Tasks[n-1] == recordID {
		d.Tasks = d.Tasks[:n-1]
	}
	return nil
}

// Copy returns a deep copy of the dataset sharing no mutable state with
// the original. History records are shared (they are immutable); the
// category logs are copied.
func (d *Dataset) Copy() *Dataset {
	c := &Dataset{
		ID:              d.ID,
		Label:           d.Label,
		Calculated:      d.Calculated,
		Data:            d.Data.Copy(),
		Metadata:        d.Metadata.Copy(),
		history:         d.history.copy(),
		Tasks:           slices.Clone(d.Tasks),
		Analyses:        slices.Clone(d.Analyses),
		Representations: slices.Clone(d.Representations),
		Annotations:     slices.Clone(d.Annotations),
	}
	return c
}

// AnalysisRecord captures the outcome of an analysis step on a dataset:
// which history record produced it and the result value.
type AnalysisRecord struct {
	// RecordID references the history record of the analysis step.
	RecordID string
	// Result holds the analysis outcome: scalar, array, peak list, or
	// any other value the step produces.
	Result any
}

// Representation records a persisted plot artifact of a dataset.
type Representation struct {
	// RecordID references the history record of the plotting step.
	RecordID string
	// Filename is the path of the persisted artifact.
	Filename string
}

// Annotation attaches free-text or point information to a dataset
// without altering its data.
type Annotation struct {
	// RecordID references the history record of the annotation step.
	RecordID string
	// Type names the annotation operation, e.g. "CommentAnnotation".
	Type string
	// Content holds the annotation payload.
	Content map[string]any
}

// Copy returns a deep copy of the annotation content.
func (a Annotation) Copy() Annotation {
	c := a
	c.Content = maps.Clone(a.Content)
	return c
}
