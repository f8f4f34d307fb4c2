package domain

import (
	"fmt"
	"maps"
	"os"
	"os/user"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Family categorizes operations by capability for history bookkeeping
// and chef dispatch.
type Family string

// Operation families. The family determines invocation cardinality and
// which category log of a dataset a history record lands in.
const (
	FamilyProcessing         Family = "processing"
	FamilySingleAnalysis     Family = "singleanalysis"
	FamilyMultiAnalysis      Family = "multianalysis"
	FamilyAggregatedAnalysis Family = "aggregatedanalysis"
	FamilyModel              Family = "model"
	FamilySinglePlot         Family = "singleplot"
	FamilyMultiPlot          Family = "multiplot"
	FamilyCompositePlot      Family = "compositeplot"
	FamilyAnnotation         Family = "annotation"
	FamilyReport             Family = "report"
	FamilyTable              Family = "table"
	FamilyExport             Family = "export"
)

// MultiTarget reports whether operations of this family are invoked once
// with the full resolved target list rather than once per target.
func (f Family) MultiTarget() bool {
	switch f {
	case FamilyMultiAnalysis, FamilyAggregatedAnalysis, FamilyMultiPlot, FamilyCompositePlot:
		return true
	}
	return false
}

// Valid reports whether f names a known operation family.
func (f Family) Valid() bool {
	switch f {
	case FamilyProcessing, FamilySingleAnalysis, FamilyMultiAnalysis,
		FamilyAggregatedAnalysis, FamilyModel, FamilySinglePlot,
		FamilyMultiPlot, FamilyCompositePlot, FamilyAnnotation,
		FamilyReport, FamilyTable, FamilyExport:
		return true
	}
	return false
}

// SystemInfo captures the execution environment a history record or an
// executed recipe was produced in. It is informational and excluded from
// replay comparison.
type SystemInfo struct {
	// Platform is the operating system and architecture, e.g. "linux/amd64".
	Platform string `yaml:"platform"`
	// Hostname of the machine the recipe was cooked on.
	Hostname string `yaml:"hostname"`
	// Username of the operator.
	Username string `yaml:"username"`
	// GoVersion is the runtime version of the engine.
	GoVersion string `yaml:"go_version"`
	// Packages maps operation-providing package names to their versions.
	Packages map[string]string `yaml:"packages"`
}

// CollectSystemInfo gathers platform, host, and operator information for
// provenance records. Lookup failures degrade to empty fields rather than
// erroring; provenance must never block execution.
func CollectSystemInfo(packages map[string]string) SystemInfo {
	info := SystemInfo{
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
		Packages:  maps.Clone(packages),
	}
	if host, err := os.Hostname(); err == nil {
		info.Hostname = host
	}
	if u, err := user.Current(); err == nil {
		info.Username = u.Username
	}
	return info
}

// HistoryRecord describes one executed operation on a dataset. Records
// are created when an operation completes successfully and are immutable
// thereafter; the only permitted removal is an undo of the top record.
type HistoryRecord struct {
	// ID uniquely identifies the record within and across datasets.
	ID string
	// Operation is the concrete operation name, e.g. "BaselineCorrection".
	Operation string
	// Family is the operation's capability family.
	Family Family
	// Version is the semantic version of the operation implementation.
	Version string
	// Parameters is the exact parameter set used, after defaulting and
	// sanitization. For unpacked per-target parameters this holds the
	// per-target scalar, not the declared list.
	Parameters map[string]any
	// Undoable marks records whose effect can be exactly inverted.
	Undoable bool
	// Timestamp is the wall-clock completion time of the operation.
	Timestamp time.Time
	// SystemInfo captures the environment the operation ran in.
	SystemInfo SystemInfo

	// snapshot holds the pre-step data of an undoable processing step.
	// It is engine-internal and never serialized.
	snapshot *Data
}

// NewHistoryRecord creates a record for a completed operation, stamping
// it with a fresh ID and the current wall-clock time.
func NewHistoryRecord(operation string, family Family, version string, params map[string]any, sysInfo SystemInfo) HistoryRecord {
	return HistoryRecord{
		ID:         uuid.NewString(),
		Operation:  operation,
		Family:     family,
		Version:    version,
		Parameters: maps.Clone(params),
		Timestamp:  time.Now(),
		SystemInfo: sysInfo,
	}
}

// WithSnapshot marks the record undoable and attaches the pre-step data
// needed to invert it.
func (r HistoryRecord) WithSnapshot(before Data) HistoryRecord {
	snap := before.Copy()
	r.snapshot = &snap
	r.Undoable = true
	return r
}

// historyLog is an arena-style ordered log of history records. Appending
// is the only general mutation; removal is restricted to the guarded
// PopIfTop used by undo.
type historyLog struct {
	records []HistoryRecord
}

// Append adds a record to the log and returns its ID.
func (l *historyLog) Append(rec HistoryRecord) string {
	l.records = append(l.records, rec)
	return rec.ID
}

// Records returns a copy of the log in append order.
func (l *historyLog) Records() []HistoryRecord {
	return slices.Clone(l.records)
}

// Len returns the number of records in the log.
func (l *historyLog) Len() int { return len(l.records) }

// PopIfTop removes and returns the record with the given ID if and only
// if it is the most recent entry. Any other ID fails with an ordering
// error wrapping ErrNotTopOfHistory, leaving the log unchanged.
func (l *historyLog) PopIfTop(recordID string) (*HistoryRecord, error) {
	if len(l.records) == 0 {
		return nil, fmt.Errorf("history is empty: %w", ErrNotTopOfHistory)
	}
	top := l.records[len(l.records)-1]
	if top.ID != recordID {
		return nil, fmt.Errorf("record %s is not the most recent history entry (top is %s): %w",
			recordID, top.ID, ErrNotTopOfHistory)
	}
	l.records = l.records[:len(l.records)-1]
	return &top, nil
}

func (l *historyLog) copy() historyLog {
	return historyLog{records: slices.Clone(l.records)}
}
