package operations

import (
	"fmt"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// RegisterBuiltins registers the framework's builtin operations with
// the registry, injecting the renderer into plot configurations the way
// the chef expects. The builtin namespace is searched last, so external
// packages can shadow builtin types under their own namespace.
func RegisterBuiltins(registry ports.OperationRegistry, renderer ports.PlotRenderer) error {
	builtins := []struct {
		family  domain.Family
		opType  string
		factory ports.OperationFactory
	}{
		{domain.FamilyProcessing, "BaselineCorrection", NewBaselineCorrection},
		{domain.FamilyProcessing, "Normalisation", NewNormalisation},
		{domain.FamilyProcessing, "ScalarAlgebra", NewScalarAlgebra},
		{domain.FamilyProcessing, "Averaging", NewAveraging},
		{domain.FamilySingleAnalysis, "BasicCharacteristics", NewBasicCharacteristics},
		{domain.FamilySingleAnalysis, "PeakFinding", NewPeakFinding},
		{domain.FamilyMultiAnalysis, "CommonRange", NewCommonRange},
		{domain.FamilyAggregatedAnalysis, "AggregatedStatistics", NewAggregatedStatistics},
		{domain.FamilyModel, "PolynomialModel", NewPolynomialModel},
		{domain.FamilySinglePlot, "SinglePlotter1D", withRenderer(NewSinglePlotter1D, renderer)},
		{domain.FamilyMultiPlot, "MultiPlotter1D", withRenderer(NewMultiPlotter1D, renderer)},
		{domain.FamilyCompositePlot, "CompositePlotter", withRenderer(NewCompositePlotter, renderer)},
		{domain.FamilyAnnotation, "CommentAnnotation", NewCommentAnnotation},
		{domain.FamilyAnnotation, "HighlightAnnotation", NewHighlightAnnotation},
		{domain.FamilyReport, "TextReporter", NewTextReporter},
		{domain.FamilyTable, "DataTable", NewDataTable},
		{domain.FamilyExport, "TxtExporter", NewTxtExporter},
	}

	for _, b := range builtins {
		if err := registry.Register("", b.family, b.opType, b.factory); err != nil {
			return fmt.Errorf("failed to register %s/%s: %w", b.family, b.opType, err)
		}
	}
	return nil
}

// withRenderer injects the renderer into the configuration before the
// factory runs.
func withRenderer(factory ports.OperationFactory, renderer ports.PlotRenderer) ports.OperationFactory {
	return func(config map[string]any) (ports.Operation, error) {
		config["renderer"] = renderer
		return factory(config)
	}
}
