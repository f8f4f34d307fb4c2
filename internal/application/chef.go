package application

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// EngineVersion is the version of the cooking engine itself, recorded
// in the system info of every executed recipe.
const EngineVersion = "0.3.0"

// ChefState is the execution state of a Chef.
type ChefState string

// Chef states. A chef starts Idle, transitions to Running on Cook, and
// ends in exactly one of Completed or Aborted.
const (
	StateIdle      ChefState = "idle"
	StateRunning   ChefState = "running"
	StateCompleted ChefState = "completed"
	StateAborted   ChefState = "aborted"
)

// Chef executes a recipe against the resolver and the operation
// registry, producing the executed recipe that records exactly what ran.
//
// Execution is single-threaded and strictly sequential: one task
// completes fully, including its history append, before the next
// begins. Targets of a multi-target task are processed in declared
// order. This ordering is a correctness requirement of the
// reproducibility contract, not an implementation convenience.
//
// A Chef cooks exactly one recipe; create a fresh one per cook.
type Chef struct {
	registry  ports.OperationRegistry
	resolver  *Resolver
	observers []ports.TaskObserver
	logger    *slog.Logger
	// packages maps operation-providing package names to versions,
	// recorded in system info for provenance.
	packages map[string]string

	state   ChefState
	sysInfo domain.SystemInfo
}

// ChefOption configures a Chef.
type ChefOption func(*Chef)

// WithObserver attaches a task observer receiving lifecycle
// notifications for every task. Observers never influence execution.
func WithObserver(obs ports.TaskObserver) ChefOption {
	return func(c *Chef) { c.observers = append(c.observers, obs) }
}

// WithLogger sets the logger task progress and aborts are reported to.
func WithLogger(logger *slog.Logger) ChefOption {
	return func(c *Chef) { c.logger = logger }
}

// WithPackageVersions records additional operation-providing packages
// in the system info of executed recipes.
func WithPackageVersions(packages map[string]string) ChefOption {
	return func(c *Chef) { maps.Copy(c.packages, packages) }
}

// NewChef creates an idle chef cooking against the given registry and
// resolver.
func NewChef(registry ports.OperationRegistry, resolver *Resolver, opts ...ChefOption) *Chef {
	c := &Chef{
		registry: registry,
		resolver: resolver,
		logger:   slog.Default(),
		packages: map[string]string{"cook": EngineVersion},
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the chef's current execution state.
func (c *Chef) State() ChefState { return c.state }

// Cook executes the recipe's tasks strictly in declaration order.
//
// On success the chef reaches Completed and the returned recipe is the
// executed history document: the input recipe annotated with execution
// info and system info, re-loadable and re-executable.
//
// A failing task aborts the remaining recipe: the error is logged and
// returned, later tasks do not run, history already applied by
// completed tasks is retained, and a best-effort partial history
// document is still returned for diagnosis.
func (c *Chef) Cook(ctx context.Context, recipe *Recipe) (*Recipe, error) {
	if c.state != StateIdle {
		return nil, fmt.Errorf("chef is %s; a chef cooks exactly one recipe", c.state)
	}

	c.sysInfo = domain.CollectSystemInfo(c.packages)
	start := time.Now()
	c.state = StateRunning

	for _, decl := range recipe.Datasets {
		if err := c.resolver.RegisterDataset(decl); err != nil {
			c.state = StateAborted
			c.finalize(recipe, start)
			return recipe, fmt.Errorf("registering datasets failed: %w", err)
		}
	}

	for i, task := range recipe.Tasks {
		c.logger.Debug("cooking task", "index", i, "kind", task.Kind, "type", task.Type)
		if err := c.executeTask(ctx, recipe, task); err != nil {
			c.logger.Error("task failed, aborting recipe",
				"index", i, "kind", task.Kind, "type", task.Type, "error", err)
			c.state = StateAborted
			c.finalize(recipe, start)
			return recipe, fmt.Errorf("task %d (%s %s) failed: %w", i, task.Kind, task.Type, err)
		}
	}

	c.state = StateCompleted
	c.finalize(recipe, start)
	return recipe, nil
}

// finalize annotates the recipe with execution info and system info,
// turning it into the (possibly partial) history document.
func (c *Chef) finalize(recipe *Recipe, start time.Time) {
	recipe.Info = &ExecutionInfo{Start: start, End: time.Now()}
	sysInfo := c.sysInfo
	recipe.SystemInfo = &sysInfo
	recipe.Format = Format{Type: FormatType, Version: CurrentVersion}
}

// executeTask resolves targets, builds the operation, and invokes it
// with the cardinality of its family.
func (c *Chef) executeTask(ctx context.Context, recipe *Recipe, task Task) (err error) {
	family := task.Family()
	if !family.Valid() {
		return domain.NewParameterError(task.Type, "unknown task kind %q", task.Kind)
	}

	labels := []string(task.ApplyTo)
	if len(labels) == 0 {
		labels = c.resolver.DatasetLabels()
	}
	if len(labels) == 0 && family != domain.FamilyModel {
		return domain.NewParameterError(task.Type, "task has no targets")
	}

	datasets, err := c.resolver.ResolveDatasets(ctx, labels)
	if err != nil {
		return err
	}

	namespaces := c.namespacesFor(recipe, task, labels)
	config := c.operationConfig(recipe, task)

	taskCtx := ctx
	started := time.Now()
	for _, obs := range c.observers {
		taskCtx = obs.TaskStarted(taskCtx, family, task.Type, len(datasets))
	}
	defer func() {
		for _, obs := range c.observers {
			obs.TaskCompleted(taskCtx, family, task.Type, time.Since(started), err)
		}
	}()

	writeHistory := recipe.Settings.WriteHistoryEnabled()

	if family.MultiTarget() {
		return c.cookMultiTarget(taskCtx, task, family, namespaces, config, datasets, writeHistory)
	}
	if family == domain.FamilyModel {
		return c.cookModel(taskCtx, task, namespaces, config, datasets, writeHistory)
	}
	return c.cookPerTarget(taskCtx, task, family, namespaces, config, datasets, writeHistory)
}

// namespacesFor assembles the operation namespace search order for a
// task: explicit task package, packages of the target datasets, then
// the recipe-level default. The builtin namespace is appended by the
// registry itself.
func (c *Chef) namespacesFor(recipe *Recipe, task Task, labels []string) []string {
	var namespaces []string
	if task.Package != "" {
		namespaces = append(namespaces, task.Package)
	}
	for _, label := range labels {
		if pkg := c.resolver.DatasetPackage(label); pkg != "" {
			namespaces = append(namespaces, pkg)
		}
	}
	if recipe.Settings.DefaultPackage != "" {
		namespaces = append(namespaces, recipe.Settings.DefaultPackage)
	}
	return namespaces
}

// operationConfig copies the task properties and injects the engine
// settings artifact-producing operations need.
func (c *Chef) operationConfig(recipe *Recipe, task Task) map[string]any {
	config := make(map[string]any, len(task.Properties)+2)
	maps.Copy(config, task.Properties)
	switch task.Family() {
	case domain.FamilySinglePlot, domain.FamilyMultiPlot, domain.FamilyCompositePlot,
		domain.FamilyReport, domain.FamilyTable, domain.FamilyExport:
		config["output_directory"] = recipe.Directories.Output
		config["autosave_plots"] = recipe.Settings.AutosaveEnabled()
	}
	return config
}

// perTargetConfigs unpacks list-valued per-target parameters into one
// configuration per target. The only unpackable key is "filename":
// a list-valued filename must have exactly one entry per target; each
// target's configuration (and hence its history record) receives the
// unpacked scalar. Any other list-valued key is passed through as is.
func perTargetConfigs(opType string, config map[string]any, targets int) ([]map[string]any, error) {
	filenames, unpack := config["filename"].([]any)
	if !unpack {
		if strs, ok := config["filename"].([]string); ok {
			unpack = true
			filenames = make([]any, len(strs))
			for i, s := range strs {
				filenames[i] = s
			}
		}
	}
	if unpack && len(filenames) != targets {
		return nil, domain.NewParameterError(opType,
			"filename list has %d entries for %d targets", len(filenames), targets)
	}
	configs := make([]map[string]any, targets)
	for i := 0; i < targets; i++ {
		cfg := make(map[string]any, len(config))
		maps.Copy(cfg, config)
		if unpack {
			cfg["filename"] = filenames[i]
		}
		configs[i] = cfg
	}
	return configs, nil
}

// checkResultCardinality enforces that a declared result list of a
// per-target task has exactly one label per target.
func checkResultCardinality(task Task, targets int) error {
	if len(task.Result) > 0 && len(task.Result) != targets {
		return domain.NewParameterError(task.Type,
			"result declares %d labels for %d targets", len(task.Result), targets)
	}
	return nil
}

// cookPerTarget invokes a single-target-cardinality operation once per
// target dataset, in declared order.
func (c *Chef) cookPerTarget(ctx context.Context, task Task, family domain.Family, namespaces []string, config map[string]any, datasets []*domain.Dataset, writeHistory bool) error {
	if err := checkResultCardinality(task, len(datasets)); err != nil {
		return err
	}
	configs, err := perTargetConfigs(task.Type, config, len(datasets))
	if err != nil {
		return err
	}

	for i, ds := range datasets {
		op, err := c.registry.Create(family, task.Type, namespaces, configs[i])
		if err != nil {
			return err
		}
		if err := c.invokeSingle(ctx, task, family, op, ds, i, writeHistory); err != nil {
			return err
		}
	}
	return nil
}

// invokeSingle runs one operation against one dataset and performs the
// family-specific bookkeeping: history append, category log entry, and
// result binding.
func (c *Chef) invokeSingle(ctx context.Context, task Task, family domain.Family, op ports.Operation, ds *domain.Dataset, index int, writeHistory bool) error {
	switch family {
	case domain.FamilyProcessing:
		step, ok := op.(ports.ProcessingStep)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a processing operation", op.Name())
		}
		target := ds
		if len(task.Result) > 0 {
			// A processing task with a result processes a copy and
			// leaves the original untouched.
			target = ds.Copy()
			target.Label = task.Result[index]
		}
		if err := step.Applicable(target); err != nil {
			return err
		}
		var before *domain.Data
		if step.Undoable() {
			b := target.Data.Copy()
			before = &b
		}
		if err := step.Process(ctx, target); err != nil {
			return err
		}
		if writeHistory {
			rec := c.record(op)
			if before != nil {
				rec = rec.WithSnapshot(*before)
			}
			target.AppendHistory(rec)
		}
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], target)
		}

	case domain.FamilySingleAnalysis:
		analysis, ok := op.(ports.SingleAnalysis)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a single-dataset analysis", op.Name())
		}
		result, err := analysis.Analyze(ctx, ds)
		if err != nil {
			return err
		}
		recordID := ""
		if writeHistory {
			recordID = ds.AppendHistory(c.record(op))
		}
		ds.Analyses = append(ds.Analyses, domain.AnalysisRecord{RecordID: recordID, Result: result})
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], result)
		}

	case domain.FamilySinglePlot:
		plotter, ok := op.(ports.SinglePlotter)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a single-dataset plotter", op.Name())
		}
		artifact, err := plotter.Plot(ctx, ds)
		if err != nil {
			return err
		}
		recordID := ""
		if writeHistory {
			recordID = ds.AppendHistory(c.record(op))
		}
		ds.Representations = append(ds.Representations, domain.Representation{RecordID: recordID, Filename: artifact.Filename})
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], artifact)
		}

	case domain.FamilyAnnotation:
		annotator, ok := op.(ports.Annotator)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not an annotation operation", op.Name())
		}
		annotation, err := annotator.Annotate(ctx, ds)
		if err != nil {
			return err
		}
		if writeHistory {
			annotation.RecordID = ds.AppendHistory(c.record(op))
		}
		ds.Annotations = append(ds.Annotations, annotation)

	case domain.FamilyReport:
		reporter, ok := op.(ports.Reporter)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a report operation", op.Name())
		}
		artifact, err := reporter.Report(ctx, ds)
		if err != nil {
			return err
		}
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], artifact)
		}

	case domain.FamilyTable:
		tabulator, ok := op.(ports.Tabulator)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a table operation", op.Name())
		}
		artifact, err := tabulator.Tabulate(ctx, ds)
		if err != nil {
			return err
		}
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], artifact)
		}

	case domain.FamilyExport:
		exporter, ok := op.(ports.Exporter)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not an export operation", op.Name())
		}
		artifact, err := exporter.Export(ctx, ds)
		if err != nil {
			return err
		}
		if writeHistory {
			ds.AppendHistory(c.record(op))
		}
		if len(task.Result) > 0 {
			c.resolver.RegisterResult(task.Result[index], artifact)
		}

	default:
		return domain.NewParameterError(op.Name(), "kind %s cannot be invoked per target", family)
	}
	return nil
}

// cookMultiTarget invokes a multi-target operation exactly once with
// the full resolved dataset list, preserving declared order.
func (c *Chef) cookMultiTarget(ctx context.Context, task Task, family domain.Family, namespaces []string, config map[string]any, datasets []*domain.Dataset, writeHistory bool) error {
	if len(task.Result) > 1 {
		return domain.NewParameterError(task.Type,
			"a %s task produces one result but %d labels are declared", family, len(task.Result))
	}

	op, err := c.registry.Create(family, task.Type, namespaces, config)
	if err != nil {
		return err
	}

	var (
		result   any
		artifact *ports.Artifact
	)
	switch family {
	case domain.FamilyMultiAnalysis:
		analysis, ok := op.(ports.MultiAnalysis)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a multi-dataset analysis", op.Name())
		}
		if result, err = analysis.AnalyzeMulti(ctx, datasets); err != nil {
			return err
		}
	case domain.FamilyAggregatedAnalysis:
		analysis, ok := op.(ports.AggregatedAnalysis)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not an aggregated analysis", op.Name())
		}
		if result, err = analysis.Aggregate(ctx, datasets); err != nil {
			return err
		}
	case domain.FamilyMultiPlot:
		plotter, ok := op.(ports.MultiPlotter)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a multi-dataset plotter", op.Name())
		}
		a, err := plotter.PlotMulti(ctx, datasets)
		if err != nil {
			return err
		}
		artifact = &a
	case domain.FamilyCompositePlot:
		plotter, ok := op.(ports.CompositePlotter)
		if !ok {
			return domain.NewParameterError(op.Name(), "%q is not a composite plotter", op.Name())
		}
		a, err := plotter.PlotComposite(ctx, datasets)
		if err != nil {
			return err
		}
		artifact = &a
	}

	// Every analyzed or plotted dataset receives the history record.
	for _, ds := range datasets {
		recordID := ""
		if writeHistory {
			recordID = ds.AppendHistory(c.record(op))
		}
		switch {
		case artifact != nil:
			ds.Representations = append(ds.Representations, domain.Representation{RecordID: recordID, Filename: artifact.Filename})
		default:
			ds.Analyses = append(ds.Analyses, domain.AnalysisRecord{RecordID: recordID, Result: result})
		}
	}

	if len(task.Result) == 1 {
		if artifact != nil {
			c.resolver.RegisterResult(task.Result[0], *artifact)
		} else {
			c.resolver.RegisterResult(task.Result[0], result)
		}
	}
	return nil
}

// cookModel evaluates a model into a calculated dataset and binds it to
// the task's result label. Models require exactly one result label;
// without one the calculated dataset would be unreachable.
func (c *Chef) cookModel(ctx context.Context, task Task, namespaces []string, config map[string]any, datasets []*domain.Dataset, writeHistory bool) error {
	if len(task.Result) != 1 {
		return domain.NewParameterError(task.Type,
			"a model task requires exactly one result label, got %d", len(task.Result))
	}

	op, err := c.registry.Create(domain.FamilyModel, task.Type, namespaces, config)
	if err != nil {
		return err
	}
	model, ok := op.(ports.Model)
	if !ok {
		return domain.NewParameterError(op.Name(), "%q is not a model operation", op.Name())
	}

	var template *domain.Dataset
	if len(datasets) > 0 {
		template = datasets[0]
	}
	ds, err := model.Evaluate(ctx, template)
	if err != nil {
		return err
	}
	ds.Calculated = true
	ds.Label = task.Result[0]
	if ds.ID == "" {
		ds.ID = fmt.Sprintf("calculated/%s/%s", op.Name(), task.Result[0])
	}
	if writeHistory {
		ds.AppendHistory(c.record(op))
	}
	c.resolver.RegisterResult(task.Result[0], ds)
	return nil
}

// record builds the history record for a completed operation.
func (c *Chef) record(op ports.Operation) domain.HistoryRecord {
	return domain.NewHistoryRecord(op.Name(), op.Family(), op.Version(), op.Parameters(), c.sysInfo)
}
