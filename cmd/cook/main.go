// Command cook executes declarative data-processing recipes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reprokit/cook/infrastructure/importers"
	"github.com/reprokit/cook/infrastructure/middleware"
	"github.com/reprokit/cook/infrastructure/operations"
	"github.com/reprokit/cook/infrastructure/rendering"
	"github.com/reprokit/cook/internal/application"
)

type rootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cook",
		Short: "Reproducible recipe execution for scientific data",
		Long: "Cook loads a declarative recipe, imports the datasets it names,\n" +
			"runs its tasks in order, and writes a replayable history recipe\n" +
			"alongside the outputs.",
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <recipe.yaml>",
		Short: "Execute a recipe and write its history",
		Long: `Execute every task of a recipe in declaration order.

On success the executed recipe, including system information and full
parameter history, is written next to the recipe outputs so the run can
be reproduced later.

Example:
  cook serve experiment.yaml
  cook serve experiment.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts, args[0])
		},
	}
	return cmd
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <recipe.yaml>",
		Short: "Check a recipe without executing it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(opts.Verbose)
			loader, err := application.NewRecipeLoader()
			if err != nil {
				return err
			}
			if _, err := loader.LoadFromFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipe %s is valid\n", args[0])
			return nil
		},
	}
	return cmd
}

func serve(opts *rootOptions, recipePath string) error {
	logger := configureLogging(opts.Verbose)

	loader, err := application.NewRecipeLoader()
	if err != nil {
		return err
	}
	recipe, err := loader.LoadFromFile(recipePath)
	if err != nil {
		return fmt.Errorf("loading recipe %s: %w", recipePath, err)
	}

	sourceDir := recipe.Directories.DatasetsSource
	if sourceDir == "" {
		sourceDir = filepath.Dir(recipePath)
	}

	resolver := application.NewResolver(importers.NewImporterFactory(), sourceDir, logger)

	registry := application.NewOperationRegistry()
	if err := operations.RegisterBuiltins(registry, rendering.NewSVGRenderer()); err != nil {
		return fmt.Errorf("registering operations: %w", err)
	}

	chef := application.NewChef(registry, resolver,
		application.WithLogger(logger),
		application.WithObserver(middleware.NewPrometheusTaskMetrics(nil)),
		application.WithObserver(middleware.NewTracingObserver()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executed, err := chef.Cook(ctx, recipe)
	if err != nil {
		return err
	}

	if executed.Settings.WriteHistoryEnabled() {
		historyPath := historyPathFor(recipePath, executed.Directories.Output)
		data, serr := executed.Serialize()
		if serr != nil {
			return fmt.Errorf("serializing history: %w", serr)
		}
		if werr := os.WriteFile(historyPath, data, 0o644); werr != nil {
			return fmt.Errorf("writing history: %w", werr)
		}
		logger.Info("history written", "path", historyPath)
	}
	return nil
}

// historyPathFor places the executed recipe next to the run outputs,
// named after the input recipe.
func historyPathFor(recipePath, outputDir string) string {
	base := filepath.Base(recipePath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)] + "_history.yaml"
	if outputDir == "" {
		return filepath.Join(filepath.Dir(recipePath), name)
	}
	return filepath.Join(outputDir, name)
}

func configureLogging(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
