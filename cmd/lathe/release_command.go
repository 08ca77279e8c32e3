package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lathe/internal/history"
	"lathe/internal/pipeline"
)

var errReleaseFailed = errors.New("release pipeline finished with errors")

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	releaseCmd := &cobra.Command{
		Use:   "release",
		Short: "Build and publish a release",
	}

	releaseCmd.AddCommand(newReleaseRunCommand(ctx))
	releaseCmd.AddCommand(newReleasePlanCommand(ctx))

	return releaseCmd
}

func newReleaseRunCommand(ctx *commandContext) *cobra.Command {
	var version string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full release pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(cmd, ctx, pipeline.Request{
				Version: strings.TrimSpace(version),
				DryRun:  dryRun,
			}, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to release (defaults to the configured version)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build artifacts and documentation without publishing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run record as JSON")
	return cmd
}

func newReleasePlanCommand(ctx *commandContext) *cobra.Command {
	var version string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview a release without contacting the release host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(cmd, ctx, pipeline.Request{
				Version: strings.TrimSpace(version),
				DryRun:  true,
			}, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Version to preview (defaults to the configured version)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run record as JSON")
	return cmd
}

func executePipeline(cmd *cobra.Command, ctx *commandContext, req pipeline.Request, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.ensureLogger()

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []pipeline.Option{}
	store, storeErr := history.Open(cfg)
	if storeErr != nil {
		logger.Warn("run history unavailable", "error", storeErr)
	} else {
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}

	orchestrator, err := pipeline.New(cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	run, err := orchestrator.Execute(signalCtx, req)
	if err != nil && run == nil {
		return err
	}
	if run == nil {
		return errors.New("missing run record")
	}

	if jsonOutput {
		if err := writeJSON(cmd, run); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderRunSummary(run, shouldColorize(out)))
	}

	if err != nil {
		return err
	}
	if !run.Success {
		return errReleaseFailed
	}
	return nil
}
