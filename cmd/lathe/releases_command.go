package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lathe/internal/history"
	"lathe/internal/publish"
)

func newReleasesCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "List published releases or local run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				return listLocalRuns(cmd, ctx, limit, jsonOutput)
			}
			return listRemoteReleases(cmd, ctx, limit, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Show the local run journal instead of the release host")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")
	return cmd
}

func listRemoteReleases(cmd *cobra.Command, ctx *commandContext, limit int, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	client, err := publish.New(cfg, ctx.ensureLogger())
	if err != nil {
		return err
	}

	releases, err := client.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd, releases)
	}

	out := cmd.OutOrStdout()
	if len(releases) == 0 {
		fmt.Fprintln(out, "No releases found")
		return nil
	}

	rows := make([][]string, 0, len(releases))
	for _, release := range releases {
		rows = append(rows, []string{
			release.Tag,
			release.Name,
			yesNo(release.Draft),
			release.CreatedAt,
			release.HTMLURL,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Tag", "Name", "Draft", "Created", "URL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func listLocalRuns(cmd *cobra.Command, ctx *commandContext, limit int, jsonOutput bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd, runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortRunID(run.ID),
			run.Version,
			yesNo(run.DryRun),
			yesNo(run.Success),
			strconv.Itoa(len(run.Errors)),
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Run", "Version", "Dry Run", "Success", "Errors", "Started", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
	return nil
}

func shortRunID(id string) string {
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}
