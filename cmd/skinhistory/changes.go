package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/config"
	"github.com/nao1215/skinhistory/internal/database"
	"github.com/nao1215/skinhistory/internal/model"
	"github.com/nao1215/skinhistory/internal/report"
)

// defaultHistoryLimit is the number of runs listed by --history.
const defaultHistoryLimit = 10

// changesOptions are the changes command flags.
type changesOptions struct {
	skinIDs []string
	history bool
	limit   int
	diff    bool
	against int64
}

// NewChangesCmd creates the changes command.
// It shows the stored change map and, on request, its recorded history.
func NewChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes [skin-id...]",
		Short: "Show recorded skin art changes",
		Long: `Changes prints the stored change map: for each skin, the releases in
which its art was replaced. Every scrape that changed the map is recorded
as a run, which --history lists and --diff compares.

Examples:
  # All recorded changes
  skinhistory changes

  # Changes of two skins
  skinhistory changes 1001 103015

  # Recorded runs, newest first
  skinhistory changes --history

  # What the latest run changed
  skinhistory changes --diff

  # Compare the latest run with run 3, as Markdown
  skinhistory changes --diff --against 3 --markdown`,
		Args: cobra.ArbitraryArgs,
		RunE: runChangesCmd,
	}

	cmd.Flags().BoolP("history", "H", false,
		"List recorded runs")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Number of runs listed by --history")
	cmd.Flags().BoolP("diff", "d", false,
		"Show the difference between the latest run and the one before")
	cmd.Flags().Int64P("against", "a", 0,
		"Run ID to diff against instead of the previous run")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path")

	return cmd
}

// runChangesCmd executes the changes command.
func runChangesCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := changesOptions{skinIDs: args}
	flags := cmd.Flags()
	if opts.history, err = flags.GetBool("history"); err != nil {
		return err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return err
	}
	if opts.against, err = flags.GetInt64("against"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	if opts.against != 0 && !opts.diff {
		return errors.New("--against requires --diff")
	}

	logger := setupLogger(cmd, cfg.Verbose)

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	set, err := buildChangeSet(cmd.Context(), store, opts, logger)
	if err != nil {
		return err
	}

	output, closeFn, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if _, err := newWriter(cfg, output).WriteChanges(set); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

// buildChangeSet reads what the changes command shows from the store.
func buildChangeSet(ctx context.Context, store *database.Store, opts changesOptions, logger *slog.Logger) (*report.ChangeSet, error) {
	current, err := store.Changes(ctx)
	if err != nil {
		return nil, err
	}

	set := &report.ChangeSet{
		Changes: filterChanges(current, opts.skinIDs),
		Names:   make(map[string]string),
	}

	var skins model.Skins
	if _, err := store.Get(ctx, database.KeySkins, &skins); err != nil {
		return nil, err
	}
	for id := range set.Changes {
		if skin, ok := skins[id]; ok {
			set.Names[id] = skin.Name
		}
	}
	for _, id := range opts.skinIDs {
		if _, ok := set.Changes[id]; !ok {
			logger.Warn("no changes recorded for skin", "skin_id", id)
		}
	}

	if opts.history {
		runs, err := store.ChangeRuns(ctx, opts.limit)
		if err != nil {
			return nil, err
		}
		set.History = runs
	}

	if opts.diff {
		if err := addDiff(ctx, store, set, opts); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// addDiff compares the latest run with the previous one, or with the run
// named by --against.
func addDiff(ctx context.Context, store *database.Store, set *report.ChangeSet, opts changesOptions) error {
	runs, err := store.ChangeRuns(ctx, 2)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return errors.New("no runs recorded yet: run 'skinhistory scrape' first")
	}
	latest := runs[0]

	var base *database.ChangeRun
	switch {
	case opts.against != 0:
		base, err = store.ChangeRunByID(ctx, opts.against)
		if err != nil {
			return err
		}
	case len(runs) > 1:
		base = &runs[1]
	default:
		base = &database.ChangeRun{Changes: changes.ChangeMap{}}
	}

	old := filterChanges(base.Changes, opts.skinIDs)
	current := filterChanges(latest.Changes, opts.skinIDs)

	delta := changes.Diff(old, current)
	set.Delta = &delta
	set.Diff, err = report.UnifiedDiff(old, current, runLabel(base), runLabel(&latest))
	return err
}

// runLabel names a run in diff headers.
func runLabel(run *database.ChangeRun) string {
	if run.ID == 0 {
		return "empty"
	}
	return fmt.Sprintf("run %d (%s)", run.ID, run.Timestamp.Format("2006-01-02 15:04:05"))
}

// filterChanges keeps the given skins, or all of m when ids is empty.
func filterChanges(m changes.ChangeMap, ids []string) changes.ChangeMap {
	if len(ids) == 0 {
		return m
	}
	out := make(changes.ChangeMap, len(ids))
	for _, id := range ids {
		if releases, ok := m[id]; ok {
			out[id] = releases
		}
	}
	return out
}

