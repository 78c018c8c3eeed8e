package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/skinhistory/internal/config"
	"github.com/nao1215/skinhistory/internal/crawler"
	"github.com/nao1215/skinhistory/internal/database"
	"github.com/nao1215/skinhistory/internal/deploy"
	"github.com/nao1215/skinhistory/internal/detector"
	"github.com/nao1215/skinhistory/internal/fetch"
	"github.com/nao1215/skinhistory/internal/gamedata"
	"github.com/nao1215/skinhistory/internal/matcher"
	"github.com/nao1215/skinhistory/internal/model"
	"github.com/nao1215/skinhistory/internal/pipeline"
	"github.com/nao1215/skinhistory/internal/report"
)

// scrapeOptions are the scrape flags that are not part of the config.
type scrapeOptions struct {
	force  bool
	dryRun bool
}

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Refresh game data and detect skin art changes",
		Long: `Scrape runs one update of the skin history.

It performs, in order:
- Game data: when the feed version changed, reload champions, skins,
  skin lines and universes, and record what is new
- Skin changes: unless scraped within the scrape interval, crawl every
  champion's patch-history page and rebuild the change map
- Deploy: when anything changed and DEPLOY_HOOK is set, request a rebuild

Examples:
  # Regular run
  skinhistory scrape

  # Crawl even if the last crawl was recent
  skinhistory scrape --force

  # Show what would change without writing anything
  skinhistory scrape --dry-run --markdown

  # Write the run report as JSON
  skinhistory scrape --json -o report.json`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().BoolP("force", "F", false,
		"Crawl skin changes even within the scrape interval")
	cmd.Flags().BoolP("dry-run", "n", false,
		"Do not write to the database or call the deploy hook")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", fetch.DefaultTimeout,
		"Timeout for each request attempt")
	cmd.Flags().IntP("retries", "r", fetch.DefaultRetries,
		"Attempts per request, including the first")
	cmd.Flags().IntP("concurrency", "C", crawler.DefaultConcurrency,
		"Number of characters processed at once")
	cmd.Flags().Duration("interval", pipeline.DefaultScrapeInterval,
		"Minimum time between two skin-change crawls")
	cmd.Flags().String("patch", gamedata.PBE,
		"Feed patch directory to read")
	cmd.Flags().String("data-url", "",
		"Game-data mirror root (default: "+gamedata.DefaultBaseURL+")")
	cmd.Flags().String("wiki-url", "",
		"Patch-history page URL template, %s is the character alias")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, opts, err := buildScrapeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScrape(ctx, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildScrapeConfig creates a Config from the loaded configuration and
// the scrape flags. Flags only override when set explicitly.
func buildScrapeConfig(cmd *cobra.Command) (*config.Config, scrapeOptions, error) {
	var opts scrapeOptions

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, opts, err
	}

	flags := cmd.Flags()
	if opts.force, err = flags.GetBool("force"); err != nil {
		return nil, opts, err
	}
	if opts.dryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, opts, err
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("retries") {
		if cfg.Retries, err = flags.GetInt("retries"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("interval") {
		if cfg.ScrapeInterval, err = flags.GetDuration("interval"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("patch") {
		if cfg.Patch, err = flags.GetString("patch"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("data-url") {
		if cfg.DataURL, err = flags.GetString("data-url"); err != nil {
			return nil, opts, err
		}
	}
	if flags.Changed("wiki-url") {
		if cfg.WikiURLTemplate, err = flags.GetString("wiki-url"); err != nil {
			return nil, opts, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, opts, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, opts, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, opts, err
	}

	return cfg, opts, nil
}

// runScrape wires the components and runs the scrape pipeline once.
// The report is written even when a step failed; the step error is returned.
func runScrape(ctx context.Context, cfg *config.Config, opts scrapeOptions, out, progress io.Writer, logger *slog.Logger) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Debug("database opened", "path", store.Path())

	fetcher := fetch.New(
		fetch.WithRetries(cfg.Retries),
		fetch.WithRetryDelay(cfg.RetryDelay),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)

	data := gamedata.New(fetcher,
		gamedata.WithBaseURL(cfg.DataURL),
		gamedata.WithDisplayLocale(cfg.DisplayLocale),
		gamedata.WithSubstitutions(cfg.Substitutions),
		gamedata.WithLogger(logger),
	)

	d := detector.New(
		detector.WithFetcher(fetcher),
		detector.WithMatcher(matcher.New(
			matcher.WithAliases(cfg.Aliases),
			matcher.WithIgnored(cfg.IgnoredWarnings),
			matcher.WithLogger(logger),
		)),
		detector.WithCrawler(crawler.New(
			crawler.WithConcurrency(cfg.Concurrency),
			crawler.WithObserver(progressObserver(progress)),
			crawler.WithLogger(logger),
		)),
		detector.WithWikiURL(cfg.WikiURLTemplate),
		detector.WithDataURL(cfg.DataURL),
		detector.WithMinVersion(cfg.MinVersion()),
		detector.WithLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewMetadataStep(data, store,
			pipeline.WithMetadataPatch(cfg.Patch),
			pipeline.WithMetadataDryRun(opts.dryRun),
			pipeline.WithMetadataLogger(logger),
		),
		pipeline.NewSkinChangesStep(data, store, d,
			pipeline.WithSkinChangesPatch(cfg.Patch),
			pipeline.WithScrapeInterval(cfg.ScrapeInterval),
			pipeline.WithForce(opts.force),
			pipeline.WithSkinChangesDryRun(opts.dryRun),
			pipeline.WithSkinChangesLogger(logger),
		),
		pipeline.NewDeployStep(deploy.New(cfg.DeployHook, deploy.WithLogger(logger)),
			pipeline.WithDeployDryRun(opts.dryRun),
			pipeline.WithDeployLogger(logger),
		),
	)

	runReport := model.NewRunReport()
	runErr := p.Execute(ctx, runReport)

	if err := outputRunReport(cfg, runReport, out); err != nil {
		logger.Error("report failed", "error", err)
		if runErr == nil {
			return err
		}
	}
	return runErr
}

// progressObserver prints one line per finished character.
func progressObserver(w io.Writer) crawler.Observer {
	return func(r crawler.Result) {
		status := "done"
		if r.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(w, "(%d/%d) %s %s\n", r.Completed, r.Total, r.Character.Name, status)
	}
}

// outputRunReport writes the run report in the requested format.
func outputRunReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) (err error) {
	output, closeFn, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := newWriter(cfg, output)
	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.MarkdownReport) {
		// Keep a console summary when the structured report goes to a file.
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
	}
	_, err = w.WriteRun(runReport)
	return err
}

// newWriter returns the report writer for the configured format.
func newWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput returns the report destination: path when set, else stdout.
// The returned close function reports errors from closing the file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
		return nil
	}, nil
}
