package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/model"
)

// DefaultConcurrency caps the number of tasks in flight.
const DefaultConcurrency = 10

// Contribution is what one character adds to the crawl.
type Contribution struct {
	// Partial holds the skin releases found for the character.
	Partial *changes.Partial

	// Unresolved lists names no skin could be found for.
	Unresolved []model.UnresolvedName
}

// Task processes one character end to end and returns its contribution.
type Task func(ctx context.Context, character model.Character) (Contribution, error)

// Result describes one finished task.
type Result struct {
	// Character is the processed character.
	Character model.Character

	// Contribution is the task's result. It is empty when Err is set.
	Contribution Contribution

	// Err is the task's failure, if any.
	Err error

	// Completed is the number of finished tasks including this one.
	Completed int

	// Total is the number of characters in the crawl.
	Total int
}

// Observer is notified once per finished task, in completion order.
type Observer func(Result)

// Summary is the outcome of a crawl.
type Summary struct {
	// Partial is the union of all task contributions.
	Partial *changes.Partial

	// Completed counts finished tasks, failed ones included.
	Completed int

	// Failed lists characters whose task returned an error.
	Failed []model.Character

	// Unresolved collects the unresolved names of all characters.
	Unresolved []model.UnresolvedName

	// Elapsed is the wall time of the crawl.
	Elapsed time.Duration
}

// Crawler fans tasks out over characters.
type Crawler struct {
	concurrency int
	observer    Observer
	logger      *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the maximum number of tasks in flight.
// Values below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithObserver sets a callback for finished tasks.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler.
func New(opts ...Option) *Crawler {
	c := &Crawler{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl runs task for every character and returns the merged result.
//
// Task errors are logged and swallowed. If ctx is cancelled, Crawl stops
// launching tasks, waits for running ones and returns the summary of the
// tasks that finished together with the context error.
func (c *Crawler) Crawl(ctx context.Context, characters []model.Character, task Task) (*Summary, error) {
	c.logger.Info("starting crawl",
		"characters", len(characters),
		"concurrency", c.concurrency,
	)
	startTime := time.Now()

	results := make(chan Result, len(characters))
	summary := &Summary{Partial: changes.NewPartial()}
	folded := make(chan struct{})

	go func() {
		defer close(folded)
		for r := range results {
			summary.Completed++
			r.Completed = summary.Completed
			r.Total = len(characters)
			if r.Err != nil {
				summary.Failed = append(summary.Failed, r.Character)
			} else {
				summary.Partial.Merge(r.Contribution.Partial)
				summary.Unresolved = append(summary.Unresolved, r.Contribution.Unresolved...)
			}
			if c.observer != nil {
				c.observer(r)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, character := range characters {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			contribution, err := task(gctx, character)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("character failed",
					"character", character.Name,
					"alias", character.Alias,
					"error", err,
				)
				results <- Result{Character: character, Contribution: Contribution{Partial: changes.NewPartial()}, Err: err}
				return nil
			}
			if contribution.Partial == nil {
				contribution.Partial = changes.NewPartial()
			}
			results <- Result{Character: character, Contribution: contribution}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	<-folded

	summary.Elapsed = time.Since(startTime)
	if err == nil {
		err = ctx.Err()
	}

	c.logger.Info("crawl complete",
		"characters", len(characters),
		"completed", summary.Completed,
		"failed", len(summary.Failed),
		"elapsed", summary.Elapsed,
	)

	return summary, err
}
