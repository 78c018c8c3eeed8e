package detector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/crawler"
	"github.com/nao1215/skinhistory/internal/fetch"
	"github.com/nao1215/skinhistory/internal/history"
	"github.com/nao1215/skinhistory/internal/matcher"
	"github.com/nao1215/skinhistory/internal/model"
	"github.com/nao1215/skinhistory/internal/patch"
)

const (
	// DefaultWikiURL is the patch-history page template. %s is the
	// character alias.
	DefaultWikiURL = "https://leagueoflegends.fandom.com/wiki/%s/LoL/Patch_history?action=render"

	// DefaultDataURL is the root of the game-data mirror whose directory
	// listing names the known releases.
	DefaultDataURL = "https://raw.communitydragon.org"
)

// DefaultMinVersion is the oldest release with reliable history.
var DefaultMinVersion = patch.New(7, 1)

// Fetcher retrieves documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Document, error)
	FetchJSON(ctx context.Context, url string, v any) error
}

// Result is the outcome of one detection run.
type Result struct {
	// Changes maps skin ids to the releases whose art was replaced.
	Changes changes.ChangeMap

	// Releases is the release list used for attribution.
	Releases *patch.List

	// Unresolved lists names that matched no skin and are not ignored.
	Unresolved []model.UnresolvedName

	// Failed lists characters whose page could not be fetched.
	Failed []model.Character

	// Elapsed is the crawl duration.
	Elapsed time.Duration
}

// Detector runs the change detection.
type Detector struct {
	fetcher Fetcher
	matcher *matcher.Matcher
	crawler *crawler.Crawler
	parser  *history.Parser
	wikiURL string
	dataURL string
	floor   patch.Version
	logger  *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithFetcher sets the document fetcher.
func WithFetcher(f Fetcher) Option {
	return func(d *Detector) {
		if f != nil {
			d.fetcher = f
		}
	}
}

// WithMatcher sets the skin matcher, carrying aliases and ignored names.
func WithMatcher(m *matcher.Matcher) Option {
	return func(d *Detector) {
		if m != nil {
			d.matcher = m
		}
	}
}

// WithCrawler sets the crawler, carrying concurrency and progress observer.
func WithCrawler(c *crawler.Crawler) Option {
	return func(d *Detector) {
		if c != nil {
			d.crawler = c
		}
	}
}

// WithWikiURL sets the patch-history page template.
func WithWikiURL(template string) Option {
	return func(d *Detector) {
		if template != "" {
			d.wikiURL = template
		}
	}
}

// WithDataURL sets the game-data root used for the release listing.
func WithDataURL(u string) Option {
	return func(d *Detector) {
		if u != "" {
			d.dataURL = u
		}
	}
}

// WithMinVersion sets the minimum supported version.
func WithMinVersion(v patch.Version) Option {
	return func(d *Detector) {
		d.floor = v
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		wikiURL: DefaultWikiURL,
		dataURL: DefaultDataURL,
		floor:   DefaultMinVersion,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.fetcher == nil {
		d.fetcher = fetch.New(fetch.WithLogger(d.logger))
	}
	if d.matcher == nil {
		d.matcher = matcher.New(matcher.WithLogger(d.logger))
	}
	if d.crawler == nil {
		d.crawler = crawler.New(crawler.WithLogger(d.logger))
	}
	d.parser = history.NewParser(
		history.WithMinVersion(d.floor),
		history.WithParserLogger(d.logger),
	)

	return d
}

// Detect loads the release list and scans every character.
// skinsDefault must be the default-locale skins, which the wiki names follow.
func (d *Detector) Detect(ctx context.Context, characters []model.Character, skinsDefault model.Skins) (*Result, error) {
	releases, err := crawler.FetchReleases(ctx, d.fetcher, d.dataURL, d.logger)
	if err != nil {
		return nil, err
	}
	return d.Scan(ctx, releases, characters, skinsDefault)
}

// Scan runs the detection against a known release list.
func (d *Detector) Scan(ctx context.Context, releases *patch.List, characters []model.Character, skinsDefault model.Skins) (*Result, error) {
	owned := make(map[int][]model.Skin, len(characters))
	for _, skin := range skinsDefault {
		id := skin.ID.Character()
		owned[id] = append(owned[id], skin)
	}

	task := func(ctx context.Context, character model.Character) (crawler.Contribution, error) {
		return d.character(ctx, releases, character, owned[character.ID])
	}

	summary, err := d.crawler.Crawl(ctx, characters, task)
	if err != nil {
		return nil, err
	}

	return &Result{
		Changes:    summary.Partial.Build(),
		Releases:   releases,
		Unresolved: summary.Unresolved,
		Failed:     summary.Failed,
		Elapsed:    summary.Elapsed,
	}, nil
}

// PageURL returns the patch-history URL of character.
func (d *Detector) PageURL(character model.Character) string {
	return fmt.Sprintf(d.wikiURL, url.PathEscape(character.Alias))
}

// character processes one character: fetch, parse, attribute, match.
func (d *Detector) character(ctx context.Context, releases *patch.List, character model.Character, skins []model.Skin) (crawler.Contribution, error) {
	contribution := crawler.Contribution{Partial: changes.NewPartial()}

	doc, err := d.fetcher.Fetch(ctx, d.PageURL(character))
	if err != nil {
		return contribution, err
	}
	if !doc.OK() {
		// the wiki renders some missing pages with a 4xx status; the body is still parsed
		d.logger.Warn("patch history returned client error status",
			"character", character.Name,
			"url", doc.URL,
			"status", doc.StatusCode,
		)
	}

	body, err := doc.Reader()
	if err != nil {
		return contribution, fmt.Errorf("failed to decode patch history of %s: %w", character.Name, err)
	}
	entries, err := d.parser.Parse(body)
	if err != nil {
		return contribution, err
	}

	candidates, skipped := history.Candidates(entries, releases, d.floor)
	for _, err := range skipped {
		d.logger.Warn("skipped release heading", "character", character.Name, "error", err)
	}

	index := d.matcher.Index(character, skins)
	for _, candidate := range candidates {
		skin, outcome := index.Resolve(candidate.Name)
		switch outcome {
		case matcher.Matched:
			contribution.Partial.Add(skin.ID.String(), candidate.Release)
		case matcher.Unresolved:
			contribution.Unresolved = append(contribution.Unresolved, model.UnresolvedName{
				Character: character.Name,
				Name:      candidate.Name,
			})
		case matcher.Ignored:
		}
	}

	d.logger.Debug("processed patch history",
		"character", character.Name,
		"entries", len(entries),
		"candidates", len(candidates),
		"skins", contribution.Partial.Len(),
	)

	return contribution, nil
}
