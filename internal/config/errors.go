package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidTimeout is returned when the per-attempt timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when fewer than one attempt is configured.
	ErrInvalidRetries = errors.New("invalid retries: must be at least 1")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidConcurrency is returned when the crawler concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMinVersion is returned when the minimum supported version
	// is not a "major.minor" release.
	ErrInvalidMinVersion = errors.New("invalid minimum supported version")

	// ErrInvalidDataURL is returned when the game-data URL is not an absolute http(s) URL.
	ErrInvalidDataURL = errors.New("invalid data URL: must be an absolute http(s) URL")

	// ErrInvalidWikiURL is returned when the wiki template lacks a single %s.
	ErrInvalidWikiURL = errors.New("invalid wiki URL template: must contain exactly one %s")

	// ErrInvalidScrapeInterval is returned when the scrape interval is negative.
	ErrInvalidScrapeInterval = errors.New("invalid scrape interval: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
