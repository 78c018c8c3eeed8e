package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"

	"github.com/nao1215/skinhistory/internal/crawler"
	"github.com/nao1215/skinhistory/internal/detector"
	"github.com/nao1215/skinhistory/internal/fetch"
	"github.com/nao1215/skinhistory/internal/gamedata"
	"github.com/nao1215/skinhistory/internal/patch"
	"github.com/nao1215/skinhistory/internal/pipeline"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "skinhistory"

	// DefaultMinSupportedVersion is the oldest release with usable history.
	DefaultMinSupportedVersion = "7.1"
)

// Config holds all configuration options for skinhistory.
// It is populated from defaults, the config file, environment variables
// and CLI flags, in that order, and passed down explicitly.
type Config struct {
	// DataURL is the root of the game-data mirror.
	DataURL string `env:"SKINHISTORY_DATA_URL"`

	// WikiURLTemplate is the patch-history page URL; %s is the character alias.
	WikiURLTemplate string

	// DisplayLocale is the locale of the skin data shown on the site.
	DisplayLocale string

	// Patch is the feed directory the metadata and patch data are read from.
	Patch string

	// Timeout bounds a single fetch attempt.
	Timeout time.Duration

	// Retries is the total number of attempts per URL.
	Retries int

	// RetryDelay is the wait between attempts.
	RetryDelay time.Duration

	// Concurrency bounds how many characters are processed at once.
	Concurrency int `env:"SKINHISTORY_CONCURRENCY"`

	// MinSupportedVersion is the oldest release heading that is kept.
	MinSupportedVersion string

	// ScrapeInterval is the minimum time between two skin-change crawls.
	ScrapeInterval time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// DBDir is the directory of the cache database.
	// Defaults to the XDG data directory (~/.local/share/skinhistory on Linux).
	DBDir string `env:"SKINHISTORY_DB_DIR"`

	// DeployHook is the URL posted to when the site needs a rebuild.
	// Empty disables the deploy step.
	DeployHook string `env:"DEPLOY_HOOK"`

	// Aliases map wiki names to the skin name they stand for.
	Aliases map[string]string

	// IgnoredWarnings are wiki names that are expected not to match.
	IgnoredWarnings []string

	// Substitutions map lower-cased character aliases to their site key.
	Substitutions map[string]string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit path of the config file, if any.
	ConfigFilePath string

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile is the output file path; empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DataURL:             gamedata.DefaultBaseURL,
		WikiURLTemplate:     detector.DefaultWikiURL,
		DisplayLocale:       gamedata.DefaultDisplayLocale,
		Patch:               gamedata.PBE,
		Timeout:             fetch.DefaultTimeout,
		Retries:             fetch.DefaultRetries,
		RetryDelay:          fetch.DefaultRetryDelay,
		Concurrency:         crawler.DefaultConcurrency,
		MinSupportedVersion: DefaultMinSupportedVersion,
		ScrapeInterval:      pipeline.DefaultScrapeInterval,
		UserAgent:           fetch.DefaultUserAgent,
		MaxBodySize:         fetch.DefaultMaxBodySize,
		DBDir:               XDGDataDir(),
		Aliases:             map[string]string{},
		Substitutions:       map[string]string{},
	}
}

// ParseEnv applies environment overrides to c. Variables that are not set
// leave the current value untouched.
func (c *Config) ParseEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyFile merges the config file into c. Zero values in the file keep
// the current setting.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if len(f.Aliases) > 0 {
		if c.Aliases == nil {
			c.Aliases = make(map[string]string, len(f.Aliases))
		}
		for k, v := range f.Aliases {
			c.Aliases[k] = v
		}
	}
	if len(f.Substitutions) > 0 {
		if c.Substitutions == nil {
			c.Substitutions = make(map[string]string, len(f.Substitutions))
		}
		for k, v := range f.Substitutions {
			c.Substitutions[strings.ToLower(k)] = v
		}
	}
	c.IgnoredWarnings = append(c.IgnoredWarnings, f.IgnoredWarnings...)
	if f.MinSupportedVersion != "" {
		c.MinSupportedVersion = f.MinSupportedVersion
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.Retries != 0 {
		c.Retries = f.Retries
	}
	if f.DeployHook != "" {
		c.DeployHook = f.DeployHook
	}
}

// MinVersion returns MinSupportedVersion parsed. Call Validate first.
func (c *Config) MinVersion() patch.Version {
	v, err := patch.Parse(c.MinSupportedVersion)
	if err != nil {
		return detector.DefaultMinVersion
	}
	return v
}

// XDGDataDir returns the XDG data directory for skinhistory.
// On Linux: ~/.local/share/skinhistory
// On macOS: ~/Library/Application Support/skinhistory
// On Windows: %LOCALAPPDATA%\skinhistory
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for skinhistory.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retries < 1 {
		return ErrInvalidRetries
	}
	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if _, err := patch.Parse(c.MinSupportedVersion); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMinVersion, c.MinSupportedVersion)
	}
	if !isHTTPURL(c.DataURL) {
		return ErrInvalidDataURL
	}
	if strings.Count(c.WikiURLTemplate, "%s") != 1 || !isHTTPURL(fmt.Sprintf(c.WikiURLTemplate, "x")) {
		return ErrInvalidWikiURL
	}
	if c.ScrapeInterval < 0 {
		return ErrInvalidScrapeInterval
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
