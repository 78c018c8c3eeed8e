package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/skinhistory/internal/patch"
)

// listingPath is the directory listing endpoint under the data URL.
const listingPath = "/json"

// JSONFetcher decodes a JSON document from a URL.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, v any) error
}

// listingEntry is one row of the directory listing.
type listingEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FetchReleases reads the directory listing at dataURL and returns the
// releases named by its "major.minor" directories, newest first. Other
// entries are ignored.
func FetchReleases(ctx context.Context, f JSONFetcher, dataURL string, logger *slog.Logger) (*patch.List, error) {
	if logger == nil {
		logger = slog.Default()
	}

	url := strings.TrimRight(dataURL, "/") + listingPath

	var entries []listingEntry
	if err := f.FetchJSON(ctx, url, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch release listing: %w", err)
	}

	versions := make([]patch.Version, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "directory" {
			continue
		}
		v, err := patch.Parse(entry.Name)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReleases, url)
	}

	list := patch.NewList(versions)
	latest, _ := list.Latest()
	logger.Debug("loaded release list", "releases", list.Len(), "latest", latest)

	return list, nil
}
