package gamedata

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/skinhistory/internal/model"
)

const (
	// DefaultBaseURL is the root of the mirror.
	DefaultBaseURL = "https://raw.communitydragon.org"

	// DefaultDisplayLocale is the locale shown on the site.
	DefaultDisplayLocale = "zh_cn"

	// MatchLocale is the locale the wiki is written in.
	MatchLocale = "default"

	// PBE is the patch directory of the public beta environment.
	PBE = "pbe"

	// Latest is the patch directory of the live game.
	Latest = "latest"
)

// JSONFetcher decodes a JSON document from a URL.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string, v any) error
}

// Client reads records from the mirror.
type Client struct {
	fetcher       JSONFetcher
	baseURL       string
	displayLocale string
	substitutions map[string]string
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the mirror root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithDisplayLocale sets the locale of the display records.
func WithDisplayLocale(locale string) Option {
	return func(c *Client) {
		if locale != "" {
			c.displayLocale = locale
		}
	}
}

// WithSubstitutions maps lower-cased aliases to the site key to use instead.
func WithSubstitutions(subs map[string]string) Option {
	return func(c *Client) {
		c.substitutions = subs
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client reading through f.
func New(f JSONFetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:       f,
		baseURL:       DefaultBaseURL,
		displayLocale: DefaultDisplayLocale,
		substitutions: map[string]string{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DisplayLocale returns the configured display locale.
func (c *Client) DisplayLocale() string {
	return c.displayLocale
}

// dataURL returns the URL of a game-data plugin file.
func (c *Client) dataURL(patch, locale, file string) string {
	return fmt.Sprintf("%s/%s/plugins/rcp-be-lol-game-data/global/%s/v1/%s", c.baseURL, patch, locale, file)
}

// Metadata returns the content metadata of a patch directory.
func (c *Client) Metadata(ctx context.Context, patch string) (model.Metadata, error) {
	var meta model.Metadata
	url := fmt.Sprintf("%s/%s/content-metadata.json", c.baseURL, patch)
	if err := c.fetcher.FetchJSON(ctx, url, &meta); err != nil {
		return model.Metadata{}, fmt.Errorf("failed to load content metadata: %w", err)
	}
	return meta, nil
}

// Champions returns the playable characters sorted by display name.
// The placeholder entry with id -1 is dropped.
func (c *Client) Champions(ctx context.Context, patch string) ([]model.Character, error) {
	var all []model.Character
	if err := c.fetcher.FetchJSON(ctx, c.dataURL(patch, c.displayLocale, "champion-summary.json"), &all); err != nil {
		return nil, fmt.Errorf("failed to load champions: %w", err)
	}

	champions := slices.DeleteFunc(all, func(ch model.Character) bool { return ch.ID == -1 })
	for i := range champions {
		champions[i].Key = c.substitute(strings.ToLower(champions[i].Alias))
	}
	slices.SortStableFunc(champions, func(a, b model.Character) int { return cmp.Compare(a.Name, b.Name) })

	c.logger.Debug("loaded champions", "patch", patch, "locale", c.displayLocale, "count", len(champions))
	return champions, nil
}

// substitute returns the site key for a lower-cased alias.
func (c *Client) substitute(alias string) string {
	if s, ok := c.substitutions[alias]; ok {
		return s
	}
	return alias
}

// Skins returns the skins of a patch directory in locale. Quest skins are
// expanded so that every tier has its own record.
func (c *Client) Skins(ctx context.Context, patch, locale string) (model.Skins, error) {
	var skins model.Skins
	if err := c.fetcher.FetchJSON(ctx, c.dataURL(patch, locale, "skins.json"), &skins); err != nil {
		return nil, fmt.Errorf("failed to load %s skins: %w", locale, err)
	}
	expandQuestTiers(skins)

	c.logger.Debug("loaded skins", "patch", patch, "locale", locale, "count", len(skins))
	return skins, nil
}

// expandQuestTiers adds one record per quest tier, built from the parent
// skin with the tier's fields laid over it.
func expandQuestTiers(skins model.Skins) {
	parents := make([]model.Skin, 0)
	for _, skin := range skins {
		if skin.QuestSkinInfo != nil {
			parents = append(parents, skin)
		}
	}

	for _, parent := range parents {
		base := parent
		base.QuestSkinInfo = nil
		for _, tier := range parent.QuestSkinInfo.Tiers {
			s := base
			s.ID = tier.ID
			s.Name = tier.Name
			s.Stage = tier.Stage
			s.Description = cmp.Or(tier.Description, s.Description)
			s.SplashPath = cmp.Or(tier.SplashPath, s.SplashPath)
			s.UncenteredSplashPath = cmp.Or(tier.UncenteredSplashPath, s.UncenteredSplashPath)
			s.TilePath = cmp.Or(tier.TilePath, s.TilePath)
			s.LoadScreenPath = cmp.Or(tier.LoadScreenPath, s.LoadScreenPath)
			skins[s.ID.String()] = s
		}
	}
}

// Skinlines returns the skin lines sorted by name, without the id 0 entry.
func (c *Client) Skinlines(ctx context.Context, patch string) ([]model.Skinline, error) {
	var all []model.Skinline
	if err := c.fetcher.FetchJSON(ctx, c.dataURL(patch, c.displayLocale, "skinlines.json"), &all); err != nil {
		return nil, fmt.Errorf("failed to load skinlines: %w", err)
	}
	lines := slices.DeleteFunc(all, func(l model.Skinline) bool { return l.ID == 0 })
	slices.SortStableFunc(lines, func(a, b model.Skinline) int { return cmp.Compare(a.Name, b.Name) })
	return lines, nil
}

// Universes returns the universes sorted by name, without the id 0 entry.
func (c *Client) Universes(ctx context.Context, patch string) ([]model.Universe, error) {
	var all []model.Universe
	if err := c.fetcher.FetchJSON(ctx, c.dataURL(patch, c.displayLocale, "universes.json"), &all); err != nil {
		return nil, fmt.Errorf("failed to load universes: %w", err)
	}
	universes := slices.DeleteFunc(all, func(u model.Universe) bool { return u.ID == 0 })
	slices.SortStableFunc(universes, func(a, b model.Universe) int { return cmp.Compare(a.Name, b.Name) })
	return universes, nil
}

// PatchData loads every record set of a patch directory concurrently.
// The default-locale skins are only loaded when withDefault is set.
func (c *Client) PatchData(ctx context.Context, patch string, withDefault bool) (*model.PatchData, error) {
	data := &model.PatchData{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Champions, err = c.Champions(ctx, patch)
		return err
	})
	g.Go(func() (err error) {
		data.Skinlines, err = c.Skinlines(ctx, patch)
		return err
	})
	g.Go(func() (err error) {
		data.Skins, err = c.Skins(ctx, patch, c.displayLocale)
		return err
	})
	g.Go(func() (err error) {
		data.Universes, err = c.Universes(ctx, patch)
		return err
	})
	if withDefault {
		g.Go(func() (err error) {
			data.SkinsDefault, err = c.Skins(ctx, patch, MatchLocale)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("loaded patch data",
		"patch", patch,
		"champions", len(data.Champions),
		"skins", len(data.Skins),
		"skinlines", len(data.Skinlines),
		"universes", len(data.Universes),
	)
	return data, nil
}

// Added returns the ids present in current but missing from old.
func Added(current, old *model.PatchData) model.Added {
	oldSkins := make(map[string]struct{}, len(old.Skins))
	for id := range old.Skins {
		oldSkins[id] = struct{}{}
	}

	added := model.Added{
		Skins:     make([]string, 0),
		Champions: newIDs(current.Champions, old.Champions, func(c model.Character) int { return c.ID }),
		Skinlines: newIDs(current.Skinlines, old.Skinlines, func(l model.Skinline) int { return l.ID }),
		Universes: newIDs(current.Universes, old.Universes, func(u model.Universe) int { return u.ID }),
	}
	for _, id := range current.Skins.IDs() {
		if _, ok := oldSkins[id]; !ok {
			added.Skins = append(added.Skins, id)
		}
	}
	return added
}

// newIDs returns the ids of current that do not occur in old, in order.
func newIDs[T any](current, old []T, id func(T) int) []int {
	seen := make(map[int]struct{}, len(old))
	for _, v := range old {
		seen[id(v)] = struct{}{}
	}
	out := make([]int, 0)
	for _, v := range current {
		if _, ok := seen[id(v)]; !ok {
			out = append(out, id(v))
		}
	}
	return out
}
