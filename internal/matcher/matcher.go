package matcher

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/nao1215/skinhistory/internal/model"
)

// basePrefix is prepended to base skin names on the wiki.
const basePrefix = "Original "

// Outcome is the result of resolving one name.
type Outcome int

const (
	// Matched means a skin was found.
	Matched Outcome = iota
	// Ignored means no skin was found and the name is known noise.
	Ignored
	// Unresolved means no skin was found and a diagnostic was emitted.
	Unresolved
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Ignored:
		return "ignored"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Matcher holds the configuration shared by every per-character Index.
// It is safe for concurrent use.
type Matcher struct {
	aliases   map[string]string
	ignored   map[string]struct{}
	scorer    Scorer
	threshold float64
	logger    *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithAliases sets the alias table. Keys are exact wiki names, values are
// the names to look up instead.
func WithAliases(aliases map[string]string) Option {
	return func(m *Matcher) {
		m.aliases = make(map[string]string, len(aliases))
		for k, v := range aliases {
			m.aliases[k] = v
		}
	}
}

// WithIgnored sets the names that never produce a diagnostic.
func WithIgnored(names []string) Option {
	return func(m *Matcher) {
		m.ignored = make(map[string]struct{}, len(names))
		for _, name := range names {
			m.ignored[name] = struct{}{}
		}
	}
}

// WithScorer replaces the similarity measure.
func WithScorer(s Scorer) Option {
	return func(m *Matcher) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithThreshold sets the highest accepted score.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithLogger sets the logger for unresolved names.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		aliases:   map[string]string{},
		ignored:   map[string]struct{}{},
		scorer:    LevenshteinScorer{},
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsIgnored reports whether name is on the ignore list.
func (m *Matcher) IsIgnored(name string) bool {
	_, ok := m.ignored[name]
	return ok
}

// Index is the searchable skin set of one character.
type Index struct {
	matcher   *Matcher
	character model.Character
	skins     []model.Skin
}

// Index builds the lookup for character from its default-locale skins.
// Skins owned by other characters are left out.
func (m *Matcher) Index(character model.Character, skins []model.Skin) *Index {
	owned := make([]model.Skin, 0, len(skins))
	for _, skin := range skins {
		if skin.ID.Character() == character.ID {
			owned = append(owned, skin)
		}
	}
	slices.SortFunc(owned, func(a, b model.Skin) int { return cmp.Compare(a.ID, b.ID) })
	return &Index{matcher: m, character: character, skins: owned}
}

// Len returns the number of indexed skins.
func (ix *Index) Len() int {
	return len(ix.skins)
}

// Resolve maps a wiki name to one skin. The skin is valid only when the
// outcome is Matched.
func (ix *Index) Resolve(name string) (model.Skin, Outcome) {
	if skin, ok := ix.search(name); ok {
		return skin, Matched
	}

	if trimmed, ok := strings.CutPrefix(name, basePrefix); ok {
		if skin, ok := ix.search(trimmed); ok {
			return skin, Matched
		}
	}

	if target, ok := ix.matcher.aliases[name]; ok {
		if skin, ok := ix.search(target); ok {
			return skin, Matched
		}
	}

	if ix.matcher.IsIgnored(name) {
		return model.Skin{}, Ignored
	}

	ix.matcher.logger.Warn("unresolved skin name",
		"name", name,
		"character", ix.character.Name,
		"character_id", ix.character.ID,
	)
	return model.Skin{}, Unresolved
}

// search returns the best scoring skin within the threshold. Ties keep the
// skin with the lowest id.
func (ix *Index) search(query string) (model.Skin, bool) {
	var (
		best      model.Skin
		bestScore float64
		found     bool
	)
	for _, skin := range ix.skins {
		score := ix.matcher.scorer.Score(query, skin.Name)
		if score > ix.matcher.threshold {
			continue
		}
		if !found || score < bestScore {
			best, bestScore, found = skin, score, true
		}
	}
	return best, found
}
