package changes

import (
	"maps"
	"slices"
	"sort"

	"github.com/nao1215/skinhistory/internal/patch"
)

// Partial is a per-skin set of releases in which the skin's art changed.
// The zero value is not usable; call NewPartial.
type Partial struct {
	releases map[string]map[patch.Version]struct{}
}

// NewPartial returns an empty Partial.
func NewPartial() *Partial {
	return &Partial{releases: make(map[string]map[patch.Version]struct{})}
}

// Add records that skinID changed in release. Adding the same pair twice has
// no further effect.
func (p *Partial) Add(skinID string, release patch.Version) {
	set, ok := p.releases[skinID]
	if !ok {
		set = make(map[patch.Version]struct{})
		p.releases[skinID] = set
	}
	set[release] = struct{}{}
}

// Len returns the number of skins with at least one release.
func (p *Partial) Len() int {
	return len(p.releases)
}

// Has reports whether skinID changed in release.
func (p *Partial) Has(skinID string, release patch.Version) bool {
	_, ok := p.releases[skinID][release]
	return ok
}

// Merge folds other into p as a set union keyed by skin id.
// other is not modified; a nil other is a no-op.
func (p *Partial) Merge(other *Partial) {
	if other == nil {
		return
	}
	for skinID, set := range other.releases {
		for release := range set {
			p.Add(skinID, release)
		}
	}
}

// Build returns the ChangeMap for p: every release list sorted newest first.
func (p *Partial) Build() ChangeMap {
	out := make(ChangeMap, len(p.releases))
	for skinID, set := range p.releases {
		versions := slices.Collect(maps.Keys(set))
		patch.SortDescending(versions)

		formatted := make([]string, len(versions))
		for i, v := range versions {
			formatted[i] = v.String()
		}
		out[skinID] = formatted
	}
	return out
}

// ChangeMap maps a skin id to the releases, newest first, in which its art
// changed. It is the JSON shape consumed by the site build.
type ChangeMap map[string][]string

// SkinIDs returns the keys in ascending string order.
func (m ChangeMap) SkinIDs() []string {
	ids := slices.Collect(maps.Keys(m))
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of m.
func (m ChangeMap) Clone() ChangeMap {
	out := make(ChangeMap, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Partial converts m back into a Partial. Release strings that do not parse
// are dropped and returned so callers can report them.
func (m ChangeMap) Partial() (*Partial, []string) {
	p := NewPartial()
	var invalid []string
	for skinID, releases := range m {
		for _, r := range releases {
			v, err := patch.Parse(r)
			if err != nil {
				invalid = append(invalid, r)
				continue
			}
			p.Add(skinID, v)
		}
	}
	return p, invalid
}

// Equal reports whether a and b hold the same skins with the same release
// sequences. A nil map equals an empty one.
func Equal(a, b ChangeMap) bool {
	return maps.EqualFunc(a, b, slices.Equal[[]string])
}
