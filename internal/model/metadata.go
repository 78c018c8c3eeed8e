package model

import "time"

// Metadata is the content metadata published for a feed patch directory.
type Metadata struct {
	// Version is the full build string, e.g. "14.3.566.1234+branch.releases-14-3".
	Version string `json:"version"`
}

// Added lists identifiers that are present in the candidate patch data but
// missing from the live ("latest") data.
type Added struct {
	Skins     []string `json:"skins"`
	Champions []int    `json:"champions"`
	Skinlines []int    `json:"skinlines"`
	Universes []int    `json:"universes"`
}

// Empty reports whether nothing was added.
func (a Added) Empty() bool {
	return len(a.Skins) == 0 && len(a.Champions) == 0 && len(a.Skinlines) == 0 && len(a.Universes) == 0
}

// PersistentVars survive between runs in the cache store.
type PersistentVars struct {
	// LastUpdate is when skin changes were last scraped.
	LastUpdate time.Time `json:"lastUpdate"`

	// OldVersionString is the feed metadata version seen on the last run.
	OldVersionString string `json:"oldVersionString"`
}

// PatchData is one full snapshot of the game-data feed.
type PatchData struct {
	Champions []Character `json:"champions"`
	Skinlines []Skinline  `json:"skinlines"`
	Skins     Skins       `json:"skins"`
	Universes []Universe  `json:"universes"`

	// SkinsDefault holds the default-locale records used for name matching.
	SkinsDefault Skins `json:"skinsDefault,omitempty"`
}
