package model

import (
	"sort"
	"strconv"
)

// skinIDFactor separates the owning character id from the skin number in a
// composite skin id: 1001 is skin 1 of character 1.
const skinIDFactor = 1000

// SkinID is a composite skin identifier.
type SkinID int

// Character returns the id of the owning character.
func (id SkinID) Character() int {
	return int(id) / skinIDFactor
}

// Number returns the per-character skin number (0 is the base skin).
func (id SkinID) Number() int {
	return int(id) % skinIDFactor
}

// String returns the decimal form used as ChangeMap key.
func (id SkinID) String() string {
	return strconv.Itoa(int(id))
}

// SkinlineRef references a skin line by id.
type SkinlineRef struct {
	ID int `json:"id"`
}

// QuestTier is one stage of a multi-tier (quest) skin.
type QuestTier struct {
	ID                   SkinID `json:"id"`
	Name                 string `json:"name"`
	Stage                int    `json:"stage"`
	Description          string `json:"description,omitempty"`
	SplashPath           string `json:"splashPath,omitempty"`
	UncenteredSplashPath string `json:"uncenteredSplashPath,omitempty"`
	TilePath             string `json:"tilePath,omitempty"`
	LoadScreenPath       string `json:"loadScreenPath,omitempty"`
	ShortName            string `json:"shortName,omitempty"`
}

// QuestSkinInfo groups the tiers of a quest skin.
type QuestSkinInfo struct {
	Name  string      `json:"name"`
	Tiers []QuestTier `json:"tiers"`
}

// Skin is a cosmetic variant of a character.
type Skin struct {
	ID                   SkinID         `json:"id"`
	IsBase               bool           `json:"isBase"`
	Name                 string         `json:"name"`
	Description          string         `json:"description,omitempty"`
	SplashPath           string         `json:"splashPath,omitempty"`
	UncenteredSplashPath string         `json:"uncenteredSplashPath,omitempty"`
	TilePath             string         `json:"tilePath,omitempty"`
	LoadScreenPath       string         `json:"loadScreenPath,omitempty"`
	Rarity               string         `json:"rarity,omitempty"`
	IsLegacy             bool           `json:"isLegacy,omitempty"`
	ChromaPath           string         `json:"chromaPath,omitempty"`
	SkinLines            []SkinlineRef  `json:"skinLines,omitempty"`
	QuestSkinInfo        *QuestSkinInfo `json:"questSkinInfo,omitempty"`

	// Stage is set on records expanded from a quest tier.
	Stage int `json:"stage,omitempty"`
}

// Skins maps the decimal skin id to its record, mirroring the feed layout.
type Skins map[string]Skin

// ForCharacter returns the skins owned by characterID ordered by id.
func (s Skins) ForCharacter(characterID int) []Skin {
	out := make([]Skin, 0)
	for _, skin := range s {
		if skin.ID.Character() == characterID {
			out = append(out, skin)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the keys of s.
func (s Skins) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Skinline is a themed collection of skins ("Star Guardian").
type Skinline struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Universe groups skin lines that share a setting.
type Universe struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SkinSets    []int  `json:"skinSets,omitempty"`
}
