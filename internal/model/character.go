package model

import "strconv"

// Character is a playable champion as published by the game-data feed.
// Characters are supplied externally and never mutated by the detector.
type Character struct {
	// ID is the stable numeric identifier. Skin ids embed it (see SkinID).
	ID int `json:"id"`

	// Name is the display name in the feed's locale.
	Name string `json:"name"`

	// Alias is the URL-safe slug used to locate the wiki document
	// (e.g. "MonkeyKing" for Wukong).
	Alias string `json:"alias"`

	// Key is the lower-cased alias after substitutions, used for site routes.
	Key string `json:"key,omitempty"`

	// SquarePortraitPath is the feed-relative path of the portrait icon.
	SquarePortraitPath string `json:"squarePortraitPath,omitempty"`

	// Roles lists the gameplay roles such as "mage" or "support".
	Roles []string `json:"roles,omitempty"`
}

// String returns the display name.
func (c Character) String() string {
	if c.Name == "" {
		return strconv.Itoa(c.ID)
	}
	return c.Name
}
