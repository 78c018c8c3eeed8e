// Package gamedata reads champion, skin, skin line and universe records
// from the CommunityDragon game-data mirror.
//
// Records are published per patch directory ("pbe", "latest", "14.3") and
// per locale. The display locale feeds the site; the default (English)
// locale feeds name matching against the wiki.
package gamedata
