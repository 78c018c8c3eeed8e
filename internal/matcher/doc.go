// Package matcher resolves free-text skin names found on the wiki to skin
// records of a single character.
//
// Names on the wiki drift from the game data: historical names, missing
// diacritics, "Original" prefixes on base skins. Resolution therefore runs
// a short list of tiers and takes the first that produces a match:
//
//  1. approximate lookup of the raw name
//  2. approximate lookup of the name without its "Original " prefix
//  3. approximate lookup of the alias target, when the raw name is an
//     exact key of the alias table
//
// A name that fails every tier is either ignored silently (it is on the
// ignore list) or reported as unresolved.
//
// Approximate lookup is delegated to a Scorer so the similarity measure can
// change without touching the tiers. The default scorer is a normalized
// Levenshtein distance over case- and diacritic-folded names, accepted at
// DefaultThreshold.
package matcher
