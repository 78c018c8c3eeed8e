// Package model defines the data structures shared across skinhistory.
//
// This package contains the following main types:
//   - Character, Skin, Skinline, Universe: records from the game-data feed
//   - PatchData, Metadata, Added: feed snapshots and their comparison
//   - PersistentVars: values kept between runs in the cache store
//   - RunReport: the outcome of one scrape run
//
// The feed types mirror the JSON published by the data origin so they can be
// stored and served without conversion.
package model
