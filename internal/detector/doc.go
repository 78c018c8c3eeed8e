// Package detector finds the releases whose skin art was later replaced.
//
// For every character the Detector fetches the rendered patch-history page,
// extracts the art-change mentions (package history), resolves each
// mentioned name to a skin (package matcher) and records the skin under
// the release that shipped the old art. The crawler package bounds the
// number of characters processed at once and merges their results into a
// changes.ChangeMap.
//
// A character whose page cannot be fetched is logged and skipped. Names
// that match no skin are logged (unless ignored) and returned in
// Result.Unresolved. Neither aborts the run.
package detector
