// Package crawler runs one task per character with a bounded number of
// tasks in flight and folds their results into a single changes.Partial.
//
// Tasks never share mutable state. Each task returns its own Partial, and
// a single goroutine owns the accumulated result and merges task results
// as they arrive. The optional Observer runs on that same goroutine, so it
// can keep counters without locks.
//
// A failed task (for example a document that stayed unavailable after all
// retries) is logged and contributes nothing. The crawl itself only fails
// when the caller cancels the context.
//
// The package also reads the authoritative release list from the
// game-data directory listing (FetchReleases). That list must be complete
// before any task attributes entries to releases.
package crawler
