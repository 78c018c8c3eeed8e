// Package database stores scrape state in SQLite.
//
// The Store keeps two tables:
//   - kv: JSON values by key (game data snapshots, the current change map,
//     values carried between runs)
//   - change_runs: every change map that replaced the stored one, with its
//     fingerprint, for history and diffing
//
// SQLite is used through modernc.org/sqlite, which needs no cgo. The
// database is a single file in the data directory.
package database
