// Package main provides the entry point for the skinhistory CLI.
//
// skinhistory tracks which releases replaced the splash art of each skin.
// It reads the champion and skin catalogue from the game-data mirror,
// crawls every champion's patch-history page, and records the releases
// that changed a skin's art.
//
// Usage:
//
//	skinhistory scrape
//	skinhistory changes [skin-id...]
//
// See --help for all available options.
package main

// main is the entry point for skinhistory.
func main() {
	Execute()
}
