// Package changes accumulates skin art-change attributions and produces the
// final ChangeMap.
//
// Each character task builds its own Partial. A single goroutine folds the
// partials together with Merge, which is a key-wise set union and therefore
// commutative and associative: the order in which characters finish does not
// affect the result. Build converts the union to a ChangeMap whose release
// lists are deduplicated and sorted newest first.
package changes
