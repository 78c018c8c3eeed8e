// Package patch models game release identifiers ("major.minor") and their
// total ordering.
//
// A Version is parsed strictly: exactly two dot-separated non-negative
// integers. Prefixes such as the "V" used by wiki headings must be removed
// by the caller (see TrimHeadingPrefix) before calling Parse.
//
// A List holds the globally known releases sorted newest first and answers
// the question "which release came immediately before this one", which is
// how change attributions are shifted to the release that shipped the art.
package patch
