package crawler

import "errors"

// ErrNoReleases is returned when the directory listing contains no release
// directories.
var ErrNoReleases = errors.New("no releases found in directory listing")
