package history

import "github.com/nao1215/skinhistory/internal/patch"

// Candidate is a free-text skin name attributed to the release whose shipped
// state it describes.
type Candidate struct {
	// Release is the effective release: the predecessor of Heading.
	Release patch.Version

	// Heading is the release named on the wiki page.
	Heading patch.Version

	// Name is the raw link text.
	Name string
}

// Candidates attributes each entry to its effective release.
//
// The wiki records what changed going into a release; the art being
// replaced is the one shipped by the release before it. The effective
// release is therefore the entry following the heading in the global list
// (sorted newest first). Entries whose heading is unknown, has no
// predecessor, or whose predecessor is below floor are skipped and reported
// as *MissingPredecessorError values in the second result.
func Candidates(entries []Entry, releases *patch.List, floor patch.Version) ([]Candidate, []error) {
	candidates := make([]Candidate, 0)
	var skipped []error

	for _, entry := range entries {
		effective, err := effectiveRelease(entry.Release, releases, floor)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		for _, name := range entry.Names {
			candidates = append(candidates, Candidate{
				Release: effective,
				Heading: entry.Release,
				Name:    name,
			})
		}
	}

	return candidates, skipped
}

// effectiveRelease returns the predecessor of heading in releases.
func effectiveRelease(heading patch.Version, releases *patch.List, floor patch.Version) (patch.Version, error) {
	if !releases.Contains(heading) {
		return patch.Version{}, &MissingPredecessorError{Release: heading, Reason: "release is not in the known release list"}
	}

	prev, ok := releases.Predecessor(heading)
	if !ok {
		return patch.Version{}, &MissingPredecessorError{Release: heading, Reason: "release is the oldest known release"}
	}

	if prev.Less(floor) {
		return patch.Version{}, &MissingPredecessorError{Release: heading, Reason: "predecessor " + prev.String() + " is below the minimum supported version"}
	}

	return prev, nil
}
