package patch

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// HeadingPrefix marks a release heading on the community wiki ("V14.3").
const HeadingPrefix = "V"

// Version is a game release identified by its major and minor numbers.
// The zero value is "0.0".
type Version struct {
	Major int
	Minor int
}

// New returns the Version major.minor.
func New(major, minor int) Version {
	return Version{Major: major, Minor: minor}
}

// Parse parses text of the shape "<int>.<int>".
// Anything else, including surrounding whitespace, signs, a "V" prefix or a
// third component, yields a *FormatError.
func Parse(text string) (Version, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 2 {
		return Version{}, &FormatError{Input: text, Reason: "expected exactly two components"}
	}

	major, err := parseComponent(parts[0])
	if err != nil {
		return Version{}, &FormatError{Input: text, Reason: "major: " + err.Error()}
	}
	minor, err := parseComponent(parts[1])
	if err != nil {
		return Version{}, &FormatError{Input: text, Reason: "minor: " + err.Error()}
	}

	return Version{Major: major, Minor: minor}, nil
}

// MustParse is like Parse but panics on malformed input.
// It is intended for constants and tests.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// parseComponent accepts only ASCII digits, so "+1", "-1" and " 1" are rejected
// even though strconv.Atoi would take some of them.
func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, errEmptyComponent
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNonNumeric
		}
	}
	return strconv.Atoi(s)
}

// TrimHeadingPrefix removes the wiki heading marker from title.
// The boolean is false when title does not start with the marker.
func TrimHeadingPrefix(title string) (string, bool) {
	if !strings.HasPrefix(title, HeadingPrefix) {
		return "", false
	}
	return strings.TrimPrefix(title, HeadingPrefix), true
}

// String formats v as "major.minor".
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare returns -1 if a is older than b, 0 if they are equal and +1 if a
// is newer than b. Major numbers are compared first, then minor numbers.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	return cmp.Compare(a.Minor, b.Minor)
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// After reports whether v is strictly newer than other.
func (v Version) After(other Version) bool {
	return Compare(v, other) > 0
}

// SortDescending sorts versions newest first in place.
func SortDescending(versions []Version) {
	slices.SortFunc(versions, func(a, b Version) int {
		return -Compare(a, b)
	})
}

// List is the set of known releases ordered newest first.
// Build one with NewList; the zero value is an empty list.
type List struct {
	versions []Version
	index    map[Version]int
}

// NewList returns a List of the given versions sorted newest first.
// Duplicates are collapsed. The input slice is not modified.
func NewList(versions []Version) *List {
	sorted := slices.Clone(versions)
	SortDescending(sorted)
	sorted = slices.Compact(sorted)

	index := make(map[Version]int, len(sorted))
	for i, v := range sorted {
		index[v] = i
	}
	return &List{versions: sorted, index: index}
}

// Len returns the number of releases in the list.
func (l *List) Len() int {
	return len(l.versions)
}

// Versions returns a copy of the releases, newest first.
func (l *List) Versions() []Version {
	return slices.Clone(l.versions)
}

// Latest returns the newest release. ok is false for an empty list.
func (l *List) Latest() (Version, bool) {
	if len(l.versions) == 0 {
		return Version{}, false
	}
	return l.versions[0], true
}

// Contains reports whether v is a known release.
func (l *List) Contains(v Version) bool {
	_, ok := l.index[v]
	return ok
}

// Predecessor returns the release immediately older than v in the list.
// ok is false when v is unknown or is the oldest release.
func (l *List) Predecessor(v Version) (Version, bool) {
	i, ok := l.index[v]
	if !ok || i+1 >= len(l.versions) {
		return Version{}, false
	}
	return l.versions[i+1], true
}
