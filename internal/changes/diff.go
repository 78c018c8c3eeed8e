package changes

import "slices"

// SkinDelta describes how the release list of one skin moved between two
// ChangeMaps.
type SkinDelta struct {
	SkinID  string   `json:"skinId"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Delta is the difference between a previously stored ChangeMap and a fresh one.
type Delta struct {
	// NewSkins are skins that had no history before.
	NewSkins []SkinDelta `json:"newSkins,omitempty"`

	// DroppedSkins are skins that no longer have any history.
	DroppedSkins []SkinDelta `json:"droppedSkins,omitempty"`

	// Updated are skins present in both maps whose release lists differ.
	Updated []SkinDelta `json:"updated,omitempty"`
}

// Empty reports whether the two maps were equal.
func (d Delta) Empty() bool {
	return len(d.NewSkins) == 0 && len(d.DroppedSkins) == 0 && len(d.Updated) == 0
}

// Diff compares old against current. Skins are reported in ascending id order
// so the output is stable.
func Diff(old, current ChangeMap) Delta {
	var d Delta

	for _, id := range current.SkinIDs() {
		prev, ok := old[id]
		if !ok {
			d.NewSkins = append(d.NewSkins, SkinDelta{SkinID: id, Added: slices.Clone(current[id])})
			continue
		}
		added := difference(current[id], prev)
		removed := difference(prev, current[id])
		if len(added) > 0 || len(removed) > 0 {
			d.Updated = append(d.Updated, SkinDelta{SkinID: id, Added: added, Removed: removed})
		}
	}

	for _, id := range old.SkinIDs() {
		if _, ok := current[id]; !ok {
			d.DroppedSkins = append(d.DroppedSkins, SkinDelta{SkinID: id, Removed: slices.Clone(old[id])})
		}
	}

	return d
}

// difference returns the elements of a not in b, keeping a's order.
func difference(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}
