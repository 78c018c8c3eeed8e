package report

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/nao1215/skinhistory/internal/changes"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 2

// UnifiedDiff renders old and current as "id: releases" lines and returns
// their unified diff. It returns "" when both render the same.
func UnifiedDiff(old, current changes.ChangeMap, fromLabel, toLabel string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        changeLines(old),
		B:        changeLines(current),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  diffContext,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// changeLines renders m one skin per line in ascending id order.
func changeLines(m changes.ChangeMap) []string {
	lines := make([]string, 0, len(m))
	for _, id := range m.SkinIDs() {
		lines = append(lines, id+": "+strings.Join(m[id], ", ")+"\n")
	}
	return lines
}
