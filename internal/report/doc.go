// Package report renders scrape runs and stored change maps.
//
// Writers:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured output for other tools
//   - MarkdownWriter: documents built with github.com/nao1215/markdown
//
// UnifiedDiff renders the difference between two change maps as a
// unified diff, one line per skin.
package report
