package report

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/model"
)

// maxChartSlices caps the number of releases drawn in the pie chart.
const maxChartSlices = 8

// syntaxHighlightDiff is the fenced code block language of unified diffs.
const syntaxHighlightDiff markdown.SyntaxHighlight = "diff"

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteRun outputs the run report in Markdown format.
func (w *MarkdownWriter) WriteRun(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Skin History Scrape")
	md.PlainText("")

	rows := [][]string{
		{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Feed Version", "`" + orDash(report.MetadataVersion) + "`"},
		{"Data Refreshed", strconv.FormatBool(report.DataRefreshed)},
		{"Characters", strconv.Itoa(report.CharactersTotal)},
		{"Failed", strconv.Itoa(len(report.CharactersFailed))},
		{"Skins With Changes", strconv.Itoa(len(report.Changes))},
		{"Status", runStatus(report)},
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeRunAlert(md, report)
	w.writeAdded(md, report.Added)
	w.writeDelta(md, report)

	if len(report.Unresolved) > 0 {
		md.H2("Unresolved Names")
		md.PlainText("")
		items := make([]string, len(report.Unresolved))
		for i, u := range report.Unresolved {
			items[i] = u.Name + " (" + u.Character + ")"
		}
		md.Details("Names that matched no skin", strings.Join(items, "\n"))
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeRunAlert summarizes the run outcome as an alert.
func (w *MarkdownWriter) writeRunAlert(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("Run stopped: %s", report.ErrorMessage)
	case len(report.CharactersFailed) > 0:
		md.Warningf("%d character page(s) could not be fetched.", len(report.CharactersFailed))
	case report.SkinChangesSkipped != "":
		md.Note("Skin changes not scraped: " + report.SkinChangesSkipped)
	case report.ShouldRebuild:
		md.Importantf("Site rebuild needed.")
	default:
		md.Tip("Nothing changed.")
	}
	md.PlainText("")
}

// writeAdded lists new game data ids.
func (w *MarkdownWriter) writeAdded(md *markdown.Markdown, added *model.Added) {
	if added == nil || added.Empty() {
		return
	}
	md.H2("New Game Data")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{"Skins", strconv.Itoa(len(added.Skins))},
			{"Champions", strconv.Itoa(len(added.Champions))},
			{"Skinlines", strconv.Itoa(len(added.Skinlines))},
			{"Universes", strconv.Itoa(len(added.Universes))},
		},
	})
	md.PlainText("")
}

// writeDelta lists skins whose release list moved during the run.
func (w *MarkdownWriter) writeDelta(md *markdown.Markdown, report *model.RunReport) {
	if report.SkinChangesSkipped != "" {
		return
	}
	delta := report.Delta()
	md.H2("Changes Since Last Run")
	md.PlainText("")
	if delta.Empty() {
		md.PlainText("No new changes.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(delta.NewSkins)+len(delta.Updated)+len(delta.DroppedSkins))
	rows = appendDeltaRows(rows, "new", delta.NewSkins)
	rows = appendDeltaRows(rows, "updated", delta.Updated)
	rows = appendDeltaRows(rows, "dropped", delta.DroppedSkins)
	md.Table(markdown.TableSet{
		Header: []string{"Skin", "Kind", "Added", "Removed"},
		Rows:   rows,
	})
	md.PlainText("")
}

func appendDeltaRows(rows [][]string, kind string, deltas []changes.SkinDelta) [][]string {
	for _, d := range deltas {
		rows = append(rows, []string{
			"`" + d.SkinID + "`",
			kind,
			orDash(strings.Join(d.Added, ", ")),
			orDash(strings.Join(d.Removed, ", ")),
		})
	}
	return rows
}

// WriteChanges outputs the change set in Markdown format.
func (w *MarkdownWriter) WriteChanges(set *ChangeSet) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Skin Art Changes")
	md.PlainText("")

	if len(set.Changes) == 0 {
		md.PlainText("No changes recorded.")
		md.PlainText("")
	} else {
		ids := set.Changes.SkinIDs()
		rows := make([][]string, len(ids))
		for i, id := range ids {
			rows[i] = []string{"`" + id + "`", orDash(set.name(id)), strings.Join(set.Changes[id], ", ")}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Skin", "Name", "Releases"},
			Rows:   rows,
		})
		md.PlainText("")
		w.writePieChart(md, set.Changes)
	}

	if len(set.History) > 0 {
		md.H2("History")
		md.PlainText("")
		rows := make([][]string, len(set.History))
		for i, run := range set.History {
			rows[i] = []string{
				strconv.FormatInt(run.ID, 10),
				run.Timestamp.Format("2006-01-02 15:04:05"),
				strconv.Itoa(run.SkinCount),
				"`" + shortFingerprint(run.Fingerprint) + "`",
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Run", "Recorded", "Skins", "Fingerprint"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if set.Diff != "" {
		md.H2("Diff")
		md.PlainText("")
		md.CodeBlocks(syntaxHighlightDiff, set.Diff)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart draws the releases that touched the most skins.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, m changes.ChangeMap) {
	counts := releaseCounts(m)
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Skins Changed per Release"),
		piechart.WithShowData(true),
	)
	var other uint64
	for i, c := range counts {
		if i < maxChartSlices {
			chart.LabelAndIntValue(c.release, uint64(c.skins))
			continue
		}
		other += uint64(c.skins)
	}
	if other > 0 {
		chart.LabelAndIntValue("other", other)
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

type releaseCount struct {
	release string
	skins   int
}

// releaseCounts returns how many skins each release changed, largest first.
func releaseCounts(m changes.ChangeMap) []releaseCount {
	byRelease := make(map[string]int)
	for _, releases := range m {
		for _, r := range releases {
			byRelease[r]++
		}
	}
	counts := make([]releaseCount, 0, len(byRelease))
	for r, n := range byRelease {
		counts = append(counts, releaseCount{release: r, skins: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].skins != counts[j].skins {
			return counts[i].skins > counts[j].skins
		}
		return counts[i].release < counts[j].release
	})
	return counts
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [skinhistory](https://github.com/nao1215/skinhistory)*")
}
