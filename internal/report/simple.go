package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/model"
)

// ruleWidth is the width of section rules.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// verbose lists every skin of the change map instead of the delta only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs the run report in human-readable format.
func (w *SimpleWriter) WriteRun(report *model.RunReport) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "SKINHISTORY SCRAPE")
	fmt.Fprintf(&sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if elapsed := report.Elapsed(); elapsed > 0 {
		fmt.Fprintf(&sb, "Elapsed:        %s\n", elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(&sb, "Feed version:   %s\n", orDash(report.MetadataVersion))
	fmt.Fprintf(&sb, "Status:         %s\n\n", runStatus(report))

	writeSection(&sb, "GAME DATA")
	if report.DataRefreshed {
		fmt.Fprintf(&sb, "  Refreshed (previous version %s)\n", orDash(report.PreviousVersion))
		if report.Added != nil && !report.Added.Empty() {
			fmt.Fprintf(&sb, "  New skins:      %d\n", len(report.Added.Skins))
			fmt.Fprintf(&sb, "  New champions:  %d\n", len(report.Added.Champions))
			fmt.Fprintf(&sb, "  New skinlines:  %d\n", len(report.Added.Skinlines))
			fmt.Fprintf(&sb, "  New universes:  %d\n", len(report.Added.Universes))
		}
	} else {
		sb.WriteString("  Unchanged\n")
	}
	sb.WriteString("\n")

	writeSection(&sb, "SKIN CHANGES")
	if report.SkinChangesSkipped != "" {
		fmt.Fprintf(&sb, "  Skipped: %s\n\n", report.SkinChangesSkipped)
	} else {
		fmt.Fprintf(&sb, "  Characters:     %d (%d failed)\n", report.CharactersTotal, len(report.CharactersFailed))
		fmt.Fprintf(&sb, "  Skins:          %d\n", len(report.Changes))
		fmt.Fprintf(&sb, "  Unresolved:     %d\n", len(report.Unresolved))
		sb.WriteString("\n")
		w.writeDelta(&sb, report.Delta())
		for _, name := range report.CharactersFailed {
			fmt.Fprintf(&sb, "  [!] failed: %s\n", name)
		}
		if w.verbose {
			for _, u := range report.Unresolved {
				fmt.Fprintf(&sb, "  [?] %s (%s)\n", u.Name, u.Character)
			}
		}
		sb.WriteString("\n")
	}

	if report.Deploy != nil {
		writeSection(&sb, "DEPLOY")
		fmt.Fprintf(&sb, "  Job %s: %s\n\n", report.Deploy.ID, report.Deploy.State)
	}

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeDelta lists how the change map moved.
func (w *SimpleWriter) writeDelta(sb *strings.Builder, delta changes.Delta) {
	if delta.Empty() {
		sb.WriteString("  No new changes\n")
		return
	}
	for _, d := range delta.NewSkins {
		fmt.Fprintf(sb, "  [+] %s: %s\n", d.SkinID, strings.Join(d.Added, ", "))
	}
	for _, d := range delta.Updated {
		fmt.Fprintf(sb, "  [~] %s: +%s -%s\n", d.SkinID, strings.Join(d.Added, ","), strings.Join(d.Removed, ","))
	}
	for _, d := range delta.DroppedSkins {
		fmt.Fprintf(sb, "  [-] %s: %s\n", d.SkinID, strings.Join(d.Removed, ", "))
	}
}

// WriteChanges outputs the change set in human-readable format.
func (w *SimpleWriter) WriteChanges(set *ChangeSet) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "SKIN ART CHANGES")
	for _, id := range set.Changes.SkinIDs() {
		label := id
		if name := set.name(id); name != "" {
			label = id + " " + name
		}
		fmt.Fprintf(&sb, "  %-40s %s\n", label, strings.Join(set.Changes[id], ", "))
	}
	if len(set.Changes) == 0 {
		sb.WriteString("  No changes recorded\n")
	}
	sb.WriteString("\n")

	if len(set.History) > 0 {
		writeSection(&sb, "HISTORY")
		for _, run := range set.History {
			fmt.Fprintf(&sb, "  #%-4d %s  %4d skins  %s\n",
				run.ID, run.Timestamp.Format("2006-01-02 15:04:05"), run.SkinCount, shortFingerprint(run.Fingerprint))
		}
		sb.WriteString("\n")
	}

	if set.Diff != "" {
		writeSection(&sb, "DIFF")
		sb.WriteString(set.Diff)
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortFingerprint returns the first 12 hex digits of a fingerprint.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
