package report

import (
	"io"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/database"
	"github.com/nao1215/skinhistory/internal/model"
)

// Writer renders reports.
type Writer interface {
	// WriteRun outputs the outcome of a scrape run.
	WriteRun(report *model.RunReport) (int, error)

	// WriteChanges outputs a stored change map.
	WriteChanges(set *ChangeSet) (int, error)
}

// ChangeSet is what the changes command shows.
type ChangeSet struct {
	// Changes maps skin ids to release lists.
	Changes changes.ChangeMap `json:"changes"`

	// Names maps skin ids to display names where known.
	Names map[string]string `json:"names,omitempty"`

	// History lists recorded runs newest first, when requested.
	History []database.ChangeRun `json:"history,omitempty"`

	// Delta is the structured difference to the previous run, when requested.
	Delta *changes.Delta `json:"delta,omitempty"`

	// Diff is the unified diff to the previous run, when requested.
	Diff string `json:"diff,omitempty"`
}

// name returns the display name of a skin, or "" when unknown.
func (s *ChangeSet) name(id string) string {
	if s.Names == nil {
		return ""
	}
	return s.Names[id]
}

// MultiWriter writes to multiple Writers in order and stops on the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun outputs the run report to all Writers.
func (m *MultiWriter) WriteRun(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRun(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteChanges outputs the change set to all Writers.
func (m *MultiWriter) WriteChanges(set *ChangeSet) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteChanges(set)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// runStatus returns a short status line for a run.
func runStatus(report *model.RunReport) string {
	switch {
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	case report.Deploy != nil:
		return "Complete, rebuild triggered"
	case report.ShouldRebuild:
		return "Complete, rebuild needed"
	default:
		return "Complete, nothing to rebuild"
	}
}
