package model

import (
	"time"

	"github.com/nao1215/skinhistory/internal/changes"
)

// UnresolvedName is a candidate skin name that matched no skin.
type UnresolvedName struct {
	Character string `json:"character"`
	Name      string `json:"name"`
}

// DeployJob is what the deploy hook reports back after a rebuild request.
type DeployJob struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// RunReport collects the outcome of one scrape run.
// Pipeline steps fill it in sequence; it is the input of the report writers.
type RunReport struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is set once the last step returns.
	FinishedAt time.Time `json:"finishedAt,omitzero"`

	// MetadataVersion is the feed build string seen on this run.
	MetadataVersion string `json:"metadataVersion,omitempty"`

	// PreviousVersion is the build string stored by the previous run.
	PreviousVersion string `json:"previousVersion,omitempty"`

	// DataRefreshed is true when the game data was reloaded and stored.
	DataRefreshed bool `json:"dataRefreshed"`

	// Added lists ids new in the candidate patch data.
	Added *Added `json:"added,omitempty"`

	// Data is the patch data loaded during this run, shared between steps.
	Data *PatchData `json:"-"`

	// SkinChangesSkipped explains why the skin-change crawl did not run.
	SkinChangesSkipped string `json:"skinChangesSkipped,omitempty"`

	// CharactersTotal is the number of characters crawled.
	CharactersTotal int `json:"charactersTotal"`

	// CharactersFailed names characters whose document could not be fetched.
	CharactersFailed []string `json:"charactersFailed,omitempty"`

	// Unresolved lists candidate names that matched no skin.
	Unresolved []UnresolvedName `json:"unresolved,omitempty"`

	// PreviousChanges is the change map stored before this run.
	PreviousChanges changes.ChangeMap `json:"previousChanges,omitempty"`

	// Changes is the change map produced by this run.
	Changes changes.ChangeMap `json:"changes,omitempty"`

	// ChangesUpdated is true when Changes differed from PreviousChanges.
	ChangesUpdated bool `json:"changesUpdated"`

	// ShouldRebuild is true when the site needs a new deploy.
	ShouldRebuild bool `json:"shouldRebuild"`

	// Deploy is set when the deploy hook was called.
	Deploy *DeployJob `json:"deploy,omitempty"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performedSteps"`

	// Error holds the error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates an empty report stamped with the current time.
func NewRunReport() *RunReport {
	return &RunReport{
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// Delta returns the difference between the stored and the fresh change map.
func (r *RunReport) Delta() changes.Delta {
	return changes.Diff(r.PreviousChanges, r.Changes)
}

// Elapsed returns the run duration, or zero while the run is in progress.
func (r *RunReport) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
