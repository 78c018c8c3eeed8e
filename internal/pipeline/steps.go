package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/database"
	"github.com/nao1215/skinhistory/internal/detector"
	"github.com/nao1215/skinhistory/internal/gamedata"
	"github.com/nao1215/skinhistory/internal/model"
)

// GameData reads the game-data feed.
type GameData interface {
	Metadata(ctx context.Context, patch string) (model.Metadata, error)
	PatchData(ctx context.Context, patch string, withDefault bool) (*model.PatchData, error)
	Champions(ctx context.Context, patch string) ([]model.Character, error)
	Skins(ctx context.Context, patch, locale string) (model.Skins, error)
}

// Store persists state between runs.
type Store interface {
	PersistentVars(ctx context.Context) (model.PersistentVars, error)
	SetPersistentVars(ctx context.Context, vars model.PersistentVars) error
	SavePatchData(ctx context.Context, data *model.PatchData, added model.Added) error
	Changes(ctx context.Context) (changes.ChangeMap, error)
	SaveChanges(ctx context.Context, m changes.ChangeMap) (*database.ChangeRun, error)
}

// Detector finds skin art changes.
type Detector interface {
	Detect(ctx context.Context, characters []model.Character, skinsDefault model.Skins) (*detector.Result, error)
}

// Deployer triggers a site rebuild.
type Deployer interface {
	Configured() bool
	Trigger(ctx context.Context) (*model.DeployJob, error)
}

// MetadataStep reloads the game data when the feed version changed since
// the previous run.
type MetadataStep struct {
	data   GameData
	store  Store
	patch  string
	dryRun bool
	logger *slog.Logger
}

// MetadataStepOption configures a MetadataStep.
type MetadataStepOption func(*MetadataStep)

// WithMetadataPatch sets the patch directory to read (default "pbe").
func WithMetadataPatch(patch string) MetadataStepOption {
	return func(s *MetadataStep) {
		if patch != "" {
			s.patch = patch
		}
	}
}

// WithMetadataDryRun disables writes to the store.
func WithMetadataDryRun(dryRun bool) MetadataStepOption {
	return func(s *MetadataStep) {
		s.dryRun = dryRun
	}
}

// WithMetadataLogger sets a custom logger.
func WithMetadataLogger(logger *slog.Logger) MetadataStepOption {
	return func(s *MetadataStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMetadataStep creates a MetadataStep.
func NewMetadataStep(data GameData, store Store, opts ...MetadataStepOption) *MetadataStep {
	s := &MetadataStep{
		data:   data,
		store:  store,
		patch:  gamedata.PBE,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return "metadata"
}

// Do executes the step.
func (s *MetadataStep) Do(ctx context.Context, report *model.RunReport) error {
	vars, err := s.store.PersistentVars(ctx)
	if err != nil {
		return err
	}
	report.PreviousVersion = vars.OldVersionString

	meta, err := s.data.Metadata(ctx, s.patch)
	if err != nil {
		return err
	}
	report.MetadataVersion = meta.Version

	if meta.Version == vars.OldVersionString {
		s.logger.Info("feed version unchanged, keeping stored game data", "version", meta.Version)
		return nil
	}

	current, err := s.data.PatchData(ctx, s.patch, true)
	if err != nil {
		return err
	}
	live, err := s.data.PatchData(ctx, gamedata.Latest, false)
	if err != nil {
		return err
	}
	added := gamedata.Added(current, live)

	report.Data = current
	report.Added = &added
	report.DataRefreshed = true
	report.ShouldRebuild = true

	if s.dryRun {
		s.logger.Info("dry run, game data not stored", "version", meta.Version)
		return nil
	}
	if err := s.store.SavePatchData(ctx, current, added); err != nil {
		return err
	}

	s.logger.Info("game data updated",
		"version", meta.Version,
		"previous", vars.OldVersionString,
		"added_skins", len(added.Skins),
		"added_champions", len(added.Champions),
	)
	return nil
}

// SkinChangesStep runs the detector and stores a changed result.
type SkinChangesStep struct {
	data     GameData
	store    Store
	detector Detector
	patch    string
	interval time.Duration
	force    bool
	dryRun   bool
	now      func() time.Time
	logger   *slog.Logger
}

// SkinChangesStepOption configures a SkinChangesStep.
type SkinChangesStepOption func(*SkinChangesStep)

// WithSkinChangesPatch sets the patch directory to read (default "pbe").
func WithSkinChangesPatch(patch string) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		if patch != "" {
			s.patch = patch
		}
	}
}

// WithScrapeInterval sets the minimum time between two crawls.
func WithScrapeInterval(d time.Duration) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		s.interval = d
	}
}

// WithForce runs the crawl regardless of the scrape interval.
func WithForce(force bool) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		s.force = force
	}
}

// WithSkinChangesDryRun disables writes to the store.
func WithSkinChangesDryRun(dryRun bool) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		s.dryRun = dryRun
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSkinChangesLogger sets a custom logger.
func WithSkinChangesLogger(logger *slog.Logger) SkinChangesStepOption {
	return func(s *SkinChangesStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DefaultScrapeInterval is the minimum time between two crawls.
const DefaultScrapeInterval = time.Hour

// NewSkinChangesStep creates a SkinChangesStep.
func NewSkinChangesStep(data GameData, store Store, d Detector, opts ...SkinChangesStepOption) *SkinChangesStep {
	s := &SkinChangesStep{
		data:     data,
		store:    store,
		detector: d,
		patch:    gamedata.PBE,
		interval: DefaultScrapeInterval,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SkinChangesStep) Name() string {
	return "skin_changes"
}

// Do executes the step.
func (s *SkinChangesStep) Do(ctx context.Context, report *model.RunReport) error {
	now := s.now()

	vars, err := s.store.PersistentVars(ctx)
	if err != nil {
		return err
	}
	version := report.MetadataVersion
	if version == "" {
		version = vars.OldVersionString
	}

	if !s.force && !vars.LastUpdate.IsZero() && now.Sub(vars.LastUpdate) < s.interval {
		report.SkinChangesSkipped = fmt.Sprintf("last crawl at %s is within %s", vars.LastUpdate.Format(time.RFC3339), s.interval)
		s.logger.Info("skipping skin changes", "last_update", vars.LastUpdate, "interval", s.interval)

		// remember the refreshed version so the game data is not reloaded next run
		if report.DataRefreshed && !s.dryRun {
			vars.OldVersionString = version
			return s.store.SetPersistentVars(ctx, vars)
		}
		return nil
	}

	characters, skinsDefault, err := s.inputs(ctx, report)
	if err != nil {
		return err
	}

	previous, err := s.store.Changes(ctx)
	if err != nil {
		return err
	}
	report.PreviousChanges = previous

	result, err := s.detector.Detect(ctx, characters, skinsDefault)
	if err != nil {
		return err
	}

	report.Changes = result.Changes
	report.CharactersTotal = len(characters)
	report.Unresolved = result.Unresolved
	for _, c := range result.Failed {
		report.CharactersFailed = append(report.CharactersFailed, c.Name)
	}

	if changes.Equal(result.Changes, previous) {
		s.logger.Info("no new skin changes")
	} else {
		report.ChangesUpdated = true
		report.ShouldRebuild = true
		delta := changes.Diff(previous, result.Changes)
		s.logger.Info("skin changes updated",
			"skins", len(result.Changes),
			"new_skins", len(delta.NewSkins),
			"updated_skins", len(delta.Updated),
			"dropped_skins", len(delta.DroppedSkins),
		)
		if !s.dryRun {
			if _, err := s.store.SaveChanges(ctx, result.Changes); err != nil {
				return err
			}
		}
	}

	if s.dryRun {
		return nil
	}
	return s.store.SetPersistentVars(ctx, model.PersistentVars{
		LastUpdate:       now,
		OldVersionString: version,
	})
}

// inputs returns the characters and default-locale skins, reusing the data
// loaded by MetadataStep when present.
func (s *SkinChangesStep) inputs(ctx context.Context, report *model.RunReport) ([]model.Character, model.Skins, error) {
	if report.Data != nil && report.Data.SkinsDefault != nil {
		return report.Data.Champions, report.Data.SkinsDefault, nil
	}

	characters, err := s.data.Champions(ctx, s.patch)
	if err != nil {
		return nil, nil, err
	}
	skinsDefault, err := s.data.Skins(ctx, s.patch, gamedata.MatchLocale)
	if err != nil {
		return nil, nil, err
	}
	return characters, skinsDefault, nil
}

// DeployStep calls the deploy hook when the run asked for a rebuild.
type DeployStep struct {
	hook   Deployer
	dryRun bool
	logger *slog.Logger
}

// DeployStepOption configures a DeployStep.
type DeployStepOption func(*DeployStep)

// WithDeployDryRun skips the hook call.
func WithDeployDryRun(dryRun bool) DeployStepOption {
	return func(s *DeployStep) {
		s.dryRun = dryRun
	}
}

// WithDeployLogger sets a custom logger.
func WithDeployLogger(logger *slog.Logger) DeployStepOption {
	return func(s *DeployStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDeployStep creates a DeployStep.
func NewDeployStep(hook Deployer, opts ...DeployStepOption) *DeployStep {
	s := &DeployStep{hook: hook, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DeployStep) Name() string {
	return "deploy"
}

// Do executes the step.
func (s *DeployStep) Do(ctx context.Context, report *model.RunReport) error {
	switch {
	case !report.ShouldRebuild:
		s.logger.Info("no rebuild needed")
		return nil
	case !s.hook.Configured():
		s.logger.Info("rebuild needed but no deploy hook configured")
		return nil
	case s.dryRun:
		s.logger.Info("dry run, deploy hook not called")
		return nil
	}

	job, err := s.hook.Trigger(ctx)
	if err != nil {
		return err
	}
	report.Deploy = job
	return nil
}
