package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/database"
	"github.com/nao1215/skinhistory/internal/detector"
	"github.com/nao1215/skinhistory/internal/gamedata"
	"github.com/nao1215/skinhistory/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var annie = model.Character{ID: 1, Name: "Annie", Alias: "Annie"}

// fakeGameData serves fixed snapshots per patch directory.
type fakeGameData struct {
	version      string
	data         map[string]*model.PatchData
	championsHit int
}

func (f *fakeGameData) Metadata(_ context.Context, _ string) (model.Metadata, error) {
	return model.Metadata{Version: f.version}, nil
}

func (f *fakeGameData) PatchData(_ context.Context, patch string, withDefault bool) (*model.PatchData, error) {
	d := *f.data[patch]
	if !withDefault {
		d.SkinsDefault = nil
	}
	return &d, nil
}

func (f *fakeGameData) Champions(_ context.Context, patch string) ([]model.Character, error) {
	f.championsHit++
	return f.data[patch].Champions, nil
}

func (f *fakeGameData) Skins(_ context.Context, patch, locale string) (model.Skins, error) {
	if locale == gamedata.MatchLocale {
		return f.data[patch].SkinsDefault, nil
	}
	return f.data[patch].Skins, nil
}

func newFakeGameData(version string) *fakeGameData {
	return &fakeGameData{
		version: version,
		data: map[string]*model.PatchData{
			gamedata.PBE: {
				Champions:    []model.Character{annie},
				Skins:        model.Skins{"1000": {ID: 1000}, "1001": {ID: 1001}},
				SkinsDefault: model.Skins{"1000": {ID: 1000, Name: "Annie"}, "1001": {ID: 1001, Name: "Goth Annie"}},
			},
			gamedata.Latest: {
				Champions: []model.Character{annie},
				Skins:     model.Skins{"1000": {ID: 1000}},
			},
		},
	}
}

// fakeStore keeps everything in memory.
type fakeStore struct {
	vars      model.PersistentVars
	data      *model.PatchData
	added     *model.Added
	changes   changes.ChangeMap
	saveCount int
}

func (s *fakeStore) PersistentVars(_ context.Context) (model.PersistentVars, error) {
	return s.vars, nil
}

func (s *fakeStore) SetPersistentVars(_ context.Context, vars model.PersistentVars) error {
	s.vars = vars
	return nil
}

func (s *fakeStore) SavePatchData(_ context.Context, data *model.PatchData, added model.Added) error {
	s.data = data
	s.added = &added
	return nil
}

func (s *fakeStore) Changes(_ context.Context) (changes.ChangeMap, error) {
	if s.changes == nil {
		return changes.ChangeMap{}, nil
	}
	return s.changes.Clone(), nil
}

func (s *fakeStore) SaveChanges(_ context.Context, m changes.ChangeMap) (*database.ChangeRun, error) {
	s.changes = m.Clone()
	s.saveCount++
	return &database.ChangeRun{ID: int64(s.saveCount), SkinCount: len(m), Changes: m}, nil
}

// fakeDetector returns a fixed result and records its input.
type fakeDetector struct {
	result     *detector.Result
	err        error
	calls      int
	characters []model.Character
	skins      model.Skins
}

func (d *fakeDetector) Detect(_ context.Context, characters []model.Character, skins model.Skins) (*detector.Result, error) {
	d.calls++
	d.characters = characters
	d.skins = skins
	return d.result, d.err
}

// fakeHook counts triggers.
type fakeHook struct {
	url      string
	triggers int
	err      error
}

func (h *fakeHook) Configured() bool { return h.url != "" }

func (h *fakeHook) Trigger(_ context.Context) (*model.DeployJob, error) {
	h.triggers++
	if h.err != nil {
		return nil, h.err
	}
	return &model.DeployJob{ID: "job-1", State: "PENDING"}, nil
}

func TestMetadataStep(t *testing.T) {
	t.Parallel()

	t.Run("refreshes data when version changed", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{vars: model.PersistentVars{OldVersionString: "14.1"}}
		step := NewMetadataStep(newFakeGameData("14.2"), store, WithMetadataLogger(discardLogger()))

		report := model.NewRunReport()
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.DataRefreshed || !report.ShouldRebuild {
			t.Errorf("expected refresh and rebuild, got %+v", report)
		}
		if report.MetadataVersion != "14.2" || report.PreviousVersion != "14.1" {
			t.Errorf("unexpected versions %q %q", report.MetadataVersion, report.PreviousVersion)
		}
		if store.data == nil || store.added == nil {
			t.Fatal("expected data to be stored")
		}
		if len(store.added.Skins) != 1 || store.added.Skins[0] != "1001" {
			t.Errorf("unexpected added skins %v", store.added.Skins)
		}
		if report.Data == nil || report.Data.SkinsDefault == nil {
			t.Error("expected loaded data to be shared through the report")
		}
	})

	t.Run("keeps data when version unchanged", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{vars: model.PersistentVars{OldVersionString: "14.2"}}
		step := NewMetadataStep(newFakeGameData("14.2"), store, WithMetadataLogger(discardLogger()))

		report := model.NewRunReport()
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.DataRefreshed || report.ShouldRebuild || store.data != nil {
			t.Errorf("expected no refresh, got %+v", report)
		}
	})

	t.Run("dry run does not store", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		step := NewMetadataStep(newFakeGameData("14.2"), store, WithMetadataDryRun(true), WithMetadataLogger(discardLogger()))

		report := model.NewRunReport()
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.DataRefreshed || store.data != nil {
			t.Error("expected refresh without storing")
		}
	})
}

func TestSkinChangesStep(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 17, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	found := changes.ChangeMap{"1001": {"5.0"}}

	t.Run("stores new changes and asks for rebuild", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{vars: model.PersistentVars{LastUpdate: now.Add(-2 * time.Hour), OldVersionString: "14.1"}}
		det := &fakeDetector{result: &detector.Result{
			Changes:    found,
			Unresolved: []model.UnresolvedName{{Character: "Annie", Name: "Hextech Annie"}},
			Failed:     []model.Character{{ID: 2, Name: "Olaf"}},
		}}
		step := NewSkinChangesStep(newFakeGameData("14.1"), store, det, WithClock(clock), WithSkinChangesLogger(discardLogger()))

		report := model.NewRunReport()
		report.MetadataVersion = "14.1"
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.ChangesUpdated || !report.ShouldRebuild {
			t.Errorf("expected update and rebuild, got %+v", report)
		}
		if !changes.Equal(store.changes, found) || store.saveCount != 1 {
			t.Errorf("expected changes stored once, got %v (%d)", store.changes, store.saveCount)
		}
		if !store.vars.LastUpdate.Equal(now) || store.vars.OldVersionString != "14.1" {
			t.Errorf("unexpected persistent vars %+v", store.vars)
		}
		if len(report.Unresolved) != 1 || len(report.CharactersFailed) != 1 || report.CharactersFailed[0] != "Olaf" {
			t.Errorf("unexpected diagnostics %+v", report)
		}
		if len(det.skins) != 2 || det.skins["1001"].Name != "Goth Annie" {
			t.Errorf("expected default-locale skins, got %v", det.skins)
		}
	})

	t.Run("unchanged result is not stored", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{changes: found.Clone()}
		det := &fakeDetector{result: &detector.Result{Changes: found.Clone()}}
		step := NewSkinChangesStep(newFakeGameData("14.1"), store, det, WithClock(clock), WithSkinChangesLogger(discardLogger()))

		report := model.NewRunReport()
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.ChangesUpdated || report.ShouldRebuild || store.saveCount != 0 {
			t.Errorf("expected no update, got %+v", report)
		}
		if !store.vars.LastUpdate.Equal(now) {
			t.Error("expected last update to advance")
		}
	})

	t.Run("skips within interval", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{vars: model.PersistentVars{LastUpdate: now.Add(-10 * time.Minute), OldVersionString: "14.1"}}
		det := &fakeDetector{result: &detector.Result{Changes: found}}
		step := NewSkinChangesStep(newFakeGameData("14.2"), store, det, WithClock(clock), WithSkinChangesLogger(discardLogger()))

		report := model.NewRunReport()
		report.MetadataVersion = "14.2"
		report.DataRefreshed = true
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if det.calls != 0 {
			t.Error("detector must not run within the interval")
		}
		if report.SkinChangesSkipped == "" {
			t.Error("expected skip reason")
		}
		if store.vars.OldVersionString != "14.2" || !store.vars.LastUpdate.Equal(now.Add(-10*time.Minute)) {
			t.Errorf("expected refreshed version with old timestamp, got %+v", store.vars)
		}
	})

	t.Run("force ignores interval", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{vars: model.PersistentVars{LastUpdate: now.Add(-time.Minute)}}
		det := &fakeDetector{result: &detector.Result{Changes: found}}
		step := NewSkinChangesStep(newFakeGameData("14.1"), store, det, WithForce(true), WithClock(clock), WithSkinChangesLogger(discardLogger()))

		if err := step.Do(context.Background(), model.NewRunReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if det.calls != 1 {
			t.Errorf("expected detector to run once, got %d", det.calls)
		}
	})

	t.Run("reuses data loaded by the metadata step", func(t *testing.T) {
		t.Parallel()

		data := newFakeGameData("14.1")
		det := &fakeDetector{result: &detector.Result{Changes: found}}
		step := NewSkinChangesStep(data, &fakeStore{}, det, WithClock(clock), WithSkinChangesLogger(discardLogger()))

		report := model.NewRunReport()
		report.Data = &model.PatchData{
			Champions:    []model.Character{annie},
			SkinsDefault: model.Skins{"1000": {ID: 1000, Name: "Annie"}},
		}
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data.championsHit != 0 {
			t.Error("expected no reload of champions")
		}
		if len(det.skins) != 1 {
			t.Errorf("expected shared skins, got %v", det.skins)
		}
	})

	t.Run("detector failure stops the step", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		det := &fakeDetector{err: errors.New("listing unavailable")}
		step := NewSkinChangesStep(newFakeGameData("14.1"), store, det, WithClock(clock), WithSkinChangesLogger(discardLogger()))

		if err := step.Do(context.Background(), model.NewRunReport()); err == nil {
			t.Fatal("expected error")
		}
		if !store.vars.LastUpdate.IsZero() {
			t.Error("last update must not advance on failure")
		}
	})

	t.Run("dry run does not store", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		det := &fakeDetector{result: &detector.Result{Changes: found}}
		step := NewSkinChangesStep(newFakeGameData("14.1"), store, det, WithSkinChangesDryRun(true), WithClock(clock), WithSkinChangesLogger(discardLogger()))

		report := model.NewRunReport()
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.ChangesUpdated || store.saveCount != 0 || !store.vars.LastUpdate.IsZero() {
			t.Errorf("expected detection without storing, got %+v", store)
		}
	})
}

func TestDeployStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		hook         *fakeHook
		rebuild      bool
		dryRun       bool
		wantTriggers int
	}{
		{name: "triggers when rebuild needed", hook: &fakeHook{url: "https://hook"}, rebuild: true, wantTriggers: 1},
		{name: "skips when no rebuild needed", hook: &fakeHook{url: "https://hook"}, rebuild: false},
		{name: "skips without hook", hook: &fakeHook{}, rebuild: true},
		{name: "skips on dry run", hook: &fakeHook{url: "https://hook"}, rebuild: true, dryRun: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			step := NewDeployStep(tt.hook, WithDeployDryRun(tt.dryRun), WithDeployLogger(discardLogger()))
			report := model.NewRunReport()
			report.ShouldRebuild = tt.rebuild

			if err := step.Do(context.Background(), report); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.hook.triggers != tt.wantTriggers {
				t.Errorf("expected %d triggers, got %d", tt.wantTriggers, tt.hook.triggers)
			}
			if tt.wantTriggers > 0 && (report.Deploy == nil || report.Deploy.ID != "job-1") {
				t.Errorf("expected deploy job recorded, got %+v", report.Deploy)
			}
		})
	}

	t.Run("hook error is returned", func(t *testing.T) {
		t.Parallel()

		step := NewDeployStep(&fakeHook{url: "https://hook", err: errors.New("boom")}, WithDeployLogger(discardLogger()))
		report := model.NewRunReport()
		report.ShouldRebuild = true
		if err := step.Do(context.Background(), report); err == nil {
			t.Error("expected error")
		}
	})
}

func TestScrapePipeline(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 17, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	data := newFakeGameData("14.2")
	det := &fakeDetector{result: &detector.Result{Changes: changes.ChangeMap{"1001": {"5.0"}}}}
	hook := &fakeHook{url: "https://hook"}

	p := New(WithLogger(discardLogger()))
	p.AddSteps(
		NewMetadataStep(data, store, WithMetadataLogger(discardLogger())),
		NewSkinChangesStep(data, store, det, WithClock(func() time.Time { return now }), WithSkinChangesLogger(discardLogger())),
		NewDeployStep(hook, WithDeployLogger(discardLogger())),
	)

	report := model.NewRunReport()
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hook.triggers != 1 {
		t.Errorf("expected one deploy, got %d", hook.triggers)
	}
	if data.championsHit != 0 {
		t.Error("expected skin step to reuse refreshed data")
	}
	if store.vars.OldVersionString != "14.2" {
		t.Errorf("expected version stored, got %q", store.vars.OldVersionString)
	}
	if len(report.PerformedSteps) != 3 {
		t.Errorf("unexpected performed steps %v", report.PerformedSteps)
	}
}
