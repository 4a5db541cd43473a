package recovery_test

import (
	"context"
	"testing"

	"callboard/internal/catalog"
	"callboard/internal/config"
	"callboard/internal/provider"
	"callboard/internal/recovery"
	"callboard/internal/services"
	"callboard/internal/testsupport"
)

type fixture struct {
	cfg      *config.Config
	store    *catalog.Store
	provider *testsupport.FakeProvider
	episode  *catalog.Episode
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)
	return &fixture{
		cfg:   cfg,
		store: store,
		provider: &testsupport.FakeProvider{
			Statuses:   make(map[string]provider.TaskStatus),
			StatusErrs: make(map[string]error),
		},
		episode: episode,
	}
}

func (f *fixture) generatingClip(t *testing.T, taskID, resultURL string) *catalog.Clip {
	t.Helper()

	clip := testsupport.MustClip(t, f.store, &catalog.Clip{EpisodeID: f.episode.ID})
	status := catalog.Generating
	update := catalog.ClipUpdate{Status: &status}
	if taskID != "" {
		id := taskID
		update.TaskID = &id
	}
	if resultURL != "" {
		url := resultURL
		update.ResultURL = &url
	}
	if err := f.store.ApplyClipUpdate(context.Background(), clip.ID, update); err != nil {
		t.Fatalf("seed clip: %v", err)
	}
	return clip
}

func (f *fixture) service() *recovery.Service {
	return recovery.New(f.store, f.provider, f.cfg, nil)
}

func TestRunReconcilesOutstandingTasks(t *testing.T) {
	f := newFixture(t)
	done := f.generatingClip(t, "task-done", "")
	failed := f.generatingClip(t, "task-failed", "http://cdn/earlier.mp4")
	inflight := f.generatingClip(t, "task-pending", "")

	f.provider.Statuses["task-done"] = provider.TaskStatus{
		State:     provider.StateSucceeded,
		ResultURL: "http://cdn/recovered.mp4",
	}
	f.provider.Statuses["task-failed"] = provider.TaskStatus{State: provider.StateFailed}
	f.provider.Statuses["task-pending"] = provider.TaskStatus{State: provider.StatePending}

	summary, err := f.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scanned != 3 || summary.Completed != 1 || summary.Failed != 1 || summary.InFlight != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	ctx := context.Background()
	if clip, _ := f.store.GetClip(ctx, done.ID); clip.Status != catalog.Done || clip.ResultURL != "http://cdn/recovered.mp4" {
		t.Fatalf("completed clip not recovered: %#v", clip)
	}
	if clip, _ := f.store.GetClip(ctx, failed.ID); clip.Status != catalog.Error || clip.ResultURL != "http://cdn/earlier.mp4" {
		t.Fatalf("failure must preserve the prior result: %#v", clip)
	}
	if clip, _ := f.store.GetClip(ctx, inflight.ID); clip.Status != catalog.Generating {
		t.Fatalf("in-flight clip must stay untouched: %#v", clip)
	}
}

func TestRunMarksTasklessZombiesImmediately(t *testing.T) {
	f := newFixture(t)
	zombie := f.generatingClip(t, "", "http://cdn/previous.mp4")

	summary, err := f.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Zombies != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	clip, _ := f.store.GetClip(context.Background(), zombie.ID)
	if clip.Status != catalog.Error {
		t.Fatalf("zombie not marked: %#v", clip)
	}
	if clip.ResultURL != "http://cdn/previous.mp4" {
		t.Fatalf("prior result destroyed: %q", clip.ResultURL)
	}
}

func TestRunExtractsLegacyTaskEncoding(t *testing.T) {
	f := newFixture(t)
	legacy := f.generatingClip(t, "", "TASK:task-old-7")

	f.provider.Statuses["task-old-7"] = provider.TaskStatus{
		State:     provider.StateSucceeded,
		ResultURL: "http://cdn/legacy.mp4",
	}

	summary, err := f.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.LegacyTasks != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	clip, _ := f.store.GetClip(context.Background(), legacy.ID)
	if clip.Status != catalog.Done || clip.ResultURL != "http://cdn/legacy.mp4" {
		t.Fatalf("legacy clip not recovered: %#v", clip)
	}
	if clip.TaskID != "task-old-7" {
		t.Fatalf("legacy task id not migrated: %q", clip.TaskID)
	}
}

func TestRunLegacyTaskStillPendingStaysGenerating(t *testing.T) {
	f := newFixture(t)
	legacy := f.generatingClip(t, "", "TASK:task-old-8")

	f.provider.Statuses["task-old-8"] = provider.TaskStatus{State: provider.StatePending}

	if _, err := f.service().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	clip, _ := f.store.GetClip(context.Background(), legacy.ID)
	if clip.Status != catalog.Generating {
		t.Fatalf("pending legacy clip must stay generating: %#v", clip)
	}
	if clip.TaskID != "task-old-8" || clip.ResultURL != "" {
		t.Fatalf("legacy marker not migrated for polling: %#v", clip)
	}
}

func TestRunIsolatesProviderFailures(t *testing.T) {
	f := newFixture(t)
	broken := f.generatingClip(t, "task-broken", "")
	healthy := f.generatingClip(t, "task-healthy", "")

	f.provider.StatusErrs["task-broken"] = services.Wrap(services.ErrTimeout, "fake_provider", "task_status", "timed out", nil)
	f.provider.Statuses["task-healthy"] = provider.TaskStatus{
		State:     provider.StateSucceeded,
		ResultURL: "http://cdn/ok.mp4",
	}

	summary, err := f.service().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	ctx := context.Background()
	if clip, _ := f.store.GetClip(ctx, broken.ID); clip.Status != catalog.Generating {
		t.Fatalf("skipped clip must keep its state: %#v", clip)
	}
	if clip, _ := f.store.GetClip(ctx, healthy.ID); clip.Status != catalog.Done {
		t.Fatalf("healthy clip blocked: %#v", clip)
	}
}
