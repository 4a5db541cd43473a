package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"callboard/internal/catalog"
	"callboard/internal/daemon"
	"callboard/internal/provider"
	"callboard/internal/testsupport"
)

func newDaemon(t *testing.T) (*daemon.Daemon, *catalog.Store, *testsupport.FakeProvider, *catalog.Clip) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"
	store := testsupport.MustOpenStore(t, cfg)
	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)
	clip := testsupport.MustClip(t, store, &catalog.Clip{
		EpisodeID: episode.ID,
		Action:    "Hero at the docks",
	})

	fake := &testsupport.FakeProvider{
		Statuses:   make(map[string]provider.TaskStatus),
		StatusErrs: make(map[string]error),
	}
	d, err := daemon.New(cfg, store, fake, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store, fake, clip
}

func TestStartRunsBootRecovery(t *testing.T) {
	d, store, _, clip := newDaemon(t)
	ctx := context.Background()

	status := catalog.Generating
	if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &status}); err != nil {
		t.Fatalf("seed zombie: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	recovered, err := store.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if recovered.Status != catalog.Error {
		t.Fatalf("boot recovery did not correct zombie: %#v", recovered)
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	fake := &testsupport.FakeProvider{}
	ctx := context.Background()

	first, err := daemon.New(cfg, store, fake, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, fake, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestAPIDispatchAndArchive(t *testing.T) {
	d, store, fake, clip := newDaemon(t)
	ctx := context.Background()

	fake.CreateResult = provider.CreateTaskResult{
		ResultURL: "http://cdn/result.png",
		Status:    provider.StateSucceeded,
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()

	resp, err := http.Post(base+"/api/clips/"+clip.ID+"/dispatch", "application/json",
		bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("dispatch request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dispatch status = %d", resp.StatusCode)
	}
	var dispatched struct {
		Status    string `json:"status"`
		ResultURL string `json:"resultUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dispatched); err != nil {
		t.Fatalf("decode dispatch response: %v", err)
	}
	if dispatched.Status != "Done" || dispatched.ResultURL != "http://cdn/result.png" {
		t.Fatalf("unexpected dispatch response: %#v", dispatched)
	}

	archiveResp, err := http.Post(base+"/api/clips/"+clip.ID+"/archive", "application/json", nil)
	if err != nil {
		t.Fatalf("archive request: %v", err)
	}
	defer archiveResp.Body.Close()
	var archived struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(archiveResp.Body).Decode(&archived); err != nil {
		t.Fatalf("decode archive response: %v", err)
	}
	if archived.Status != "Saved" {
		t.Fatalf("archive status = %q", archived.Status)
	}

	stored, _ := store.GetClip(ctx, clip.ID)
	if !stored.Status.IsSaved() {
		t.Fatalf("archive not persisted: %#v", stored)
	}
}

func TestAPIClipFilterAndStatus(t *testing.T) {
	d, store, _, clip := newDaemon(t)
	ctx := context.Background()

	status := catalog.Done
	if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &status}); err != nil {
		t.Fatalf("seed clip: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()

	resp, err := http.Get(base + "/api/clips?status=Done")
	if err != nil {
		t.Fatalf("clips request: %v", err)
	}
	defer resp.Body.Close()
	var listed struct {
		Clips []struct {
			ID string `json:"id"`
		} `json:"clips"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode clips response: %v", err)
	}
	if len(listed.Clips) != 1 || listed.Clips[0].ID != clip.ID {
		t.Fatalf("unexpected clips: %#v", listed)
	}

	badResp, err := http.Get(base + "/api/clips?status=Bogus")
	if err != nil {
		t.Fatalf("clips request: %v", err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status filter returned %d", badResp.StatusCode)
	}

	statusResp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer statusResp.Body.Close()
	var daemonStatus struct {
		Running      bool           `json:"running"`
		StatusCounts map[string]int `json:"statusCounts"`
	}
	if err := json.NewDecoder(statusResp.Body).Decode(&daemonStatus); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if !daemonStatus.Running || daemonStatus.StatusCounts["Done"] != 1 {
		t.Fatalf("unexpected daemon status: %#v", daemonStatus)
	}
}

func TestAPILibraryInvalidate(t *testing.T) {
	d, _, _, _ := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	base := "http://" + d.APIAddr()

	resp, err := http.Post(base+"/api/library/series-1/invalidate", "application/json", nil)
	if err != nil {
		t.Fatalf("invalidate request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invalidate returned %d", resp.StatusCode)
	}

	getResp, err := http.Get(base + "/api/library/series-1/invalidate")
	if err != nil {
		t.Fatalf("invalidate GET: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET invalidate returned %d", getResp.StatusCode)
	}

	badResp, err := http.Post(base+"/api/library/series-1/flush", "application/json", nil)
	if err != nil {
		t.Fatalf("bad action request: %v", err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown action returned %d", badResp.StatusCode)
	}
}

func TestAPIDispatchUnknownClip(t *testing.T) {
	d, _, _, _ := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	resp, err := http.Post(fmt.Sprintf("http://%s/api/clips/no-such-clip/dispatch", d.APIAddr()),
		"application/json", nil)
	if err != nil {
		t.Fatalf("dispatch request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown clip returned %d", resp.StatusCode)
	}
}
