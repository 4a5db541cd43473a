package catalog_test

import (
	"context"
	"fmt"
	"testing"

	"callboard/internal/catalog"
	"callboard/internal/testsupport"
)

func TestCreateAndGetClip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Midnight Harbor")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)

	explicit := "http://explicit.jpg"
	clip := testsupport.MustClip(t, store, &catalog.Clip{
		EpisodeID:       episode.ID,
		Scene:           "1A",
		Title:           "Cold open",
		Characters:      "Hero, Villain",
		Location:        "Docks",
		Style:           "Noir",
		StyleStrength:   4,
		Action:          "Hero confronts Villain at the docks",
		ExplicitRefURLs: &explicit,
	})
	if clip.ID == "" {
		t.Fatal("expected clip ID to be assigned")
	}

	fetched, err := store.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if fetched == nil || fetched.Characters != "Hero, Villain" {
		t.Fatalf("unexpected fetched clip: %#v", fetched)
	}
	if fetched.ExplicitRefURLs == nil || *fetched.ExplicitRefURLs != explicit {
		t.Fatalf("explicit refs not round-tripped: %#v", fetched.ExplicitRefURLs)
	}
	if fetched.Status != catalog.Idle {
		t.Fatalf("expected idle status, got %q", fetched.Status)
	}
}

func TestExplicitRefsDistinguishUnsetFromEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)

	unset := testsupport.MustClip(t, store, &catalog.Clip{EpisodeID: episode.ID})
	empty := ""
	cleared := testsupport.MustClip(t, store, &catalog.Clip{EpisodeID: episode.ID, ExplicitRefURLs: &empty})

	fetchedUnset, err := store.GetClip(ctx, unset.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if fetchedUnset.ExplicitRefURLs != nil {
		t.Fatalf("expected nil explicit refs, got %q", *fetchedUnset.ExplicitRefURLs)
	}

	fetchedCleared, err := store.GetClip(ctx, cleared.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if fetchedCleared.ExplicitRefURLs == nil || *fetchedCleared.ExplicitRefURLs != "" {
		t.Fatalf("expected empty explicit refs, got %#v", fetchedCleared.ExplicitRefURLs)
	}
}

func TestClipsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)

	var generating []string
	for i := 0; i < 3; i++ {
		clip := testsupport.MustClip(t, store, &catalog.Clip{
			EpisodeID: episode.ID,
			Title:     fmt.Sprintf("clip-%d", i),
		})
		if i < 2 {
			status := catalog.Generating
			if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &status}); err != nil {
				t.Fatalf("ApplyClipUpdate: %v", err)
			}
			generating = append(generating, clip.ID)
		}
	}

	clips, err := store.ClipsByStatus(ctx, catalog.Generating)
	if err != nil {
		t.Fatalf("ClipsByStatus: %v", err)
	}
	if len(clips) != len(generating) {
		t.Fatalf("expected %d generating clips, got %d", len(generating), len(clips))
	}
	for i, clip := range clips {
		if clip.ID != generating[i] {
			t.Fatalf("unexpected ordering: %v", clips)
		}
	}
}

func TestApplyClipUpdatePartial(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)
	clip := testsupport.MustClip(t, store, &catalog.Clip{
		EpisodeID: episode.ID,
		ResultURL: "http://old-result.mp4",
	})

	status := catalog.Error
	taskID := ""
	if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &status, TaskID: &taskID}); err != nil {
		t.Fatalf("ApplyClipUpdate: %v", err)
	}

	updated, err := store.GetClip(ctx, clip.ID)
	if err != nil {
		t.Fatalf("GetClip: %v", err)
	}
	if updated.Status != catalog.Error {
		t.Fatalf("expected Error status, got %q", updated.Status)
	}
	if updated.TaskID != "" {
		t.Fatalf("expected cleared task id, got %q", updated.TaskID)
	}
	if updated.ResultURL != "http://old-result.mp4" {
		t.Fatalf("result url should be untouched, got %q", updated.ResultURL)
	}
}

func TestApplyClipUpdateUnknownClip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	status := catalog.Done
	err := store.ApplyClipUpdate(context.Background(), "missing", catalog.ClipUpdate{Status: &status})
	if err == nil {
		t.Fatal("expected error for unknown clip")
	}
}

func TestEpisodeNumberUniquePerSeries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	if _, err := store.CreateEpisode(ctx, series.ID, 1, "", ""); err != nil {
		t.Fatalf("CreateEpisode: %v", err)
	}
	if _, err := store.CreateEpisode(ctx, series.ID, 1, "", ""); err == nil {
		t.Fatal("expected duplicate episode number to fail")
	}

	other := testsupport.MustSeries(t, store, "Other")
	if _, err := store.CreateEpisode(ctx, other.ID, 1, "", ""); err != nil {
		t.Fatalf("same number in another series should succeed: %v", err)
	}
}

func TestStudioItemRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	item := testsupport.MustStudioItem(t, store, &catalog.StudioItem{
		SeriesID:     series.ID,
		Type:         catalog.ItemCharacter,
		Name:         "Hero",
		Description:  "Stoic lead",
		RefImageURLs: "http://hero-1.jpg, http://hero-2.jpg",
	})

	items, err := store.StudioItemsBySeries(ctx, series.ID)
	if err != nil {
		t.Fatalf("StudioItemsBySeries: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("unexpected items: %#v", items)
	}
	if items[0].Type != catalog.ItemCharacter || items[0].RefImageURLs != "http://hero-1.jpg, http://hero-2.jpg" {
		t.Fatalf("item fields not round-tripped: %#v", items[0])
	}

	fetched, err := store.GetStudioItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetStudioItem: %v", err)
	}
	if fetched == nil || fetched.Name != "Hero" || fetched.Description != "Stoic lead" {
		t.Fatalf("unexpected item: %#v", fetched)
	}
	if missing, err := store.GetStudioItem(ctx, "no-such-item"); err != nil || missing != nil {
		t.Fatalf("missing item should be nil, nil: %#v, %v", missing, err)
	}
}

func TestStudioItemRejectsUnknownType(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	series := testsupport.MustSeries(t, store, "Series")
	_, err := store.CreateStudioItem(context.Background(), &catalog.StudioItem{
		SeriesID: series.ID,
		Type:     "WARDROBE",
		Name:     "Coat",
	})
	if err == nil {
		t.Fatal("expected unknown item type to fail")
	}
}

func TestArchiveClipAdvancesVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)
	clip := testsupport.MustClip(t, store, &catalog.Clip{EpisodeID: episode.ID})

	if _, err := store.ArchiveClip(ctx, clip.ID); err == nil {
		t.Fatal("archiving a clip without a result should fail")
	}

	done := catalog.Done
	if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &done}); err != nil {
		t.Fatalf("ApplyClipUpdate: %v", err)
	}

	for _, want := range []string{"Saved", "Saved [2]", "Saved [3]"} {
		status, err := store.ArchiveClip(ctx, clip.ID)
		if err != nil {
			t.Fatalf("ArchiveClip: %v", err)
		}
		if status.String() != want {
			t.Fatalf("archive advanced to %q, want %q", status, want)
		}
	}
}

func TestStatusCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	series := testsupport.MustSeries(t, store, "Series")
	episode := testsupport.MustEpisode(t, store, series.ID, 1)

	statuses := []catalog.Status{catalog.Generating, catalog.Generating, catalog.Done, catalog.Saved(2)}
	for i, status := range statuses {
		clip := testsupport.MustClip(t, store, &catalog.Clip{EpisodeID: episode.ID, Title: fmt.Sprintf("c%d", i)})
		st := status
		if err := store.ApplyClipUpdate(ctx, clip.ID, catalog.ClipUpdate{Status: &st}); err != nil {
			t.Fatalf("ApplyClipUpdate: %v", err)
		}
	}

	counts, err := store.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts["Generating"] != 2 || counts["Done"] != 1 || counts["Saved [2]"] != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}
