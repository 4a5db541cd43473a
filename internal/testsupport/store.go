package testsupport

import (
	"context"
	"testing"

	"callboard/internal/catalog"
	"callboard/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSeries creates a series for tests.
func MustSeries(t testing.TB, store *catalog.Store, title string) *catalog.Series {
	t.Helper()

	series, err := store.CreateSeries(context.Background(), title)
	if err != nil {
		t.Fatalf("store.CreateSeries: %v", err)
	}
	return series
}

// MustEpisode creates an episode for tests.
func MustEpisode(t testing.TB, store *catalog.Store, seriesID string, number int) *catalog.Episode {
	t.Helper()

	episode, err := store.CreateEpisode(context.Background(), seriesID, number, "", "")
	if err != nil {
		t.Fatalf("store.CreateEpisode: %v", err)
	}
	return episode
}

// MustClip creates a clip for tests.
func MustClip(t testing.TB, store *catalog.Store, clip *catalog.Clip) *catalog.Clip {
	t.Helper()

	created, err := store.CreateClip(context.Background(), clip)
	if err != nil {
		t.Fatalf("store.CreateClip: %v", err)
	}
	return created
}

// MustStudioItem creates a library asset for tests.
func MustStudioItem(t testing.TB, store *catalog.Store, item *catalog.StudioItem) *catalog.StudioItem {
	t.Helper()

	created, err := store.CreateStudioItem(context.Background(), item)
	if err != nil {
		t.Fatalf("store.CreateStudioItem: %v", err)
	}
	return created
}
