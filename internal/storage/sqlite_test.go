package storage

import (
	"context"
	"path/filepath"
	"testing"

	"musicweb/internal/config"
)

func openTestStore(t *testing.T) *LibraryStore {
	t.Helper()
	cfg := config.Config{DatabasePath: filepath.Join(t.TempDir(), "musicbot.db")}
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.CreateFixtureSchema(context.Background()); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	return store
}

func seed(t *testing.T, store *LibraryStore, query string, args ...any) {
	t.Helper()
	if _, err := store.db.Exec(query, args...); err != nil {
		t.Fatalf("seed %q: %v", query, err)
	}
}

func seedBasics(t *testing.T, store *LibraryStore) {
	t.Helper()
	seed(t, store, `INSERT INTO users (id, username, first_name, website_linked, website_link_code) VALUES (101, 'john', 'John', 1, 777);`)
	seed(t, store, `INSERT INTO users (id, username, website_linked, website_link_code) VALUES (102, 'jane', 0, 888);`)
	seed(t, store, `INSERT INTO tracks (id, title, artist, youtube_url, thumbnail_url, duration) VALUES
		(1, 'Get Lucky', 'Daft Punk', 'https://youtu.be/a1', 'https://img/a1.jpg', 248),
		(2, 'One More Time', 'Daft Punk', 'https://youtu.be/a2', NULL, 320),
		(3, 'Around the World', NULL, 'https://youtu.be/a3', 'https://img/a3.jpg', 425);`)
}

func TestUserIDByLinkCode(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	userID, found, err := store.UserIDByLinkCode(ctx, 777)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found || userID != 101 {
		t.Fatalf("unexpected lookup result: found=%v userID=%d", found, userID)
	}

	_, found, err = store.UserIDByLinkCode(ctx, 999)
	if err != nil {
		t.Fatalf("missing lookup: %v", err)
	}
	if found {
		t.Fatal("expected unknown code to report not found")
	}
}

func TestHistoryByUserOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	seed(t, store, `INSERT INTO history (user_id, track_id, downloaded_at) VALUES
		(101, 1, '2026-08-01 10:00:00'),
		(101, 2, '2026-08-03 09:30:00'),
		(101, 3, '2026-08-02 18:45:00'),
		(102, 1, '2026-08-04 12:00:00');`)

	items, err := store.HistoryByUser(context.Background(), 101, 200)
	if err != nil {
		t.Fatalf("history query: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 history items, got %d", len(items))
	}
	if items[0].Title != "One More Time" || items[1].Title != "Around the World" || items[2].Title != "Get Lucky" {
		t.Fatalf("unexpected ordering: %q, %q, %q", items[0].Title, items[1].Title, items[2].Title)
	}
	if items[0].ThumbnailURL != "" {
		t.Fatalf("expected NULL thumbnail to scan as empty string, got %q", items[0].ThumbnailURL)
	}
	if items[0].DownloadedAt != "2026-08-03 09:30:00" {
		t.Fatalf("unexpected downloaded_at %q", items[0].DownloadedAt)
	}
}

func TestHistoryByUserAppliesLimit(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	seed(t, store, `INSERT INTO history (user_id, track_id, downloaded_at) VALUES
		(101, 1, '2026-08-01 10:00:00'),
		(101, 2, '2026-08-02 10:00:00'),
		(101, 3, '2026-08-03 10:00:00');`)

	items, err := store.HistoryByUser(context.Background(), 101, 2)
	if err != nil {
		t.Fatalf("history query: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected limit of 2 items, got %d", len(items))
	}
}

func TestFavoritesByUser(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	seed(t, store, `INSERT INTO favorites (user_id, track_id) VALUES (101, 1), (101, 3), (102, 2);`)

	items, err := store.FavoritesByUser(context.Background(), 101, 500)
	if err != nil {
		t.Fatalf("favorites query: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 favorites, got %d", len(items))
	}
	// Newest favorite first.
	if items[0].Title != "Around the World" || items[1].Title != "Get Lucky" {
		t.Fatalf("unexpected ordering: %q, %q", items[0].Title, items[1].Title)
	}
	if items[0].Artist != "" {
		t.Fatalf("expected NULL artist to scan as empty string, got %q", items[0].Artist)
	}
}

func TestTopTracksAggregatesAndOrders(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	seed(t, store, `INSERT INTO history (user_id, track_id, downloaded_at) VALUES
		(101, 1, '2026-08-01 10:00:00'),
		(102, 1, '2026-08-02 10:00:00'),
		(101, 1, '2026-08-03 10:00:00'),
		(101, 2, '2026-08-02 11:00:00'),
		(102, 2, '2026-08-05 11:00:00'),
		(101, 3, '2026-08-04 12:00:00');`)

	items, err := store.TopTracks(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("charts query: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 chart rows, got %d", len(items))
	}
	if items[0].Title != "Get Lucky" || items[0].Downloads != 3 {
		t.Fatalf("unexpected top row: %q downloads=%d", items[0].Title, items[0].Downloads)
	}
	if items[0].FirstDownloaded != "2026-08-01 10:00:00" || items[0].LastDownloaded != "2026-08-03 10:00:00" {
		t.Fatalf("unexpected first/last: %q / %q", items[0].FirstDownloaded, items[0].LastDownloaded)
	}
	if items[1].Title != "One More Time" || items[1].Downloads != 2 {
		t.Fatalf("unexpected second row: %q downloads=%d", items[1].Title, items[1].Downloads)
	}
}

func TestTopTracksHonorsCutoffAndLimit(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	seed(t, store, `INSERT INTO history (user_id, track_id, downloaded_at) VALUES
		(101, 1, '2026-01-01 10:00:00'),
		(101, 1, '2026-01-02 10:00:00'),
		(101, 2, '2026-08-02 11:00:00'),
		(101, 3, '2026-08-04 12:00:00'),
		(102, 3, '2026-08-05 12:00:00');`)

	items, err := store.TopTracks(context.Background(), "2026-08-01 00:00:00", 1)
	if err != nil {
		t.Fatalf("charts query: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected limit of 1 row, got %d", len(items))
	}
	// Track 1's downloads predate the cutoff, so track 3 leads.
	if items[0].Title != "Around the World" || items[0].Downloads != 2 {
		t.Fatalf("unexpected row: %q downloads=%d", items[0].Title, items[0].Downloads)
	}
}

func TestUserByLinkCode(t *testing.T) {
	store := openTestStore(t)
	seedBasics(t, store)
	ctx := context.Background()

	user, found, err := store.UserByLinkCode(ctx, 777)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found {
		t.Fatal("expected user for code 777")
	}
	if user.ID != 101 || user.Username != "john" || user.FirstName != "John" || !user.WebsiteLinked {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastName != "" {
		t.Fatalf("expected NULL last_name to scan as empty string, got %q", user.LastName)
	}

	_, found, err = store.UserByLinkCode(ctx, 12345)
	if err != nil {
		t.Fatalf("missing lookup: %v", err)
	}
	if found {
		t.Fatal("expected unknown code to report not found")
	}
}
