// Package storage reads the relational store the bot process owns. The
// tracks, history, users, and favorites tables are created and written by
// the bot; this tier only queries them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"musicweb/internal/config"
	"musicweb/internal/domain"
	_ "modernc.org/sqlite"
)

type LibraryStore struct {
	db *sql.DB
}

func Open(cfg config.Config) (*LibraryStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	store := &LibraryStore{db: db}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *LibraryStore) Close() error {
	return s.db.Close()
}

func (s *LibraryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateFixtureSchema creates the bot's tables. In production they already
// exist; this is for tests and empty development databases only.
func (s *LibraryStore) CreateFixtureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist TEXT,
			youtube_url TEXT NOT NULL UNIQUE,
			thumbnail_url TEXT,
			duration INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			website_linked INTEGER NOT NULL DEFAULT 0,
			website_link_code INTEGER UNIQUE,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			track_id INTEGER NOT NULL REFERENCES tracks(id),
			downloaded_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE INDEX IF NOT EXISTS ix_history_user ON history(user_id);`,
		`CREATE INDEX IF NOT EXISTS ix_history_track ON history(track_id);`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			track_id INTEGER NOT NULL REFERENCES tracks(id)
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("run fixture query: %w", err)
		}
	}

	return nil
}

func (s *LibraryStore) UserIDByLinkCode(ctx context.Context, code int64) (int64, bool, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE website_link_code = ? LIMIT 1;
	`, code).Scan(&userID)
	if err == nil {
		return userID, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	return 0, false, err
}

func (s *LibraryStore) HistoryByUser(ctx context.Context, userID int64, limit int) ([]domain.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.youtube_url, t.thumbnail_url, t.duration, h.downloaded_at
		FROM history h
		JOIN tracks t ON t.id = h.track_id
		WHERE h.user_id = ?
		ORDER BY h.downloaded_at DESC
		LIMIT ?;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.HistoryItem, 0)
	for rows.Next() {
		var item domain.HistoryItem
		var artist, thumbnail sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &artist, &item.YouTubeURL, &thumbnail, &item.Duration, &item.DownloadedAt); err != nil {
			return nil, err
		}
		item.Artist = artist.String
		item.ThumbnailURL = thumbnail.String
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LibraryStore) FavoritesByUser(ctx context.Context, userID int64, limit int) ([]domain.Track, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.youtube_url, t.thumbnail_url, t.duration
		FROM favorites f
		JOIN tracks t ON t.id = f.track_id
		WHERE f.user_id = ?
		ORDER BY f.id DESC
		LIMIT ?;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Track, 0)
	for rows.Next() {
		var track domain.Track
		var artist, thumbnail sql.NullString
		if err := rows.Scan(&track.ID, &track.Title, &artist, &track.YouTubeURL, &thumbnail, &track.Duration); err != nil {
			return nil, err
		}
		track.Artist = artist.String
		track.ThumbnailURL = thumbnail.String
		out = append(out, track)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TopTracks aggregates download counts per track. since is a cutoff in the
// store's own datetime text form; empty means the whole history.
func (s *LibraryStore) TopTracks(ctx context.Context, since string, limit int) ([]domain.ChartItem, error) {
	query := `
		SELECT t.id, t.title, t.artist, t.youtube_url, t.thumbnail_url, t.duration,
			COUNT(h.id) AS downloads,
			MIN(h.downloaded_at) AS first_downloaded,
			MAX(h.downloaded_at) AS last_downloaded
		FROM history h
		JOIN tracks t ON t.id = h.track_id
		%s
		GROUP BY t.id, t.title, t.artist, t.youtube_url, t.thumbnail_url, t.duration
		ORDER BY downloads DESC, last_downloaded DESC
		LIMIT ?;
	`
	args := []any{limit}
	if since == "" {
		query = fmt.Sprintf(query, "")
	} else {
		query = fmt.Sprintf(query, "WHERE h.downloaded_at >= ?")
		args = []any{since, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChartItem, 0)
	for rows.Next() {
		var item domain.ChartItem
		var artist, thumbnail sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &artist, &item.YouTubeURL, &thumbnail, &item.Duration,
			&item.Downloads, &item.FirstDownloaded, &item.LastDownloaded); err != nil {
			return nil, err
		}
		item.Artist = artist.String
		item.ThumbnailURL = thumbnail.String
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *LibraryStore) UserByLinkCode(ctx context.Context, code int64) (domain.User, bool, error) {
	var user domain.User
	var username, firstName, lastName sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, website_linked, created_at
		FROM users
		WHERE website_link_code = ?
		LIMIT 1;
	`, code).Scan(&user.ID, &username, &firstName, &lastName, &user.WebsiteLinked, &user.CreatedAt)
	if err == nil {
		user.Username = username.String
		user.FirstName = firstName.String
		user.LastName = lastName.String
		return user, true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, false, nil
	}
	return domain.User{}, false, err
}
