package ports

import (
	"context"
	"strings"

	"musicweb/internal/domain"
)

// BotResult is the transport-level outcome of one bot backend call. Calls
// never return Go errors: transport failures are synthesized into a 500
// result by the client so coordinators only ever branch on status and body.
type BotResult struct {
	Status int
	Body   map[string]any
}

// ErrorText returns the body's "error" string, or "" when absent.
func (r BotResult) ErrorText() string {
	if r.Body == nil {
		return ""
	}
	if text, ok := r.Body["error"].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

type BotClient interface {
	LinkByCode(ctx context.Context, code string) BotResult
	SendSongByCode(ctx context.Context, code string, query string) BotResult
	LogoutByCode(ctx context.Context, code string) BotResult
}

// LinkSession is the per-browser link state: a linked flag and the linked
// code. Coordinators are the only writers; read services only ever source a
// default code from it.
type LinkSession interface {
	LinkedCode() string
	SetLinked(code string)
	Clear()
}

type LibraryRepository interface {
	UserIDByLinkCode(ctx context.Context, code int64) (int64, bool, error)
	HistoryByUser(ctx context.Context, userID int64, limit int) ([]domain.HistoryItem, error)
	FavoritesByUser(ctx context.Context, userID int64, limit int) ([]domain.Track, error)
	TopTracks(ctx context.Context, since string, limit int) ([]domain.ChartItem, error)
	UserByLinkCode(ctx context.Context, code int64) (domain.User, bool, error)
}
