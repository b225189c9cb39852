package service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"musicweb/internal/ports"
)

const (
	historyLimit     = 200
	favoritesDefault = 500
	favoritesMax     = 1000
	chartsDefault    = 20
	chartsMax        = 100
)

var chartPeriodDays = map[string]int{
	"week":  7,
	"month": 30,
	"year":  365,
}

// cutoffLayout matches the datetime text the bot writes, so cutoff
// comparisons collate correctly against stored values.
const cutoffLayout = "2006-01-02 15:04:05"

// LibraryService serves the read-only endpoints backed by the bot-owned
// store. No bot HTTP calls happen here and the session is never mutated.
type LibraryService struct {
	logger *slog.Logger
	repo   ports.LibraryRepository
	now    func() time.Time
}

func NewLibraryService(logger *slog.Logger, repo ports.LibraryRepository) *LibraryService {
	return &LibraryService{logger: logger, repo: repo, now: time.Now}
}

func (s *LibraryService) History(ctx context.Context, sess ports.LinkSession, rawCode string) (int, map[string]any) {
	userID, status, body := s.resolveUser(ctx, sess, rawCode, "history unavailable")
	if body != nil {
		return status, body
	}

	items, err := s.repo.HistoryByUser(ctx, userID, historyLimit)
	if err != nil {
		s.logger.Error("history query failed", "user_id", userID, "error", err)
		return http.StatusBadRequest, map[string]any{"error": "history unavailable", "detail": err.Error()}
	}
	return http.StatusOK, map[string]any{"items": items}
}

func (s *LibraryService) Favorites(ctx context.Context, sess ports.LinkSession, rawCode string, rawLimit string) (int, map[string]any) {
	userID, status, body := s.resolveUser(ctx, sess, rawCode, "favorites unavailable")
	if body != nil {
		return status, body
	}

	limit := ParseBoundedInt(rawLimit, favoritesDefault, 1, favoritesMax)
	items, err := s.repo.FavoritesByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("favorites query failed", "user_id", userID, "error", err)
		return http.StatusBadRequest, map[string]any{"error": "favorites unavailable", "detail": err.Error()}
	}
	return http.StatusOK, map[string]any{"items": items, "limit": limit}
}

func (s *LibraryService) Charts(ctx context.Context, rawPeriod string, rawLimit string) (int, map[string]any) {
	period := strings.ToLower(strings.TrimSpace(rawPeriod))
	if period == "" {
		period = "week"
	}
	limit := ParseBoundedInt(rawLimit, chartsDefault, 1, chartsMax)

	cutoff := ""
	if days, ok := chartPeriodDays[period]; ok {
		cutoff = s.now().UTC().AddDate(0, 0, -days).Format(cutoffLayout)
	} else if period != "all" && period != "*" {
		return http.StatusBadRequest, map[string]any{"error": "invalid period"}
	}

	items, err := s.repo.TopTracks(ctx, cutoff, limit)
	if err != nil {
		s.logger.Error("charts query failed", "period", period, "error", err)
		return http.StatusBadRequest, map[string]any{"error": "charts unavailable", "detail": err.Error()}
	}
	return http.StatusOK, map[string]any{"items": items, "period": period, "limit": limit}
}

func (s *LibraryService) UserByToken(ctx context.Context, rawToken string) (int, map[string]any) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return http.StatusBadRequest, map[string]any{"error": "token required"}
	}
	code, ok := parseLinkCode(NormalizeCode(token))
	if !ok {
		return http.StatusBadRequest, map[string]any{"error": "invalid token"}
	}

	user, found, err := s.repo.UserByLinkCode(ctx, code)
	if err != nil {
		s.logger.Error("user lookup failed", "error", err)
		return http.StatusBadRequest, map[string]any{"error": "lookup failed", "detail": err.Error()}
	}
	if !found {
		return http.StatusNotFound, map[string]any{"error": "user not found"}
	}
	return http.StatusOK, map[string]any{"user": user}
}

// resolveUser maps the request's code (or the session's) to the bot-side
// user id. A non-nil body means the caller should return (status, body).
func (s *LibraryService) resolveUser(ctx context.Context, sess ports.LinkSession, rawCode string, unavailable string) (int64, int, map[string]any) {
	code := NormalizeCode(firstNonEmpty(rawCode, sess.LinkedCode()))
	if code == "" {
		return 0, http.StatusBadRequest, map[string]any{"error": "no linked code"}
	}
	linkCode, ok := parseLinkCode(code)
	if !ok {
		return 0, http.StatusBadRequest, map[string]any{"error": "code not found"}
	}

	userID, found, err := s.repo.UserIDByLinkCode(ctx, linkCode)
	if err != nil {
		s.logger.Error("link code lookup failed", "error", err)
		return 0, http.StatusBadRequest, map[string]any{"error": unavailable, "detail": err.Error()}
	}
	if !found {
		return 0, http.StatusBadRequest, map[string]any{"error": "code not found"}
	}
	return userID, 0, nil
}

// parseLinkCode turns a normalized digit string into the numeric key used
// by the store. Codes too long for int64 cannot exist there.
func parseLinkCode(code string) (int64, bool) {
	if code == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
