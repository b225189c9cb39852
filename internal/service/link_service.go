package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"musicweb/internal/ports"
)

// botUnlinkedErrors are the bot responses that mean the code is already
// gone on the bot side. Logout treats any of them as successful convergence
// to the unlinked state. The strings are coupled to the bot service's error
// messages; if the bot changes them this set must change with it.
var botUnlinkedErrors = map[string]struct{}{
	"code not found":           {},
	"user not found":           {},
	"invalid code":             {},
	"user_id or code required": {},
}

// LinkService coordinates the three bot-facing operations: link, send-song,
// and logout. Methods return the HTTP status and response body verbatim;
// the session passed in is the only state they mutate.
type LinkService struct {
	logger *slog.Logger
	bot    ports.BotClient
}

func NewLinkService(logger *slog.Logger, bot ports.BotClient) *LinkService {
	return &LinkService{logger: logger, bot: bot}
}

func (s *LinkService) Link(ctx context.Context, sess ports.LinkSession, rawCode string) (int, map[string]any) {
	if strings.TrimSpace(rawCode) == "" {
		return http.StatusBadRequest, map[string]any{"error": "code required"}
	}
	code := NormalizeCode(rawCode)
	if code == "" {
		return http.StatusBadRequest, map[string]any{"error": "invalid code"}
	}

	result := s.bot.LinkByCode(ctx, code)
	switch {
	case result.Status == http.StatusOK:
		sess.SetLinked(code)
		return http.StatusOK, map[string]any{"status": "linked", "code": code}
	case result.Status == http.StatusUnauthorized:
		return http.StatusBadGateway, map[string]any{"error": "bot unauthorized (check API key)"}
	default:
		return http.StatusBadRequest, map[string]any{"error": errorOr(result, fmt.Sprintf("link failed (%d)", result.Status))}
	}
}

func (s *LinkService) SendSong(ctx context.Context, sess ports.LinkSession, rawQuery string, rawCode string) (int, map[string]any) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return http.StatusBadRequest, map[string]any{"error": "query required"}
	}
	code := NormalizeCode(firstNonEmpty(rawCode, sess.LinkedCode()))
	if code == "" {
		return http.StatusBadRequest, map[string]any{"error": "no linked code (link first)"}
	}

	result := s.bot.SendSongByCode(ctx, code, query)
	switch {
	case result.Status == http.StatusOK:
		// Refresh the stored code; re-asserting the same value is fine.
		sess.SetLinked(code)
		return http.StatusOK, map[string]any{"status": "scheduled"}
	case result.Status == http.StatusUnauthorized:
		return http.StatusBadGateway, map[string]any{"error": "bot unauthorized (check API key)"}
	default:
		return http.StatusBadRequest, map[string]any{"error": errorOr(result, fmt.Sprintf("send failed (%d)", result.Status))}
	}
}

// Logout converges the session toward the unlinked state. With no resolvable
// code the session is cleared locally and the bot is never contacted; a bot
// response saying the code is already gone also clears the session. Auth
// failures and bot 5xx leave the session untouched since the bot's true
// state is unknown.
func (s *LinkService) Logout(ctx context.Context, sess ports.LinkSession, rawCode string) (int, map[string]any) {
	code := NormalizeCode(firstNonEmpty(rawCode, sess.LinkedCode()))
	if code == "" {
		sess.Clear()
		return http.StatusOK, map[string]any{"status": "not_linked"}
	}

	result := s.bot.LogoutByCode(ctx, code)
	s.logger.Info("logout", "code", code, "bot_status", result.Status, "bot_error", result.ErrorText())

	if result.Status == http.StatusOK {
		sess.Clear()
		return http.StatusOK, map[string]any{"status": "logged_out"}
	}
	if _, gone := botUnlinkedErrors[result.ErrorText()]; gone {
		sess.Clear()
		return http.StatusOK, map[string]any{"status": "not_linked"}
	}
	if result.Status == http.StatusUnauthorized {
		return http.StatusBadGateway, map[string]any{"error": "bot unauthorized (check API key)"}
	}
	if result.Status >= 500 && result.Status < 600 {
		return http.StatusBadGateway, map[string]any{"error": "bot service error", "detail": result.ErrorText()}
	}
	return http.StatusBadRequest, map[string]any{
		"error":  errorOr(result, fmt.Sprintf("logout failed (%d)", result.Status)),
		"detail": result.Body,
	}
}

func errorOr(result ports.BotResult, fallback string) string {
	if text := result.ErrorText(); text != "" {
		return text
	}
	return fallback
}
