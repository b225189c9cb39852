// Package botapi is the HTTP client for the bot backend's internal API.
// Every call is a single JSON POST authenticated with a shared-secret
// header. The web tier must keep serving when the bot is down, so calls
// never return errors: anything that prevents reading a response becomes a
// synthesized (500, {error}) result.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"musicweb/internal/config"
	"musicweb/internal/ports"
)

type Client struct {
	baseURL string
	apiKey  string
	logger  *slog.Logger
	http    *http.Client
}

func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BotAPIBase, "/"),
		apiKey:  cfg.BotAPIKey,
		logger:  logger,
		http:    &http.Client{Timeout: cfg.BotTimeout},
	}
}

// CheckConnectivity reports whether the bot backend answers HTTP at all.
// Any response counts as reachable; only transport failures are errors.
func CheckConnectivity(ctx context.Context, cfg config.Config) error {
	client := &http.Client{Timeout: cfg.BotTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(cfg.BotAPIBase, "/")+"/", nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func (c *Client) LinkByCode(ctx context.Context, code string) ports.BotResult {
	return c.post(ctx, "/api/link_by_code", map[string]any{"code": code})
}

func (c *Client) SendSongByCode(ctx context.Context, code string, query string) ports.BotResult {
	return c.post(ctx, "/api/send_song_by_code", map[string]any{"code": code, "query": query})
}

func (c *Client) LogoutByCode(ctx context.Context, code string) ports.BotResult {
	return c.post(ctx, "/api/logout", map[string]any{"code": code, "source": "web"})
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) ports.BotResult {
	url := c.baseURL + path

	raw, err := json.Marshal(payload)
	if err != nil {
		return c.failure(url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return c.failure(url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return c.failure(url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return c.failure(url, err)
	}

	return ports.BotResult{Status: res.StatusCode, Body: decodeBody(body)}
}

func (c *Client) failure(url string, err error) ports.BotResult {
	c.logger.Error("bot call failed", "url", url, "error", err)
	return ports.BotResult{
		Status: http.StatusInternalServerError,
		Body:   map[string]any{"error": fmt.Sprintf("bot request failed: %v", err)},
	}
}

// decodeBody parses a JSON object response; anything else is wrapped as an
// error string so callers always see a map.
func decodeBody(raw []byte) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}
	}
	var decoded map[string]any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return map[string]any{"error": string(trimmed)}
	}
	return decoded
}
