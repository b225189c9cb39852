package botapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"musicweb/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) config.Config {
	return config.Config{
		BotAPIBase: baseURL,
		BotAPIKey:  "secret-key",
		BotTimeout: 2 * time.Second,
	}
}

func TestLinkByCodeSendsPayloadAndAPIKey(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.LinkByCode(context.Background(), "12345678")

	if result.Status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.Status)
	}
	if gotPath != "/api/link_by_code" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Fatalf("expected X-Api-Key header, got %q", gotKey)
	}
	if gotBody["code"] != "12345678" {
		t.Fatalf("unexpected payload: %+v", gotBody)
	}
}

func TestLogoutByCodeIncludesSource(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.LogoutByCode(context.Background(), "555")

	if result.Status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.Status)
	}
	if gotBody["source"] != "web" {
		t.Fatalf("expected source=web in payload, got %+v", gotBody)
	}
}

func TestErrorStatusAndBodyPassThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"code not found"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.SendSongByCode(context.Background(), "555", "some song")

	if result.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", result.Status)
	}
	if result.ErrorText() != "code not found" {
		t.Fatalf("unexpected error text %q", result.ErrorText())
	}
}

func TestNonJSONBodyBecomesErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream exploded")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.LinkByCode(context.Background(), "1")

	if result.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", result.Status)
	}
	if result.ErrorText() != "upstream exploded" {
		t.Fatalf("unexpected error text %q", result.ErrorText())
	}
}

func TestTransportFailureSynthesizes500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.LinkByCode(context.Background(), "1")

	if result.Status != http.StatusInternalServerError {
		t.Fatalf("expected synthesized 500, got %d", result.Status)
	}
	if result.ErrorText() == "" {
		t.Fatal("expected synthesized error text")
	}
}

func TestEmptyBodyDecodesToEmptyMap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), testLogger())
	result := client.LinkByCode(context.Background(), "1")

	if result.Status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", result.Status)
	}
	if len(result.Body) != 0 {
		t.Fatalf("expected empty body map, got %+v", result.Body)
	}
	if result.ErrorText() != "" {
		t.Fatalf("expected no error text, got %q", result.ErrorText())
	}
}
