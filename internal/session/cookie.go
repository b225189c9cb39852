// Package session keeps the browser's link state in a signed cookie. The
// payload is just the linked flag, the linked code, and a session id for log
// correlation; nothing is stored server-side.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"musicweb/internal/config"
)

type State struct {
	ID        string `json:"sid"`
	Linked    bool   `json:"linked"`
	Code      string `json:"linked_code,omitempty"`
	ExpiresAt int64  `json:"exp"`

	dirty   bool
	cleared bool
}

func (s *State) LinkedCode() string {
	return s.Code
}

func (s *State) SetLinked(code string) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Linked = true
	s.Code = code
	s.dirty = true
	s.cleared = false
}

func (s *State) Clear() {
	s.Linked = false
	s.Code = ""
	s.dirty = true
	s.cleared = true
}

func (s *State) Dirty() bool {
	return s.dirty
}

type CookieStore struct {
	name   string
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewCookieStore(cfg config.Config) *CookieStore {
	return &CookieStore{
		name:   cfg.SessionCookieName,
		secret: []byte(cfg.SessionSecret),
		maxAge: cfg.SessionMaxAge,
		now:    time.Now,
	}
}

// Load decodes the session cookie. A missing, tampered, malformed, or
// expired cookie yields a fresh empty state, never an error.
func (cs *CookieStore) Load(r *http.Request) *State {
	cookie, err := r.Cookie(cs.name)
	if err != nil {
		return &State{}
	}

	state, ok := cs.decode(cookie.Value)
	if !ok {
		return &State{}
	}
	if state.ExpiresAt != 0 && cs.now().Unix() > state.ExpiresAt {
		return &State{}
	}
	return state
}

// Save writes the cookie when the state was mutated during the request.
// Cleared states drop the cookie instead. Must run before the response body
// is written.
func (cs *CookieStore) Save(w http.ResponseWriter, state *State) {
	if state == nil || !state.dirty {
		return
	}

	if state.cleared {
		http.SetCookie(w, &http.Cookie{
			Name:     cs.name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		return
	}

	state.ExpiresAt = cs.now().Add(cs.maxAge).Unix()
	http.SetCookie(w, &http.Cookie{
		Name:     cs.name,
		Value:    cs.encode(state),
		Path:     "/",
		MaxAge:   int(cs.maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cs *CookieStore) encode(state *State) string {
	raw, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + cs.sign(payload)
}

func (cs *CookieStore) decode(value string) (*State, bool) {
	payload, signature, found := strings.Cut(value, ".")
	if !found {
		return nil, false
	}
	if !hmac.Equal([]byte(cs.sign(payload)), []byte(signature)) {
		return nil, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false
	}
	return &state, true
}

func (cs *CookieStore) sign(payload string) string {
	mac := hmac.New(sha256.New, cs.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
