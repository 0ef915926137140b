// Package web holds the HTTP plumbing shared by the storefront handlers:
// cookie sessions, flash messages, JSON responses and middleware.
package web

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "storefront"
	userIDKey   = "user_id"
)

// Flash levels mirror the ones the back office renders.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func init() {
	gob.Register(Flash{})
}

// Sessions wraps the cookie store that carries the visitor's cart,
// the logged in admin and pending flash messages.
type Sessions struct {
	store sessions.Store
}

func NewSessions(secret []byte, secure bool) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// Get returns the visitor's session. A tampered or expired cookie yields a
// fresh, empty session instead of an error.
func (s *Sessions) Get(r *http.Request) *sessions.Session {
	session, _ := s.store.Get(r, sessionName)
	return session
}

func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, session *sessions.Session) error {
	return session.Save(r, w)
}

// UserID returns the id of the logged in admin, if any.
func (s *Sessions) UserID(r *http.Request) (uint, bool) {
	id, ok := s.Get(r).Values[userIDKey].(uint)
	return id, ok && id != 0
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	session := s.Get(r)
	session.Values[userIDKey] = userID
	return session.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session := s.Get(r)
	delete(session.Values, userIDKey)
	return session.Save(r, w)
}

// AddFlash queues a message for the next page the visitor sees.
func (s *Sessions) AddFlash(w http.ResponseWriter, r *http.Request, level, message string) error {
	session := s.Get(r)
	session.AddFlash(Flash{Level: level, Message: message})
	return session.Save(r, w)
}

// Flashes pops every pending message.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session := s.Get(r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return []Flash{}
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	_ = session.Save(r, w)
	return flashes
}
