package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/suportesmart/storefront/app/web"
)

const sessionKey = "cart"

// BadgeHeader carries the cart item count on every response.
const BadgeHeader = "X-Cart-Item-Count"

// Load reads the cart stored in the visitor's session.
// A missing or unreadable cart is an empty one.
func Load(s *web.Sessions, r *http.Request) Cart {
	raw, ok := s.Get(r).Values[sessionKey].(string)
	if !ok || raw == "" {
		return New()
	}
	c := New()
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return New()
	}
	for k, item := range c {
		if item.Quantity < 1 {
			delete(c, k)
		}
	}
	return c
}

// Store writes the cart back into the visitor's session.
func Store(s *web.Sessions, w http.ResponseWriter, r *http.Request, c Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	session := s.Get(r)
	session.Values[sessionKey] = string(raw)
	if err := s.Save(w, r, session); err != nil {
		return err
	}
	w.Header().Set(BadgeHeader, strconv.Itoa(c.ItemCount()))
	return nil
}

// badgeWriter fills in the badge header right before the response is sent,
// unless the handler already stored a new cart and set it.
type badgeWriter struct {
	http.ResponseWriter
	count func() int
	sent  bool
}

func (b *badgeWriter) setBadge() {
	if b.sent {
		return
	}
	b.sent = true
	if b.Header().Get(BadgeHeader) == "" {
		b.Header().Set(BadgeHeader, strconv.Itoa(b.count()))
	}
}

func (b *badgeWriter) WriteHeader(status int) {
	b.setBadge()
	b.ResponseWriter.WriteHeader(status)
}

func (b *badgeWriter) Write(p []byte) (int, error) {
	b.setBadge()
	return b.ResponseWriter.Write(p)
}

func (b *badgeWriter) Unwrap() http.ResponseWriter {
	return b.ResponseWriter
}

// Badge exposes the item count on every response so any page can render
// the cart badge. Routes that change the cart report the updated count.
func Badge(s *web.Sessions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bw := &badgeWriter{
			ResponseWriter: w,
			count:          func() int { return Load(s, r).ItemCount() },
		}
		next.ServeHTTP(bw, r)
		bw.setBadge()
	})
}
