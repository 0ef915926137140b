package web

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/models"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request once it completes.
func Logging(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
			"ip":       r.RemoteAddr,
		}).Info("Request completed")
	})
}

// UserLookup resolves the account behind a session.
type UserLookup interface {
	GetByID(id uint) (*models.User, error)
}

// RequireLogin sends anonymous visitors to the login page. A session whose
// account no longer exists is logged out and treated as anonymous.
func RequireLogin(s *Sessions, users UserLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := s.Get(r)
		if id, ok := session.Values[userIDKey].(uint); ok && id != 0 {
			_, err := users.GetByID(id)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
				return
			case errors.Is(err, models.ErrUserNotFound):
				delete(session.Values, userIDKey)
			default:
				WriteError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		if r.Method != http.MethodGet {
			_ = session.Save(r, w)
			WriteError(w, http.StatusUnauthorized, "Please log in to access this page.")
			return
		}
		session.AddFlash(Flash{Level: FlashInfo, Message: "Please log in to access this page."})
		_ = session.Save(r, w)
		Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()))
	})
}
