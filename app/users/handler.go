package users

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

const defaultLanding = "/admin"

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type ListResponse struct {
	Users   []UserResponse `json:"users"`
	Flashes []web.Flash    `json:"flashes"`
}

type LoginPage struct {
	Authenticated bool        `json:"authenticated"`
	Next          string      `json:"next"`
	Flashes       []web.Flash `json:"flashes"`
}

type UserHandler struct {
	service  *Service
	sessions *web.Sessions
	log      logrus.FieldLogger
}

func NewUserHandler(service *Service, sessions *web.Sessions, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{service: service, sessions: sessions, log: logger}
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List()
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch users")
		web.WriteError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = UserResponse{ID: u.ID, Username: u.Username}
	}
	web.WriteJSON(w, http.StatusOK, ListResponse{
		Users:   response,
		Flashes: h.sessions.Flashes(w, r),
	})
}

func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Create(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			web.WriteValidation(w, verrs)
			return
		}
		h.log.WithError(err).Error("Failed to create user")
		web.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.flash(w, r, web.FlashSuccess, fmt.Sprintf("User %q created!", user.Username))
	web.Redirect(w, r, "/admin/users")
}

func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	actorID, _ := h.sessions.UserID(r)

	user, err := h.service.Delete(actorID, id)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		web.WriteError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, ErrSelfDeletion):
		h.flash(w, r, web.FlashWarning, "You cannot delete your own account.")
	case errors.Is(err, ErrPrimordialAdmin):
		h.flash(w, r, web.FlashWarning, "The primary administrator cannot be deleted.")
	case err != nil:
		h.log.WithError(err).Error("Failed to delete user")
		web.WriteError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	default:
		h.flash(w, r, web.FlashDanger, fmt.Sprintf("User %q deleted.", user.Username))
	}
	web.Redirect(w, r, "/admin/users")
}

func (h *UserHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	_, authenticated := h.sessions.UserID(r)
	web.WriteJSON(w, http.StatusOK, LoginPage{
		Authenticated: authenticated,
		Next:          safeNext(r.URL.Query().Get("next")),
		Flashes:       h.sessions.Flashes(w, r),
	})
}

func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.UserID(r); ok {
		web.Redirect(w, r, defaultLanding)
		return
	}

	user, err := h.service.Authenticate(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			web.WriteError(w, http.StatusUnauthorized, "Login failed. Check the username and password.")
			return
		}
		h.log.WithError(err).Error("Failed to authenticate")
		web.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.sessions.Login(w, r, user.ID); err != nil {
		h.log.WithError(err).Error("Failed to save session")
		web.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.log.WithField("user_id", user.ID).Info("User logged in")
	web.Redirect(w, r, safeNext(r.FormValue("next")))
}

func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.log.WithError(err).Warn("Failed to clear session")
	}
	h.flash(w, r, web.FlashInfo, "You have been logged out.")
	web.Redirect(w, r, "/")
}

// safeNext only follows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLanding
	}
	return next
}

func (h *UserHandler) flash(w http.ResponseWriter, r *http.Request, level, msg string) {
	if err := h.sessions.AddFlash(w, r, level, msg); err != nil {
		h.log.WithError(err).Warn("Failed to store flash message")
	}
}
