package categories

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

type CategoryResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Products int64  `json:"products"`
}

type ListResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Flashes    []web.Flash        `json:"flashes"`
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	CountProducts(id uint) (int64, error)
	CreateCategory(category *models.Category) error
	RenameCategory(id uint, name string) (*models.Category, error)
	DeleteCategory(id uint) error
}

type CategoryHandler struct {
	repo     CategoryProvider
	sessions *web.Sessions
	log      logrus.FieldLogger
}

func NewCategoryHandler(r CategoryProvider, sessions *web.Sessions, logger logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{repo: r, sessions: sessions, log: logger}
}

func validateName(raw string) (string, map[string]string) {
	name := strings.TrimSpace(raw)
	if n := len([]rune(name)); n < 2 || n > 50 {
		return name, map[string]string{"name": "Name must be between 2 and 50 characters."}
	}
	return name, nil
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories()
	if err != nil {
		h.log.WithError(err).Error("Failed to fetch categories")
		web.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		count, err := h.repo.CountProducts(c.ID)
		if err != nil {
			h.log.WithError(err).Error("Failed to count category products")
			web.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
			return
		}
		response[i] = CategoryResponse{ID: c.ID, Name: c.Name, Products: count}
	}

	web.WriteJSON(w, http.StatusOK, ListResponse{
		Categories: response,
		Flashes:    h.sessions.Flashes(w, r),
	})
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	name, errs := validateName(r.FormValue("name"))
	if errs != nil {
		web.WriteValidation(w, errs)
		return
	}

	category := &models.Category{Name: name}
	if err := h.repo.CreateCategory(category); err != nil {
		if errors.Is(err, models.ErrDuplicateCategory) {
			web.WriteValidation(w, map[string]string{"name": "A category with this name already exists."})
			return
		}
		h.log.WithError(err).Error("Failed to create category")
		web.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	h.log.WithField("category_id", category.ID).Infof("Category %q created", category.Name)
	h.flash(w, r, web.FlashSuccess, fmt.Sprintf("Category %q added.", category.Name))
	web.Redirect(w, r, "/admin/categories")
}

func (h *CategoryHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	name, errs := validateName(r.FormValue("name"))
	if errs != nil {
		web.WriteValidation(w, errs)
		return
	}

	category, err := h.repo.RenameCategory(id, name)
	switch {
	case errors.Is(err, models.ErrCategoryNotFound):
		web.WriteError(w, http.StatusNotFound, "Category not found")
		return
	case errors.Is(err, models.ErrDuplicateCategory):
		web.WriteValidation(w, map[string]string{"name": "A category with this name already exists."})
		return
	case err != nil:
		h.log.WithError(err).Error("Failed to rename category")
		web.WriteError(w, http.StatusInternalServerError, "Failed to rename category")
		return
	}

	h.flash(w, r, web.FlashSuccess, fmt.Sprintf("Category renamed to %q.", category.Name))
	web.Redirect(w, r, "/admin/categories")
}

// HandleDelete refuses to remove a category that still owns products and
// explains why through a warning flash.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			web.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.log.WithError(err).Error("Failed to load category")
		web.WriteError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	err = h.repo.DeleteCategory(id)
	switch {
	case errors.Is(err, models.ErrCategoryNotEmpty):
		count, cerr := h.repo.CountProducts(id)
		if cerr != nil {
			h.log.WithError(cerr).Warn("Failed to count category products")
		}
		h.log.WithField("category_id", id).Warn("Refused to delete a category with products")
		h.flash(w, r, web.FlashWarning, fmt.Sprintf(
			"Cannot delete %q: it still has %d product(s). Move or delete them first.", category.Name, count))
	case errors.Is(err, models.ErrCategoryNotFound):
		web.WriteError(w, http.StatusNotFound, "Category not found")
		return
	case err != nil:
		h.log.WithError(err).Error("Failed to delete category")
		web.WriteError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	default:
		h.log.WithField("category_id", id).Info("Category deleted")
		h.flash(w, r, web.FlashDanger, fmt.Sprintf("Category %q deleted.", category.Name))
	}
	web.Redirect(w, r, "/admin/categories")
}

func (h *CategoryHandler) flash(w http.ResponseWriter, r *http.Request, level, msg string) {
	if err := h.sessions.AddFlash(w, r, level, msg); err != nil {
		h.log.WithError(err).Warn("Failed to store flash message")
	}
}
