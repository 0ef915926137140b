package cart

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

type ProductProvider interface {
	GetByID(id uint) (*models.Product, error)
}

type CartHandler struct {
	repo     ProductProvider
	sessions *web.Sessions
	log      logrus.FieldLogger
}

func NewCartHandler(r ProductProvider, s *web.Sessions, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		repo:     r,
		sessions: s,
		log:      logger,
	}
}

type AddResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	CartItemCount int    `json:"cart_item_count"`
}

type Line struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type Response struct {
	Items         []Line  `json:"items"`
	Total         float64 `json:"total"`
	CartItemCount int     `json:"cart_item_count"`
}

// HandleAdd answers the page script with the updated badge count.
func (h *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			web.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.log.WithError(err).Error("Failed to load product for cart")
		web.WriteError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	c := Load(h.sessions, r)
	count := c.Add(Key(product.ID), ParseAddQuantity(r.FormValue("quantity")), SnapshotOf(product))
	if err := Store(h.sessions, w, r, c); err != nil {
		h.log.WithError(err).Error("Failed to save cart")
		web.WriteError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	web.WriteJSON(w, http.StatusOK, AddResponse{
		Success:       true,
		Message:       fmt.Sprintf("%q was added to your cart!", product.Name),
		CartItemCount: count,
	})
}

func (h *CartHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	c := Load(h.sessions, r)

	lines := make([]Line, 0, len(c))
	for _, key := range c.Keys() {
		item := c[key]
		lines = append(lines, Line{
			ProductID: key,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
			Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).InexactFloat64(),
		})
	}

	web.WriteJSON(w, http.StatusOK, Response{
		Items:         lines,
		Total:         c.Total().InexactFloat64(),
		CartItemCount: c.ItemCount(),
	})
}

func (h *CartHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string]int{
		"cart_item_count": Load(h.sessions, r).ItemCount(),
	})
}

func (h *CartHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	c := Load(h.sessions, r)
	c.UpdateQuantity(r.PathValue("id"), ParseUpdateQuantity(r.FormValue("quantity")))
	h.storeAndReturn(w, r, c)
}

func (h *CartHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	c := Load(h.sessions, r)
	c.Remove(r.PathValue("id"))
	h.storeAndReturn(w, r, c)
}

func (h *CartHandler) storeAndReturn(w http.ResponseWriter, r *http.Request, c Cart) {
	if err := Store(h.sessions, w, r, c); err != nil {
		h.log.WithError(err).Error("Failed to save cart")
		web.WriteError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}
	web.Redirect(w, r, "/cart")
}
