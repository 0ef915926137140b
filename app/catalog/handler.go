package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

const (
	defaultLimit  = 10
	maxLimit      = 100
	featuredLimit = 100

	// defaultBackURL points at the shop section of the landing page.
	defaultBackURL = "/#shop"
)

type Response struct {
	Total    int       `json:"total"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
	Products []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	PromoPrice     *float64 `json:"promo_price"`
	EffectivePrice float64  `json:"effective_price"`
	ImageFile      string   `json:"image_file"`
	IsFeatured     bool     `json:"is_featured"`
	Category       Category `json:"category"`
}

type Image struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
}

type ProductDetail struct {
	Product
	Description string  `json:"description"`
	Images      []Image `json:"images"`
	BackURL     string  `json:"back_url"`
}

type CategoryPage struct {
	Category Category  `json:"category"`
	Products []Product `json:"products"`
}

type ProductProvider interface {
	GetFilteredProducts(offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
}

type CategoryProvider interface {
	GetByID(id uint) (*models.Category, error)
}

type CatalogHandler struct {
	repo       ProductProvider
	categories CategoryProvider
	log        logrus.FieldLogger
}

func NewCatalogHandler(r ProductProvider, categories CategoryProvider, logger logrus.FieldLogger) *CatalogHandler {
	return &CatalogHandler{
		repo:       r,
		categories: categories,
		log:        logger,
	}
}

func toProduct(p *models.Product) Product {
	out := Product{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price.InexactFloat64(),
		EffectivePrice: p.EffectivePrice().InexactFloat64(),
		ImageFile:      p.CoverImage(),
		IsFeatured:     p.IsFeatured,
		Category: Category{
			ID:   p.Category.ID,
			Name: p.Category.Name,
		},
	}
	if p.PromoPrice.Valid {
		promo := p.PromoPrice.Decimal.InexactFloat64()
		out.PromoPrice = &promo
	}
	return out
}

func toProducts(res []models.Product) []Product {
	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}
	return products
}

// HandleHome lists the featured products shown on the landing page.
func (h *CatalogHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	res, total, err := h.repo.GetFilteredProducts(0, featuredLimit, models.ProductFilters{FeaturedOnly: true})
	if err != nil {
		h.log.WithError(err).Error("Failed to get featured products")
		web.WriteError(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	web.WriteJSON(w, http.StatusOK, Response{
		Total:    int(total),
		Limit:    featuredLimit,
		Products: toProducts(res),
	})
}

// HandleShop is the paginated shop listing.
func (h *CatalogHandler) HandleShop(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Parse pagination query params
	offset := 0
	limit := defaultLimit

	if oStr := query.Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := query.Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			switch {
			case l < 1:
				limit = 1
			case l > maxLimit:
				limit = maxLimit
			default:
				limit = l
			}
		}
	}

	// Parse filters
	var filters models.ProductFilters
	if cStr := query.Get("category"); cStr != "" {
		if id, err := strconv.ParseUint(cStr, 10, 64); err == nil {
			filters.CategoryID = uint(id)
		}
	}
	if priceStr := query.Get("price_lt"); priceStr != "" {
		if val, err := decimal.NewFromString(priceStr); err == nil {
			filters.PriceLessThan = &val
		}
	}

	res, total, err := h.repo.GetFilteredProducts(offset, limit, filters)
	if err != nil {
		h.log.WithError(err).Error("Failed to get products")
		web.WriteError(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	web.WriteJSON(w, http.StatusOK, Response{
		Total:    int(total),
		Offset:   offset,
		Limit:    limit,
		Products: toProducts(res),
	})
}

func (h *CatalogHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}

	category, err := h.categories.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			web.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.log.WithError(err).Error("Failed to get category")
		web.WriteError(w, http.StatusInternalServerError, "failed to get category")
		return
	}

	products := make([]Product, len(category.Products))
	for i := range category.Products {
		p := category.Products[i]
		p.Category = models.Category{ID: category.ID, Name: category.Name}
		products[i] = toProduct(&p)
	}

	web.WriteJSON(w, http.StatusOK, CategoryPage{
		Category: Category{ID: category.ID, Name: category.Name},
		Products: products,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
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
		h.log.WithError(err).Error("Failed to get product")
		web.WriteError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	images := make([]Image, len(product.Images))
	for i, img := range product.Images {
		images[i] = Image{ID: img.ID, Filename: img.ImageFilename}
	}

	web.WriteJSON(w, http.StatusOK, ProductDetail{
		Product:     toProduct(product),
		Description: product.Description,
		Images:      images,
		BackURL:     backURL(r.Referer()),
	})
}

// backURL sends visitors back to the listing they came from, or to the shop
// section of the landing page otherwise.
func backURL(referer string) string {
	if referer != "" && (strings.Contains(referer, "/shop") || strings.Contains(referer, "/categories/")) {
		return referer
	}
	return defaultBackURL
}
