// Package sitemap publishes sitemap.xml and robots.txt for search engines.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/models"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type URL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type ProductLister interface {
	GetAllProducts() ([]models.Product, error)
}

type CategoryLister interface {
	GetAllCategories() ([]models.Category, error)
}

type Handler struct {
	products   ProductLister
	categories CategoryLister
	baseURL    string
	now        func() time.Time
	log        logrus.FieldLogger
}

func NewHandler(products ProductLister, categories CategoryLister, baseURL string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		products:   products,
		categories: categories,
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
		log:        logger,
	}
}

// Build lists the landing page, the shop, every product and every category,
// all stamped with today's date.
func (h *Handler) Build() (*URLSet, error) {
	products, err := h.products.GetAllProducts()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	categories, err := h.categories.GetAllCategories()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	today := h.now().Format(time.DateOnly)
	set := &URLSet{
		Xmlns: xmlns,
		URLs:  make([]URL, 0, 2+len(products)+len(categories)),
	}
	add := func(path string) {
		set.URLs = append(set.URLs, URL{Loc: h.baseURL + path, LastMod: today})
	}

	add("/")
	add("/shop")
	for _, p := range products {
		add(fmt.Sprintf("/products/%d", p.ID))
	}
	for _, c := range categories {
		add(fmt.Sprintf("/categories/%d", c.ID))
	}
	return set, nil
}

func (h *Handler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	set, err := h.Build()
	if err != nil {
		h.log.WithError(err).Error("Failed to build sitemap")
		http.Error(w, "failed to build sitemap", http.StatusInternalServerError)
		return
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.log.WithError(err).Error("Failed to encode sitemap")
		http.Error(w, "failed to build sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	w.Write(out)
}

func (h *Handler) HandleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", h.baseURL)
}
