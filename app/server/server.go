// Package server wires repositories, services and handlers into one
// http.Handler.
package server

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/suportesmart/storefront/app/cart"
	"github.com/suportesmart/storefront/app/catalog"
	"github.com/suportesmart/storefront/app/categories"
	"github.com/suportesmart/storefront/app/images"
	"github.com/suportesmart/storefront/app/products"
	"github.com/suportesmart/storefront/app/sitemap"
	"github.com/suportesmart/storefront/app/users"
	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/config"
	"github.com/suportesmart/storefront/models"
)

// ImagePrefix is the URL path stored pictures are served under.
const ImagePrefix = "/static/product_pics/"

type Handlers struct {
	Catalog    *catalog.CatalogHandler
	Cart       *cart.CartHandler
	Products   *products.ProductsHandler
	Categories *categories.CategoryHandler
	Users      *users.UserHandler
	Sitemap    *sitemap.Handler
	Sessions   *web.Sessions
	Accounts   web.UserLookup
	ImageDir   string
}

// NewHandlers builds every handler on top of the database.
func NewHandlers(db *gorm.DB, cfg *config.Config, logger logrus.FieldLogger) (*Handlers, error) {
	productsRepo := models.NewProductsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	usersRepo := models.NewUsersRepository(db)

	store, err := images.NewStore(cfg.ImageDir, logger.WithField("component", "images"))
	if err != nil {
		return nil, fmt.Errorf("image store: %w", err)
	}
	sessions := web.NewSessions([]byte(cfg.SessionSecret), cfg.CookieSecure)
	workflows := products.NewWorkflows(productsRepo, store, logger.WithField("component", "products"))

	return &Handlers{
		Catalog:    catalog.NewCatalogHandler(productsRepo, categoriesRepo, logger),
		Cart:       cart.NewCartHandler(productsRepo, sessions, logger),
		Products:   products.NewProductsHandler(productsRepo, categoriesRepo, workflows, sessions, cfg.MaxUploadBytes, logger),
		Categories: categories.NewCategoryHandler(categoriesRepo, sessions, logger),
		Users:      users.NewUserHandler(users.NewService(usersRepo, logger), sessions, logger),
		Sitemap:    sitemap.NewHandler(productsRepo, categoriesRepo, cfg.SiteBaseURL, logger),
		Sessions:   sessions,
		Accounts:   usersRepo,
		ImageDir:   store.Dir(),
	}, nil
}

// Routes registers the public site and the login protected back office.
func Routes(h *Handlers, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	// Public site
	mux.HandleFunc("GET /{$}", h.Catalog.HandleHome)
	mux.HandleFunc("GET /shop", h.Catalog.HandleShop)
	mux.HandleFunc("GET /categories/{id}", h.Catalog.HandleCategory)
	mux.HandleFunc("GET /products/{id}", h.Catalog.HandleGetProduct)
	mux.Handle("GET "+ImagePrefix, http.StripPrefix(ImagePrefix, http.FileServer(http.Dir(h.ImageDir))))

	// Cart
	mux.HandleFunc("GET /cart", h.Cart.HandleView)
	mux.HandleFunc("GET /cart/count", h.Cart.HandleCount)
	mux.HandleFunc("POST /cart/add/{id}", h.Cart.HandleAdd)
	mux.HandleFunc("POST /cart/update/{id}", h.Cart.HandleUpdate)
	mux.HandleFunc("POST /cart/remove/{id}", h.Cart.HandleRemove)

	// Search engines
	mux.HandleFunc("GET /sitemap.xml", h.Sitemap.HandleSitemap)
	mux.HandleFunc("GET /robots.txt", h.Sitemap.HandleRobots)

	// Authentication
	mux.HandleFunc("GET /login", h.Users.HandleLoginPage)
	mux.HandleFunc("POST /login", h.Users.HandleLogin)
	mux.HandleFunc("POST /logout", h.Users.HandleLogout)

	// Back office
	admin := http.NewServeMux()
	admin.HandleFunc("GET /admin", h.Products.HandleList)
	admin.HandleFunc("GET /admin/products", h.Products.HandleList)
	admin.HandleFunc("POST /admin/products", h.Products.HandleCreate)
	admin.HandleFunc("GET /admin/products/{id}", h.Products.HandleGet)
	admin.HandleFunc("POST /admin/products/{id}", h.Products.HandleEdit)
	admin.HandleFunc("POST /admin/products/{id}/delete", h.Products.HandleDelete)
	admin.HandleFunc("GET /admin/products/{id}/gallery", h.Products.HandleGallery)
	admin.HandleFunc("POST /admin/products/{id}/gallery", h.Products.HandleAddImages)
	admin.HandleFunc("POST /admin/images/{id}/delete", h.Products.HandleDeleteImage)
	admin.HandleFunc("GET /admin/categories", h.Categories.HandleGetAll)
	admin.HandleFunc("POST /admin/categories", h.Categories.HandleCreate)
	admin.HandleFunc("POST /admin/categories/{id}", h.Categories.HandleRename)
	admin.HandleFunc("POST /admin/categories/{id}/delete", h.Categories.HandleDelete)
	admin.HandleFunc("GET /admin/users", h.Users.HandleList)
	admin.HandleFunc("POST /admin/users", h.Users.HandleCreate)
	admin.HandleFunc("POST /admin/users/{id}/delete", h.Users.HandleDelete)

	protected := web.RequireLogin(h.Sessions, h.Accounts, admin)
	mux.Handle("/admin", protected)
	mux.Handle("/admin/", protected)

	return web.Logging(logger, cart.Badge(h.Sessions, mux))
}
