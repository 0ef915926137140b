package products

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/web"
	"github.com/suportesmart/storefront/models"
)

const multipartMemory = 32 << 20

type ProductProvider interface {
	GetAllProducts() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
}

type ImageResponse struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
}

type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	PromoPrice  *float64        `json:"promo_price"`
	ImageFile   string          `json:"image_file"`
	IsFeatured  bool            `json:"is_featured"`
	CategoryID  uint            `json:"category_id"`
	Category    string          `json:"category"`
	Images      []ImageResponse `json:"images"`
}

type CategoryOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ListResponse struct {
	Products []ProductResponse `json:"products"`
	Flashes  []web.Flash       `json:"flashes"`
}

type DetailResponse struct {
	Product    ProductResponse  `json:"product"`
	Categories []CategoryOption `json:"categories"`
	Flashes    []web.Flash      `json:"flashes"`
}

type ProductsHandler struct {
	repo       ProductProvider
	categories CategoryProvider
	workflows  *Workflows
	sessions   *web.Sessions
	maxUpload  int64
	log        logrus.FieldLogger
}

func NewProductsHandler(
	repo ProductProvider,
	categories CategoryProvider,
	workflows *Workflows,
	sessions *web.Sessions,
	maxUpload int64,
	logger logrus.FieldLogger,
) *ProductsHandler {
	return &ProductsHandler{
		repo:       repo,
		categories: categories,
		workflows:  workflows,
		sessions:   sessions,
		maxUpload:  maxUpload,
		log:        logger,
	}
}

func toResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		ImageFile:   p.CoverImage(),
		IsFeatured:  p.IsFeatured,
		CategoryID:  p.CategoryID,
		Category:    p.Category.Name,
		Images:      make([]ImageResponse, len(p.Images)),
	}
	if p.PromoPrice.Valid {
		promo := p.PromoPrice.Decimal.InexactFloat64()
		resp.PromoPrice = &promo
	}
	for i, img := range p.Images {
		resp.Images[i] = ImageResponse{ID: img.ID, Filename: img.ImageFilename}
	}
	return resp
}

// HandleList is the back office dashboard.
func (h *ProductsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.GetAllProducts()
	if err != nil {
		h.fail(w, err)
		return
	}

	products := make([]ProductResponse, len(res))
	for i := range res {
		products[i] = toResponse(&res[i])
	}
	web.WriteJSON(w, http.StatusOK, ListResponse{
		Products: products,
		Flashes:  h.sessions.Flashes(w, r),
	})
}

func (h *ProductsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r)
}

// HandleGallery shows a product together with its gallery.
func (h *ProductsHandler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	h.writeDetail(w, r)
}

func (h *ProductsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	in, errs := parseInput(r)
	if errs != nil {
		web.WriteValidation(w, errs)
		return
	}

	cover, files, err := h.cover(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer closeAll(files)

	product, err := h.workflows.CreateProduct(in, cover)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.flash(w, r, web.FlashSuccess, "Product added! You can now add more images to the gallery.")
	web.Redirect(w, r, galleryURL(product.ID))
}

func (h *ProductsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if !h.parseForm(w, r) {
		return
	}
	in, errs := parseInput(r)
	if errs != nil {
		web.WriteValidation(w, errs)
		return
	}

	cover, files, err := h.cover(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer closeAll(files)

	if _, err := h.workflows.EditProduct(id, in, cover); err != nil {
		h.fail(w, err)
		return
	}

	h.flash(w, r, web.FlashSuccess, "Product updated successfully!")
	web.Redirect(w, r, "/admin/products")
}

func (h *ProductsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	if _, err := h.workflows.DeleteProduct(id); err != nil {
		h.fail(w, err)
		return
	}

	h.flash(w, r, web.FlashDanger, "Product and all its images were deleted!")
	web.Redirect(w, r, "/admin/products")
}

func (h *ProductsHandler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if !h.parseForm(w, r) {
		return
	}

	uploads, files, err := openUploads(r, "pictures")
	if err != nil {
		h.fail(w, err)
		return
	}
	defer closeAll(files)

	added, err := h.workflows.AddGalleryImages(id, uploads)
	var rejected UploadErrors
	if err != nil && !errors.As(err, &rejected) {
		h.fail(w, err)
		return
	}

	if len(added) > 0 {
		h.flash(w, r, web.FlashSuccess, fmt.Sprintf("%d image(s) added to the gallery.", len(added)))
	}
	if len(rejected) > 0 {
		h.log.WithError(rejected).WithField("product_id", id).Warn("Some gallery uploads were rejected")
		h.flash(w, r, web.FlashWarning, "Some images were not added: "+rejected.Error())
	}
	web.Redirect(w, r, galleryURL(id))
}

func (h *ProductsHandler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Image not found")
		return
	}

	productID, err := h.workflows.DeleteGalleryImage(id)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.flash(w, r, web.FlashDanger, "Image removed from the gallery.")
	web.Redirect(w, r, galleryURL(productID))
}

func (h *ProductsHandler) writeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(r, "id")
	if !ok {
		web.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.repo.GetByID(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	categories, err := h.categories.GetAllCategories()
	if err != nil {
		h.fail(w, err)
		return
	}

	options := make([]CategoryOption, len(categories))
	for i, c := range categories {
		options[i] = CategoryOption{ID: c.ID, Name: c.Name}
	}
	web.WriteJSON(w, http.StatusOK, DetailResponse{
		Product:    toResponse(product),
		Categories: options,
		Flashes:    h.sessions.Flashes(w, r),
	})
}

func (h *ProductsHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			web.WriteError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return false
		}
		web.WriteError(w, http.StatusBadRequest, "Invalid form data")
		return false
	}
	return true
}

func (h *ProductsHandler) cover(r *http.Request) (*Upload, []multipart.File, error) {
	uploads, files, err := openUploads(r, "picture")
	if err != nil || len(uploads) == 0 {
		return nil, files, err
	}
	return &uploads[0], files, nil
}

func (h *ProductsHandler) flash(w http.ResponseWriter, r *http.Request, level, msg string) {
	if err := h.sessions.AddFlash(w, r, level, msg); err != nil {
		h.log.WithError(err).Warn("Failed to store flash message")
	}
}

func (h *ProductsHandler) fail(w http.ResponseWriter, err error) {
	var verrs ValidationErrors
	switch {
	case errors.As(err, &verrs):
		web.WriteValidation(w, verrs)
	case errors.Is(err, models.ErrProductNotFound):
		web.WriteError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, models.ErrImageNotFound):
		web.WriteError(w, http.StatusNotFound, "Image not found")
	default:
		h.log.WithError(err).Error("Product workflow failed")
		web.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func galleryURL(productID uint) string {
	return fmt.Sprintf("/admin/products/%d/gallery", productID)
}
