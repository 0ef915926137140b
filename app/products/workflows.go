package products

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/app/images"
	"github.com/suportesmart/storefront/models"
)

type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	CreateProduct(product *models.Product) error
	UpdateProduct(product *models.Product) error
	DeleteProduct(id uint) error
	AddImage(image *models.ProductImage) error
	GetImage(id uint) (*models.ProductImage, error)
	DeleteImage(id uint) error
}

type ImageStore interface {
	Save(r io.Reader, originalName string) (string, error)
	Delete(filename string)
}

// ValidationErrors maps form fields to user facing messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field, msg := range v {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return "invalid input: " + strings.Join(fields, "; ")
}

type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	PromoPrice  decimal.NullDecimal
	IsFeatured  bool
	CategoryID  uint
}

// Validate checks the rules shared by the admin forms and the batch import.
func (in Input) Validate() ValidationErrors {
	errs := ValidationErrors{}
	if n := len([]rune(in.Name)); n < 2 || n > 100 {
		errs["name"] = "Name must be between 2 and 100 characters."
	}
	if !in.Price.IsPositive() {
		errs["price"] = "Price must be greater than zero."
	}
	if in.PromoPrice.Valid {
		switch {
		case !in.PromoPrice.Decimal.IsPositive():
			errs["promo_price"] = "Promotional price must be greater than zero."
		case in.PromoPrice.Decimal.GreaterThan(in.Price):
			errs["promo_price"] = "Promotional price cannot exceed the price."
		}
	}
	if in.CategoryID == 0 {
		errs["category"] = "Choose a category."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Apply copies the input onto p with prices rounded to cents.
func (in Input) Apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.PromoPrice = in.PromoPrice
	if p.PromoPrice.Valid {
		p.PromoPrice.Decimal = p.PromoPrice.Decimal.Round(2)
	}
	p.IsFeatured = in.IsFeatured
	p.CategoryID = in.CategoryID
}

// UploadErrors collects the files of a batch that could not be stored.
type UploadErrors []error

func (u UploadErrors) Error() string {
	msgs := make([]string, len(u))
	for i, err := range u {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (u UploadErrors) Unwrap() []error {
	return u
}

// Upload is one file received from a form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Workflows composes the catalog repository and the image store so a row and
// the files it references change together.
type Workflows struct {
	repo   ProductRepository
	images ImageStore
	log    logrus.FieldLogger
}

func NewWorkflows(repo ProductRepository, store ImageStore, logger logrus.FieldLogger) *Workflows {
	return &Workflows{
		repo:   repo,
		images: store,
		log:    logger,
	}
}

func (w *Workflows) CreateProduct(in Input, cover *Upload) (*models.Product, error) {
	if errs := in.Validate(); errs != nil {
		return nil, errs
	}

	product := &models.Product{ImageFile: models.PlaceholderImage}
	in.Apply(product)

	if cover != nil {
		name, err := w.saveImage(*cover, "picture")
		if err != nil {
			return nil, err
		}
		product.ImageFile = name
	}

	if err := w.repo.CreateProduct(product); err != nil {
		w.images.Delete(product.ImageFile)
		if errors.Is(err, models.ErrCategoryNotFound) {
			return nil, ValidationErrors{"category": "Choose a valid category."}
		}
		return nil, err
	}

	w.log.WithField("product_id", product.ID).Infof("Product %q created", product.Name)
	return product, nil
}

// EditProduct replaces every mutable field. A new cover is stored first, then
// the previous cover file is removed, then the row is committed.
func (w *Workflows) EditProduct(id uint, in Input, cover *Upload) (*models.Product, error) {
	product, err := w.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if errs := in.Validate(); errs != nil {
		return nil, errs
	}

	newCover := ""
	if cover != nil {
		if newCover, err = w.saveImage(*cover, "picture"); err != nil {
			return nil, err
		}
		w.images.Delete(product.ImageFile)
		product.ImageFile = newCover
	}
	in.Apply(product)

	if err := w.repo.UpdateProduct(product); err != nil {
		if newCover != "" {
			w.images.Delete(newCover)
		}
		if errors.Is(err, models.ErrCategoryNotFound) {
			return nil, ValidationErrors{"category": "Choose a valid category."}
		}
		return nil, err
	}

	w.log.WithField("product_id", product.ID).Infof("Product %q updated", product.Name)
	return product, nil
}

// DeleteProduct removes the cover and gallery files, then the rows.
// File removal is best effort and never blocks the database delete.
func (w *Workflows) DeleteProduct(id uint) (*models.Product, error) {
	product, err := w.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	w.images.Delete(product.ImageFile)
	for _, image := range product.Images {
		w.images.Delete(image.ImageFilename)
	}

	if err := w.repo.DeleteProduct(id); err != nil {
		return nil, err
	}

	w.log.WithFields(logrus.Fields{
		"product_id": id,
		"images":     len(product.Images),
	}).Infof("Product %q deleted", product.Name)
	return product, nil
}

// AddGalleryImages stores each upload independently. Every accepted file
// yields exactly one row; rejected files are reported as UploadErrors next
// to the rows that were added.
func (w *Workflows) AddGalleryImages(productID uint, uploads []Upload) ([]models.ProductImage, error) {
	if _, err := w.repo.GetByID(productID); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, ValidationErrors{"pictures": "Select at least one image."}
	}

	var added []models.ProductImage
	var failures UploadErrors
	for _, upload := range uploads {
		name, err := w.images.Save(upload.Content, upload.Filename)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", upload.Filename, err))
			continue
		}

		image := models.ProductImage{ImageFilename: name, ProductID: productID}
		if err := w.repo.AddImage(&image); err != nil {
			w.images.Delete(name)
			failures = append(failures, fmt.Errorf("%s: %w", upload.Filename, err))
			continue
		}
		added = append(added, image)
	}

	w.log.WithFields(logrus.Fields{
		"product_id": productID,
		"added":      len(added),
		"failed":     len(failures),
	}).Info("Gallery images uploaded")
	if len(failures) > 0 {
		return added, failures
	}
	return added, nil
}

// DeleteGalleryImage removes one gallery picture and returns the id of the
// product it belonged to.
func (w *Workflows) DeleteGalleryImage(imageID uint) (uint, error) {
	image, err := w.repo.GetImage(imageID)
	if err != nil {
		return 0, err
	}

	w.images.Delete(image.ImageFilename)
	if err := w.repo.DeleteImage(imageID); err != nil {
		return 0, err
	}

	w.log.WithFields(logrus.Fields{
		"product_id": image.ProductID,
		"image_id":   imageID,
	}).Info("Gallery image deleted")
	return image.ProductID, nil
}

func (w *Workflows) saveImage(upload Upload, field string) (string, error) {
	name, err := w.images.Save(upload.Content, upload.Filename)
	if err != nil {
		if errors.Is(err, images.ErrUnsupportedFormat) ||
			errors.Is(err, images.ErrInvalidImage) ||
			errors.Is(err, images.ErrImageTooLarge) {
			return "", ValidationErrors{field: err.Error()}
		}
		return "", err
	}
	return name, nil
}
