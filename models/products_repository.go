package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db *gorm.DB
}

type ProductFilters struct {
	CategoryID    uint
	FeaturedOnly  bool
	PriceLessThan *decimal.Decimal
}

// CatalogWriter is the subset of the catalog used inside a batch transaction.
type CatalogWriter interface {
	GetCategoryByName(name string) (*Category, error)
	GetByName(name string) (*Product, error)
	SaveProduct(product *Product) error
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// GetAllProducts returns every product, newest first, with its category.
func (r *ProductsRepository) GetAllProducts() ([]Product, error) {
	var products []Product
	if err := r.db.
		Preload("Category").
		Order("products.id DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductsRepository) GetFilteredProducts(offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.Model(&Product{}).Preload("Category")

	// Filter
	if filters.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filters.CategoryID)
	}
	if filters.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("COALESCE(products.promo_price, products.price) < ?", *filters.PriceLessThan)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("products.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetByID loads a product with its category and gallery.
func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.id ASC")
		}).
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetByName returns the oldest product carrying exactly this name.
func (r *ProductsRepository) GetByName(name string) (*Product, error) {
	var product Product
	if err := r.db.
		Where("name = ?", name).
		Order("id ASC").
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *ProductsRepository) CreateProduct(product *Product) error {
	if err := r.db.Omit(clause.Associations).Create(product).Error; err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductsRepository) UpdateProduct(product *Product) error {
	if err := r.db.Omit(clause.Associations).Save(product).Error; err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update product %d: %w", product.ID, err)
	}
	return nil
}

// SaveProduct inserts new products and updates existing ones.
func (r *ProductsRepository) SaveProduct(product *Product) error {
	if product.ID == 0 {
		return r.CreateProduct(product)
	}
	return r.UpdateProduct(product)
}

// DeleteProduct removes the gallery rows and then the product in one transaction.
func (r *ProductsRepository) DeleteProduct(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return fmt.Errorf("delete gallery of product %d: %w", id, err)
		}
		res := tx.Delete(&Product{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete product %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

func (r *ProductsRepository) AddImage(image *ProductImage) error {
	if err := r.db.Create(image).Error; err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("add image to product %d: %w", image.ProductID, err)
	}
	return nil
}

func (r *ProductsRepository) GetImage(id uint) (*ProductImage, error) {
	var image ProductImage
	if err := r.db.First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

func (r *ProductsRepository) DeleteImage(id uint) error {
	res := r.db.Delete(&ProductImage{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete image %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrImageNotFound
	}
	return nil
}

// RunInTransaction runs fn against a writer bound to a single transaction.
// Any error returned by fn rolls back every change made through the writer.
func (r *ProductsRepository) RunInTransaction(fn func(CatalogWriter) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(catalogTx{
			ProductsRepository: NewProductsRepository(tx),
			categories:         NewCategoriesRepository(tx),
		})
	})
}

type catalogTx struct {
	*ProductsRepository
	categories *CategoriesRepository
}

func (t catalogTx) GetCategoryByName(name string) (*Category, error) {
	return t.categories.GetByName(name)
}
