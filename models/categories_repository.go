package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

// GetAllCategories returns every category ordered by name.
func (r *CategoriesRepository) GetAllCategories() ([]Category, error) {
	var categories []Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID loads a category together with its products, newest first.
func (r *CategoriesRepository) GetByID(id uint) (*Category, error) {
	var category Category
	if err := r.db.
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("products.id DESC")
		}).
		First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) GetByName(name string) (*Category, error) {
	var category Category
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) CountProducts(id uint) (int64, error) {
	var count int64
	if err := r.db.Model(&Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateCategory inserts a category whose name is not taken yet.
func (r *CategoriesRepository) CreateCategory(category *Category) error {
	taken, err := r.nameTaken(category.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateCategory
	}

	if err := r.db.Omit("Products").Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// RenameCategory changes a category's name. Keeping the current name is allowed.
func (r *CategoriesRepository) RenameCategory(id uint, name string) (*Category, error) {
	var category Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	taken, err := r.nameTaken(name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateCategory
	}

	if err := r.db.Model(&category).Update("name", name).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("rename category %d: %w", id, err)
	}
	return &category, nil
}

// DeleteCategory removes an empty category. It returns ErrCategoryNotEmpty
// and leaves everything untouched when products still reference it.
func (r *CategoriesRepository) DeleteCategory(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryNotEmpty
		}

		res := tx.Delete(&Category{}, id)
		if res.Error != nil {
			if isForeignKeyViolation(res.Error) {
				return ErrCategoryNotEmpty
			}
			return fmt.Errorf("delete category %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

func (r *CategoriesRepository) nameTaken(name string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.Model(&Category{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
