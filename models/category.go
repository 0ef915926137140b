package models

// Category groups products on the storefront.
// Names are unique; a category cannot be removed while it still owns products.
type Category struct {
	ID       uint      `gorm:"primaryKey"`
	Name     string    `gorm:"size:50;uniqueIndex;not null"`
	Products []Product `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}
