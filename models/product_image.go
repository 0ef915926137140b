package models

// ProductImage is one picture of a product's gallery.
type ProductImage struct {
	ID            uint   `gorm:"primaryKey"`
	ImageFilename string `gorm:"size:100;not null"`
	ProductID     uint   `gorm:"not null;index"`
}

func (i *ProductImage) TableName() string {
	return "product_images"
}
