package models

import (
	"github.com/shopspring/decimal"
)

// PlaceholderImage is the cover used when no image was uploaded.
// It is shared by every product and never removed from disk.
const PlaceholderImage = "placeholder.png"

// Product represents a product in the catalog.
// It includes a list price, an optional promotional price, a cover image
// and a gallery of additional images.
type Product struct {
	ID          uint                `gorm:"primaryKey"`
	Name        string              `gorm:"size:100;not null"`
	Description string              `gorm:"type:text;not null;default:''"`
	Price       decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	PromoPrice  decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	ImageFile   string              `gorm:"size:100;not null"`
	IsFeatured  bool                `gorm:"not null"`
	CategoryID  uint                `gorm:"not null"`
	Category    Category            `gorm:"foreignKey:CategoryID"`
	Images      []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (p *Product) TableName() string {
	return "products"
}

// EffectivePrice is the price a visitor pays: the promotional price when set,
// the list price otherwise.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice.Valid {
		return p.PromoPrice.Decimal
	}
	return p.Price
}

// CoverImage returns the cover filename, falling back to the placeholder.
func (p *Product) CoverImage() string {
	if p.ImageFile == "" {
		return PlaceholderImage
	}
	return p.ImageFile
}
