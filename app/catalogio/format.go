// Package catalogio moves the catalog in and out of flat tabular files.
// CSV is the canonical format; .xlsx workbooks carry the same columns on
// their first sheet.
package catalogio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/models"
)

// Header is the column layout written by Export, version 1.
var Header = []string{"name", "description", "price", "promo_price", "image_file", "is_featured", "category_name"}

var (
	ErrInputNotFound     = errors.New("import file not found")
	ErrUnsupportedFormat = errors.New("unsupported file format, use .csv or .xlsx")
	ErrMissingColumns    = errors.New("missing required columns")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// Catalog is what import and export need from the catalog store.
type Catalog interface {
	GetAllProducts() ([]models.Product, error)
	RunInTransaction(fn func(models.CatalogWriter) error) error
}

type Service struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewService(catalog Catalog, logger logrus.FieldLogger) *Service {
	return &Service{catalog: catalog, log: logger}
}

func encodeRow(p *models.Product) []string {
	promo := ""
	if p.PromoPrice.Valid {
		promo = p.PromoPrice.Decimal.StringFixed(2)
	}
	return []string{
		p.Name,
		p.Description,
		p.Price.StringFixed(2),
		promo,
		p.CoverImage(),
		strconv.FormatBool(p.IsFeatured),
		p.Category.Name,
	}
}

// columns maps header names to their position. Unknown columns, like the
// id column of older exports, are ignored.
type columns map[string]int

func newColumns(header []string) (columns, error) {
	cols := columns{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}

	var missing []string
	for _, required := range []string{"name", "price", "category_name"} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
