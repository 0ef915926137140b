package catalogio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"

	"github.com/suportesmart/storefront/app/products"
	"github.com/suportesmart/storefront/models"
)

type ImportSummary struct {
	Created int
	Updated int
	Skipped int
}

// Import reads path and upserts its rows by product name. The whole file is
// applied in one transaction: a malformed price aborts the run and nothing
// is saved.
func (s *Service) Import(path string) (ImportSummary, error) {
	format, err := FormatOf(path)
	if err != nil {
		return ImportSummary{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ImportSummary{}, fmt.Errorf("%s: %w", path, ErrInputNotFound)
		}
		return ImportSummary{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var summary ImportSummary
	switch format {
	case FormatXLSX:
		info, err := f.Stat()
		if err != nil {
			return ImportSummary{}, fmt.Errorf("stat %s: %w", path, err)
		}
		summary, err = s.ImportXLSX(f, info.Size())
		if err != nil {
			return ImportSummary{}, err
		}
	default:
		if summary, err = s.ImportCSV(f); err != nil {
			return ImportSummary{}, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"file":    path,
		"created": summary.Created,
		"updated": summary.Updated,
		"skipped": summary.Skipped,
	}).Info("Import finished")
	return summary, nil
}

func (s *Service) ImportCSV(r io.Reader) (ImportSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read csv: %w", err)
	}
	return s.importRows(rows)
}

func (s *Service) ImportXLSX(r io.ReaderAt, size int64) (ImportSummary, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("read xlsx: %w", err)
	}
	if len(file.Sheets) == 0 {
		return ImportSummary{}, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumns)
	}

	sheet := file.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		values := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			values[i] = cell.String()
		}
		rows = append(rows, values)
	}
	return s.importRows(rows)
}

func (s *Service) importRows(rows [][]string) (ImportSummary, error) {
	if len(rows) == 0 {
		return ImportSummary{}, fmt.Errorf("%w: file is empty", ErrMissingColumns)
	}
	cols, err := newColumns(rows[0])
	if err != nil {
		return ImportSummary{}, err
	}

	var summary ImportSummary
	err = s.catalog.RunInTransaction(func(tx models.CatalogWriter) error {
		summary = ImportSummary{}
		for i, row := range rows[1:] {
			if blank(row) {
				continue
			}
			created, err := s.importRow(tx, cols, row, i+2)
			switch {
			case errors.Is(err, errSkipRow):
				summary.Skipped++
			case err != nil:
				return err
			case created:
				summary.Created++
			default:
				summary.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).Error("Import failed, no changes were saved")
		return ImportSummary{}, err
	}
	return summary, nil
}

var errSkipRow = errors.New("row skipped")

// importRow upserts one line. It returns errSkipRow for rows that are
// reported and ignored; any other error aborts the import.
func (s *Service) importRow(tx models.CatalogWriter, cols columns, row []string, line int) (bool, error) {
	name := cols.get(row, "name")
	log := s.log.WithFields(logrus.Fields{"line": line, "product": name})
	if name == "" {
		log.Warn("Row without a product name, skipping")
		return false, errSkipRow
	}

	categoryName := cols.get(row, "category_name")
	category, err := tx.GetCategoryByName(categoryName)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			log.Warnf("Category %q not found, skipping product", categoryName)
			return false, errSkipRow
		}
		return false, err
	}

	price, err := decimal.NewFromString(cols.get(row, "price"))
	if err != nil {
		return false, fmt.Errorf("line %d: invalid price %q: %w", line, cols.get(row, "price"), err)
	}
	in := products.Input{
		Name:        name,
		Description: cols.get(row, "description"),
		Price:       price,
		IsFeatured:  strings.EqualFold(cols.get(row, "is_featured"), "true"),
		CategoryID:  category.ID,
	}
	if raw := cols.get(row, "promo_price"); raw != "" {
		promo, err := decimal.NewFromString(raw)
		if err != nil {
			return false, fmt.Errorf("line %d: invalid promo_price %q: %w", line, raw, err)
		}
		in.PromoPrice = decimal.NewNullDecimal(promo)
	}
	if errs := in.Validate(); errs != nil {
		log.WithError(errs).Warn("Invalid row, skipping product")
		return false, errSkipRow
	}

	product, err := tx.GetByName(name)
	created := errors.Is(err, models.ErrProductNotFound)
	switch {
	case created:
		product = &models.Product{}
	case err != nil:
		return false, err
	}

	in.Apply(product)
	product.ImageFile = cols.get(row, "image_file")
	if product.ImageFile == "" {
		product.ImageFile = models.PlaceholderImage
	}
	if err := tx.SaveProduct(product); err != nil {
		return false, fmt.Errorf("line %d: save %q: %w", line, name, err)
	}
	return created, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
