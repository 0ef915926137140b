package catalogio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tealeg/xlsx"

	"github.com/suportesmart/storefront/models"
)

// Export writes every product to path and returns how many were written.
func (s *Service) Export(path string) (int, error) {
	format, err := FormatOf(path)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	var n int
	switch format {
	case FormatXLSX:
		n, err = s.ExportXLSX(f)
	default:
		n, err = s.ExportCSV(f)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		return 0, err
	}

	s.log.WithField("file", path).Infof("Exported %d products", n)
	return n, nil
}

func (s *Service) ExportCSV(w io.Writer) (int, error) {
	products, err := s.products()
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}
	for i := range products {
		if err := cw.Write(encodeRow(&products[i])); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(products), nil
}

func (s *Service) ExportXLSX(w io.Writer) (int, error) {
	products, err := s.products()
	if err != nil {
		return 0, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return 0, fmt.Errorf("add sheet: %w", err)
	}

	// Header row
	headerRow := sheet.AddRow()
	for _, h := range Header {
		headerRow.AddCell().SetString(h)
	}

	// Data rows, every cell as text so prices keep two decimals
	for i := range products {
		row := sheet.AddRow()
		for _, v := range encodeRow(&products[i]) {
			row.AddCell().SetString(v)
		}
	}

	if err := file.Write(w); err != nil {
		return 0, fmt.Errorf("write xlsx: %w", err)
	}
	return len(products), nil
}

// products returns the catalog ordered by id.
func (s *Service) products() ([]models.Product, error) {
	products, err := s.catalog.GetAllProducts()
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}
