package products

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// parseInput reads the product form. Prices accept a comma as the decimal
// separator.
func parseInput(r *http.Request) (Input, ValidationErrors) {
	errs := ValidationErrors{}
	in := Input{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		IsFeatured:  parseCheckbox(r.FormValue("is_featured")),
	}

	if raw := strings.TrimSpace(r.FormValue("price")); raw == "" {
		errs["price"] = "Price is required."
	} else if price, err := parseDecimal(raw); err != nil {
		errs["price"] = "Price must be a number, e.g. 1299.90."
	} else {
		in.Price = price
	}

	if raw := strings.TrimSpace(r.FormValue("promo_price")); raw != "" {
		promo, err := parseDecimal(raw)
		if err != nil {
			errs["promo_price"] = "Promotional price must be a number."
		} else {
			in.PromoPrice = decimal.NewNullDecimal(promo)
		}
	}

	if raw := strings.TrimSpace(r.FormValue("category")); raw == "" {
		errs["category"] = "Choose a category."
	} else if id, err := strconv.ParseUint(raw, 10, 64); err != nil || id == 0 {
		errs["category"] = "Choose a valid category."
	} else {
		in.CategoryID = uint(id)
	}

	if len(errs) > 0 {
		return in, errs
	}
	return in, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
}

func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes", "on", "true", "1":
		return true
	}
	return false
}

// openUploads opens every non-empty file posted under field. The caller
// closes the returned files.
func openUploads(r *http.Request, field string) ([]Upload, []multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	var uploads []Upload
	var files []multipart.File
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Filename == "" || fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			return nil, nil, err
		}
		files = append(files, f)
		uploads = append(uploads, Upload{Filename: fh.Filename, Content: f})
	}
	return uploads, files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}
