// Package images keeps uploaded product pictures on disk.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/suportesmart/storefront/models"
)

// MaxDimension bounds both sides of a stored picture.
const MaxDimension = 800

// MaxPixels bounds the decoded size of an upload.
const MaxPixels = 40_000_000

const saveAttempts = 5

var (
	// ErrUnsupportedFormat is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format: use jpg, jpeg or png")
	// ErrInvalidImage is returned when the upload cannot be decoded.
	ErrInvalidImage = errors.New("invalid image file")
	// ErrImageTooLarge is returned when the upload would decode past MaxPixels.
	ErrImageTooLarge = errors.New("image is too large")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type Store struct {
	dir       string
	log       logrus.FieldLogger
	maxPixels int
	newName   func(ext string) string
}

func NewStore(dir string, logger logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &Store{
		dir:       dir,
		log:       logger,
		maxPixels: MaxPixels,
		newName: func(ext string) string {
			return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
		},
	}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save downsizes the upload to fit MaxDimension, writes it under a fresh
// random name keeping the original extension and returns that name.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(originalName)
	if !allowedExtensions[strings.ToLower(ext)] {
		return "", ErrUnsupportedFormat
	}
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return "", ErrUnsupportedFormat
	}

	// Only the header is read here; the consumed bytes are replayed below.
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidImage, originalName, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > s.maxPixels/cfg.Height {
		return "", fmt.Errorf("%w: %q is %dx%d", ErrImageTooLarge, originalName, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(io.MultiReader(&head, r), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidImage, originalName, err)
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	for attempt := 0; attempt < saveAttempts; attempt++ {
		name := s.newName(ext)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				s.log.Warnf("Image name collision on %s, retrying", name)
				continue
			}
			return "", fmt.Errorf("create %s: %w", name, err)
		}

		if err := imaging.Encode(f, img, format); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("write %s: %w", name, err)
		}

		s.log.WithField("file", name).Debug("Image saved")
		return name, nil
	}
	return "", fmt.Errorf("no free image name after %d attempts", saveAttempts)
}

// Delete removes a stored picture. The placeholder is never touched and
// failures are only logged: a stale file must not block a database change.
func (s *Store) Delete(filename string) {
	if filename == "" || filename == models.PlaceholderImage {
		return
	}

	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		s.log.WithError(err).WithField("file", filename).Error("Failed to delete image")
		return
	}
	s.log.WithField("file", filename).Debug("Image deleted")
}
