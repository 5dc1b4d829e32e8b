package storage

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/glekoz/grayscale_image/internal/models"

	_ "image/gif" // decode-only, gets re-encoded in a supported format
)

const (
	jpegQuality = 95

	// filename policy: extension plus at least one name char, and it has
	// to fit in a directory entry
	MinFilenameLen = 4
	MaxFilenameLen = 255
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// SupportedExtension reports whether ext (with leading dot) names a
// format this service reads and writes. Case-insensitive.
func SupportedExtension(ext string) bool {
	return supportedExtensions[strings.ToLower(ext)]
}

// ValidateFilename applies the upload filename policy and returns the
// normalized (lower-case) extension.
func ValidateFilename(name string) (string, error) {
	loc := "storage.ValidateFilename"
	if len(name) < MinFilenameLen || len(name) > MaxFilenameLen {
		return "", models.NewError(loc, name, models.ErrInvalidFilename)
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return "", models.NewError(loc, name, models.ErrInvalidFilename)
	}
	ext = strings.ToLower(ext)
	if !SupportedExtension(ext) {
		return "", models.NewError(loc, ext, models.ErrUnsupportedFormat)
	}
	return ext, nil
}

// Encode writes img to w in the format named by ext.
func Encode(w io.Writer, img image.Image, ext string) error {
	loc := "storage.Encode"
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tiff":
		return tiff.Encode(w, img, nil)
	default:
		return models.NewError(loc, ext, models.ErrUnsupportedFormat)
	}
}

// DecodeFile reads and decodes one image file. A missing file maps to
// ErrFileNotFound so callers can tell it apart from a broken one.
func DecodeFile(path string) (image.Image, error) {
	loc := "storage.DecodeFile"
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewError(loc, path, models.ErrFileNotFound)
		}
		return nil, models.NewError(loc, path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, models.NewError(loc, path, err)
	}
	return img, nil
}

// EncodeFile writes img to path, picking the format from the path's
// extension. The file is removed again if encoding fails halfway.
func EncodeFile(path string, img image.Image) error {
	loc := "storage.EncodeFile"
	file, err := os.Create(path)
	if err != nil {
		return models.NewError(loc, path, err)
	}
	err = Encode(file, img, filepath.Ext(path))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return models.NewError(loc, path, err)
	}
	return nil
}
