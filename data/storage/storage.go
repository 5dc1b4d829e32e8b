package storage

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/glekoz/grayscale_image/internal/models"
)

// Storage keeps originals and converted grayscale images on a local
// volume, laid out as <root>/<service>/<batchID>/<imageID><ext>.
// Originals wait in a tmp/ subdirectory until the converter picks
// them up.
type Storage struct {
	Path string // volume root, e.g. /static/image
}

func NewStorage(p string) (Storage, error) {
	loc := "Storage.NewStorage"
	if err := os.MkdirAll(p, 0o755); err != nil {
		return Storage{}, models.NewError(loc, p, err)
	}
	return Storage{Path: p}, nil
}

// Save encodes img under the batch directory in the format named by ext
// and returns the full path. Encoding runs in its own goroutine so a
// cancelled context doesn't keep the caller waiting; a file created for
// a failed or cancelled save is removed again.
func (s Storage) Save(ctx context.Context, service, batchID, imageID, ext string, img image.Image) (string, error) {
	loc := "Storage.Save"
	if !SupportedExtension(ext) {
		return "", models.NewError(loc, ext, models.ErrUnsupportedFormat)
	}
	type result struct {
		imagePath string
		err       error
	}
	resultChan := make(chan result, 1)

	go func(ch chan<- result) {
		defer close(ch)

		pwd := filepath.Join(s.Path, service, batchID)
		err := os.MkdirAll(pwd, 0o755)
		if err != nil {
			ch <- result{"", models.NewError(loc, pwd, err)}
			return
		}

		imagePath := filepath.Join(pwd, imageID+ext)
		file, err := os.Create(imagePath)
		if err != nil {
			ch <- result{"", models.NewError(loc, imagePath, err)}
			return
		}
		defer func() {
			file.Close()
			if ctx.Err() != nil || err != nil {
				os.Remove(imagePath)
			}
		}()

		if err = ctx.Err(); err != nil {
			ch <- result{"", models.NewError(loc, "context", err)}
			return
		}

		err = Encode(file, img, ext)
		if err != nil {
			ch <- result{"", models.NewError(loc, imageID, err)}
			return
		}
		ch <- result{imagePath, nil}
	}(resultChan)

	select {
	case <-ctx.Done():
		return "", models.NewError(loc, "context", ctx.Err())
	case res := <-resultChan:
		if res.err != nil {
			return "", res.err
		}
		return res.imagePath, nil
	}
}

func (s Storage) Delete(path string) error {
	loc := "Storage.Delete"
	if path == "" {
		return models.NewError(loc, "path == \"\"", models.ErrInvalidInput)
	}
	err := os.Remove(path)
	if err != nil {
		return models.NewError(loc, path, err)
	}
	return nil
}

func (s Storage) DeleteAll(service, batchID string) error {
	loc := "Storage.DeleteAll"
	path := filepath.Join(s.Path, service, batchID)
	err := os.RemoveAll(path)
	if err != nil {
		return models.NewError(loc, path, err)
	}
	return nil
}

func (s Storage) GetRawImage(imagePath string) (image.Image, error) {
	return DecodeFile(imagePath)
}
