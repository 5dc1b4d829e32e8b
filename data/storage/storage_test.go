package storage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glekoz/grayscale_image/internal/models"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 40), B: 100, A: 255})
		}
	}
	return img
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
		wantErr error
	}{
		{"cat.jpg", ".jpg", nil},
		{"CAT.JPG", ".jpg", nil},
		{"photo.tiff", ".tiff", nil},
		{"a.png", ".png", nil},
		{"noextension", "", models.ErrInvalidFilename},
		{"x.p", "", models.ErrInvalidFilename}, // shorter than the 4-char minimum
		{strings.Repeat("a", 300) + ".png", "", models.ErrInvalidFilename},
		{"archive.zip", "", models.ErrUnsupportedFormat},
		{"movie.webp", "", models.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		ext, err := ValidateFilename(tt.name)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%q: got %v, want %v", tt.name, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.name, err)
			continue
		}
		if ext != tt.wantExt {
			t.Errorf("%q: ext = %q, want %q", tt.name, ext, tt.wantExt)
		}
	}
}

func TestSaveAndGetRawImage(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"} {
		path, err := s.Save(context.Background(), "shop", "batch1", "img"+strings.TrimPrefix(ext, "."), ext, testImage())
		if err != nil {
			t.Fatalf("%s: save: %v", ext, err)
		}
		got, err := s.GetRawImage(path)
		if err != nil {
			t.Fatalf("%s: load: %v", ext, err)
		}
		if got.Bounds().Dx() != 8 || got.Bounds().Dy() != 6 {
			t.Fatalf("%s: bounds %v", ext, got.Bounds())
		}
	}
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Save(context.Background(), "shop", "b", "x", ".webp", testImage())
	if !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestSaveCancelledContext(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, "shop", "b", "x", ".png", testImage()); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, models.ErrFileNotFound) {
		t.Fatalf("got %v, want ErrFileNotFound", err)
	}
}

func TestDeleteAndDeleteAll(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path, err := s.Save(context.Background(), "shop", "b", "x", ".png", testImage())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(path); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRawImage(path); !errors.Is(err, models.ErrFileNotFound) {
		t.Fatal("file still readable after Delete")
	}
	if err := s.Delete(""); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty path: got %v", err)
	}
	if err := s.DeleteAll("shop", "b"); err != nil {
		t.Fatal(err)
	}
}
