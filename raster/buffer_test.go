package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestFromImageNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	buf := FromImage(img)
	if buf.Rows != 2 || buf.Cols != 3 {
		t.Fatalf("got %dx%d, want 2x3", buf.Rows, buf.Cols)
	}
	if r, g, b := buf.At(0, 0); r != 10 || g != 20 || b != 30 {
		t.Fatalf("At(0,0) = (%d,%d,%d)", r, g, b)
	}
	if r, g, b := buf.At(1, 2); r != 1 || g != 2 || b != 3 {
		t.Fatalf("At(1,2) = (%d,%d,%d)", r, g, b)
	}
}

func TestFromImageGenericPath(t *testing.T) {
	// image.Gray takes the At().RGBA() fallback
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	buf := FromImage(img)
	if r, g, b := buf.At(1, 1); r != 200 || g != 200 || b != 200 {
		t.Fatalf("At(1,1) = (%d,%d,%d), want (200,200,200)", r, g, b)
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	// sub-images don't start at (0,0)
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 3, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	sub := img.SubImage(image.Rect(1, 1, 4, 4)).(*image.NRGBA)

	buf := FromImage(sub)
	if buf.Rows != 3 || buf.Cols != 3 {
		t.Fatalf("got %dx%d, want 3x3", buf.Rows, buf.Cols)
	}
	if r, g, b := buf.At(2, 1); r != 9 || g != 8 || b != 7 {
		t.Fatalf("At(2,1) = (%d,%d,%d), want (9,8,7)", r, g, b)
	}
}

func TestGrayBufferImage(t *testing.T) {
	buf := NewGrayBuffer(2, 3)
	buf.Set(1, 2, 77)

	img := buf.Image()
	if got := img.Bounds(); got.Dx() != 3 || got.Dy() != 2 {
		t.Fatalf("bounds %v", got)
	}
	if img.GrayAt(2, 1).Y != 77 {
		t.Fatalf("GrayAt(2,1) = %d, want 77", img.GrayAt(2, 1).Y)
	}
	// shared Pix, not a copy
	buf.Set(0, 0, 5)
	if img.GrayAt(0, 0).Y != 5 {
		t.Fatal("Image() copied Pix instead of sharing it")
	}
}
