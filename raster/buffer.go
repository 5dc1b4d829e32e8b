// Package raster holds the pixel buffers and the parallel grayscale
// mapper. Buffers are plain row-major byte slices so the hot loop can
// index them directly instead of going through image.Image interfaces.
package raster

import "image"

// RGBBuffer is a rows×cols grid with 3 bytes per pixel (R, G, B order).
// Pix length is always Rows*Cols*3.
type RGBBuffer struct {
	Rows, Cols int
	Pix        []uint8
}

func NewRGBBuffer(rows, cols int) *RGBBuffer {
	return &RGBBuffer{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols*3)}
}

// At returns the (r, g, b) triplet at the given coordinate.
func (b *RGBBuffer) At(row, col int) (uint8, uint8, uint8) {
	i := (row*b.Cols + col) * 3
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

func (b *RGBBuffer) Set(row, col int, r, g, bl uint8) {
	i := (row*b.Cols + col) * 3
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = r, g, bl
}

// GrayBuffer is a rows×cols grid with one intensity byte per pixel.
type GrayBuffer struct {
	Rows, Cols int
	Pix        []uint8
}

func NewGrayBuffer(rows, cols int) *GrayBuffer {
	return &GrayBuffer{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols)}
}

func (b *GrayBuffer) At(row, col int) uint8 {
	return b.Pix[row*b.Cols+col]
}

func (b *GrayBuffer) Set(row, col int, v uint8) {
	b.Pix[row*b.Cols+col] = v
}

// FromImage copies an image.Image into a fresh RGBBuffer. NRGBA and RGBA
// get a direct Pix walk, everything else goes through At().RGBA().
// Alpha is dropped either way.
func FromImage(img image.Image) *RGBBuffer {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	buf := NewRGBBuffer(rows, cols)

	switch src := img.(type) {
	case *image.NRGBA:
		copyQuads(buf, src.Pix, src.Stride, rows, cols)
	case *image.RGBA:
		copyQuads(buf, src.Pix, src.Stride, rows, cols)
	default:
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				buf.Pix[i] = uint8(r >> 8)
				buf.Pix[i+1] = uint8(g >> 8)
				buf.Pix[i+2] = uint8(b >> 8)
				i += 3
			}
		}
	}
	return buf
}

func copyQuads(buf *RGBBuffer, pix []uint8, stride, rows, cols int) {
	for row := 0; row < rows; row++ {
		si := row * stride
		di := row * cols * 3
		for col := 0; col < cols; col++ {
			buf.Pix[di] = pix[si]
			buf.Pix[di+1] = pix[si+1]
			buf.Pix[di+2] = pix[si+2]
			si += 4
			di += 3
		}
	}
}

// Image wraps the buffer in an image.Gray without copying. The Pix slice
// is shared, so the buffer must not be reused after encoding starts.
func (b *GrayBuffer) Image() *image.Gray {
	return &image.Gray{
		Pix:    b.Pix,
		Stride: b.Cols,
		Rect:   image.Rect(0, 0, b.Cols, b.Rows),
	}
}
