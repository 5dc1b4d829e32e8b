package raster

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/glekoz/grayscale_image/internal/models"
)

const defaultTileSize = 128

// Mapper converts an RGB buffer to grayscale by averaging the three
// channels of every pixel: gray = (r+g+b)/3, integer division.
//
// The grid is cut into disjoint rectangular tiles and the tiles are
// handed to a bounded pool of goroutines. Tiles never overlap and
// together cover the whole grid, so no destination byte is ever touched
// by two workers and the result is byte-identical for any worker count.
type Mapper struct {
	workers  int
	tileSize int
}

type Option func(*Mapper)

// WithWorkers bounds the number of goroutines processing tiles.
// Values below 1 fall back to 1.
func WithWorkers(n int) Option {
	return func(m *Mapper) { m.workers = n }
}

// WithTileSize sets the tile edge length in pixels. Tiles at the right
// and bottom edges of the grid are clipped. Tuning knob only, the output
// does not depend on it.
func WithTileSize(n int) Option {
	return func(m *Mapper) { m.tileSize = n }
}

func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{workers: runtime.NumCPU(), tileSize: defaultTileSize}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = 1
	}
	if m.tileSize < 1 {
		m.tileSize = defaultTileSize
	}
	return m
}

// tile is the half-open rectangle [rowBegin,rowEnd) × [colBegin,colEnd).
type tile struct {
	rowBegin, rowEnd int
	colBegin, colEnd int
}

// Map populates dst from src and blocks until every tile is done.
// Both buffers must be pre-allocated by the caller with identical,
// non-empty dimensions; otherwise ErrInvalidDimensions comes back before
// anything is written. src is never mutated.
//
// Cancellation is per-tile: once ctx is cancelled no new tile starts, and
// Map returns the ctx error. The destination content is unspecified in
// that case, but every tile that did run is fully written.
func (m *Mapper) Map(ctx context.Context, src *RGBBuffer, dst *GrayBuffer) error {
	loc := "Mapper.Map"
	if src == nil || dst == nil {
		return models.NewError(loc, "nil buffer", models.ErrInvalidDimensions)
	}
	if src.Rows <= 0 || src.Cols <= 0 || src.Rows != dst.Rows || src.Cols != dst.Cols {
		return models.NewError(loc, "buffers", models.ErrInvalidDimensions)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for rb := 0; rb < src.Rows; rb += m.tileSize {
		re := min(rb+m.tileSize, src.Rows)
		for cb := 0; cb < src.Cols; cb += m.tileSize {
			t := tile{rowBegin: rb, rowEnd: re, colBegin: cb, colEnd: min(cb+m.tileSize, src.Cols)}
			g.Go(func() error {
				// whole tiles or nothing, never a torn tile
				if err := ctx.Err(); err != nil {
					return err
				}
				mapTile(src, dst, t)
				return nil
			})
		}
	}
	return g.Wait()
}

func mapTile(src *RGBBuffer, dst *GrayBuffer, t tile) {
	for row := t.rowBegin; row < t.rowEnd; row++ {
		si := (row*src.Cols + t.colBegin) * 3
		di := row*dst.Cols + t.colBegin
		for col := t.colBegin; col < t.colEnd; col++ {
			sum := int(src.Pix[si]) + int(src.Pix[si+1]) + int(src.Pix[si+2])
			dst.Pix[di] = uint8(sum / 3)
			si += 3
			di++
		}
	}
}
