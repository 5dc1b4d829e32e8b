package application

import (
	"context"
	"image"

	"github.com/glekoz/grayscale_image/raster"
)

// Grayscale converts img with the parallel tile mapper. The destination
// buffer is allocated here with the source's dimensions, which is the
// mapper's precondition.
func (a *App) Grayscale(ctx context.Context, img image.Image) (image.Image, error) {
	src := raster.FromImage(img)
	dst := raster.NewGrayBuffer(src.Rows, src.Cols)
	if err := a.Mapper.Map(ctx, src, dst); err != nil {
		return nil, err
	}
	return dst.Image(), nil
}
