package metrics

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/pkg/errors"
)

// CellSize is the edge of one heat map cell in pixels.
const CellSize = 16

// Image renders the row normalized matrix: white is zero, dark blue is the
// whole row.
func (c *Confusion) Image() *image.RGBA {
	var n = len(c.Labels)
	var img = image.NewRGBA(image.Rect(0, 0, n*CellSize, n*CellSize))
	for i, row := range c.Counts {
		var sum int
		for _, v := range row {
			sum += v
		}
		for j, v := range row {
			var f float64
			if sum > 0 {
				f = float64(v) / float64(sum)
			}
			col := color.RGBA{
				R: uint8(255 - f*247),
				G: uint8(255 - f*207),
				B: uint8(255 - f*148),
				A: 255,
			}
			for y := i * CellSize; y < (i+1)*CellSize; y++ {
				for x := j * CellSize; x < (j+1)*CellSize; x++ {
					img.SetRGBA(x, y, col)
				}
			}
		}
	}
	return img
}

// WritePNG encodes Image as PNG.
func (c *Confusion) WritePNG(w io.Writer) error {
	return errors.Wrap(png.Encode(w, c.Image()), "metrics")
}

// SavePNG writes the heat map to path.
func (c *Confusion) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "metrics")
	}
	if err := c.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), path)
}
