package generate

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// GridConfig controls how decoded samples are laid out.
type GridConfig struct {
	Rows    int
	Cols    int
	Upscale int // integer upscale factor; 0 or 1 leaves images at native size
}

// RenderGrid assembles a [N, 3, H, W] batch of decoded images into a
// rows×cols grid. Pixel values are clamped to [0, 1] and quantized to
// 8-bit RGB. N must equal Rows·Cols.
func RenderGrid(batch *tensor.RawTensor, config GridConfig) (*image.RGBA, error) {
	shape := batch.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		return nil, fmt.Errorf("generate: expected [N, 3, H, W] batch, got %v", shape)
	}
	n, h, w := shape[0], shape[2], shape[3]
	if config.Rows*config.Cols != n {
		return nil, fmt.Errorf("generate: %d×%d grid cannot hold %d images", config.Rows, config.Cols, n)
	}

	data := batch.AsFloat32()
	grid := image.NewRGBA(image.Rect(0, 0, config.Cols*w, config.Rows*h))

	for i := 0; i < n; i++ {
		ox := (i % config.Cols) * w
		oy := (i / config.Cols) * h
		img := data[i*3*h*w:]
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				grid.SetRGBA(ox+x, oy+y, color.RGBA{
					R: quantize(img[(0*h+y)*w+x]),
					G: quantize(img[(1*h+y)*w+x]),
					B: quantize(img[(2*h+y)*w+x]),
					A: 255,
				})
			}
		}
	}

	if config.Upscale > 1 {
		scaled := image.NewRGBA(image.Rect(0, 0,
			grid.Bounds().Dx()*config.Upscale, grid.Bounds().Dy()*config.Upscale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), grid, grid.Bounds(), draw.Src, nil)
		grid = scaled
	}
	return grid, nil
}

// WriteGrid renders the batch and encodes it as PNG.
func WriteGrid(w io.Writer, batch *tensor.RawTensor, config GridConfig) error {
	grid, err := RenderGrid(batch, config)
	if err != nil {
		return err
	}
	if err := png.Encode(w, grid); err != nil {
		return fmt.Errorf("generate: encode png: %w", err)
	}
	return nil
}

// SaveGrid renders the batch and writes it to a PNG file.
func SaveGrid(path string, batch *tensor.RawTensor, config GridConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("generate: create %s: %w", path, err)
	}
	if err := WriteGrid(f, batch, config); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("generate: close %s: %w", path, err)
	}
	return nil
}

// quantize clamps a pixel to [0, 1] and maps it onto the 8-bit range.
func quantize(v float32) uint8 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
