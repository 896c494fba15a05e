// Package dataset loads image datasets from NumPy .npy files and serves
// them to the training loop as shuffled mini-batch tensors.
package dataset

import (
	"fmt"

	"github.com/facevae-ml/facevae/internal/tensor"
)

// Dataset is an in-memory image collection stored as contiguous NCHW
// float32 pixels in [0, 1].
type Dataset struct {
	data       []float32
	n, c, h, w int
}

// FromSlice builds a dataset from prepared NCHW pixel data. The slice is
// used directly, not copied.
func FromSlice(data []float32, n, c, h, w int) (*Dataset, error) {
	if len(data) != n*c*h*w {
		return nil, fmt.Errorf("dataset: %d pixels do not fill [%d, %d, %d, %d]", len(data), n, c, h, w)
	}
	return &Dataset{data: data, n: n, c: c, h: h, w: w}, nil
}

// NumSamples returns the number of images.
func (d *Dataset) NumSamples() int {
	return d.n
}

// ImageShape returns the per-image dimensions (channels, height, width).
func (d *Dataset) ImageShape() (c, h, w int) {
	return d.c, d.h, d.w
}

// Image returns the pixel data of image i as a view into the dataset.
func (d *Dataset) Image(i int) []float32 {
	if i < 0 || i >= d.n {
		panic(fmt.Sprintf("dataset: image index %d out of range [0, %d)", i, d.n))
	}
	size := d.c * d.h * d.w
	return d.data[i*size : (i+1)*size]
}

// Limit returns a dataset view holding at most n leading images. The
// underlying pixels are shared.
func (d *Dataset) Limit(n int) *Dataset {
	if n >= d.n {
		return d
	}
	if n < 0 {
		n = 0
	}
	size := d.c * d.h * d.w
	return &Dataset{data: d.data[:n*size], n: n, c: d.c, h: d.h, w: d.w}
}

// Split divides the dataset into a leading train part with frac of the
// images and a validation part with the remainder. Pixels are shared.
func (d *Dataset) Split(frac float64) (train, val *Dataset) {
	if frac < 0 || frac > 1 {
		panic(fmt.Sprintf("dataset: split fraction %v out of [0, 1]", frac))
	}
	cut := int(float64(d.n) * frac)
	size := d.c * d.h * d.w
	train = &Dataset{data: d.data[:cut*size], n: cut, c: d.c, h: d.h, w: d.w}
	val = &Dataset{data: d.data[cut*size:], n: d.n - cut, c: d.c, h: d.h, w: d.w}
	return train, val
}

// Batch copies the images at the given indices into a fresh
// [len(indices), C, H, W] tensor on the backend.
func Batch[B tensor.Backend](d *Dataset, indices []int, backend B) *tensor.Tensor[float32, B] {
	if len(indices) == 0 {
		panic("dataset: empty batch")
	}
	size := d.c * d.h * d.w
	raw, err := tensor.NewRaw(tensor.Shape{len(indices), d.c, d.h, d.w}, tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("dataset: batch alloc: %v", err))
	}
	dst := raw.AsFloat32()
	for bi, idx := range indices {
		copy(dst[bi*size:(bi+1)*size], d.Image(idx))
	}
	return tensor.New[float32, B](raw, backend)
}
