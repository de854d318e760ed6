package mask

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Alpha is a per-pixel opacity map with values in [0, 1], row-major.
type Alpha struct {
	Pix    []float32
	Width  int
	Height int
}

func New(width, height int) Alpha {
	return Alpha{
		Pix:    make([]float32, width*height),
		Width:  width,
		Height: height,
	}
}

// FromNRGBA reads the red channel of a grayscale NRGBA image (the shape
// imaging's resampler returns) into an Alpha mask.
func FromNRGBA(img *image.NRGBA) Alpha {
	b := img.Bounds()
	a := New(b.Dx(), b.Dy())
	for y := 0; y < a.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < a.Width; x++ {
			a.Pix[y*a.Width+x] = float32(row[x*4]) / 255.0
		}
	}
	return a
}

// ToGray renders the mask as an 8-bit grayscale image.
func (a Alpha) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, a.Width, a.Height))
	for i, v := range a.Pix {
		g.Pix[i] = quantize(v)
	}
	return g
}

// Threshold returns a hard-edged copy: values at or above t become fully
// opaque, everything below fully transparent. The receiver is not modified.
func (a Alpha) Threshold(t float64) Alpha {
	out := New(a.Width, a.Height)
	cut := float32(t)
	for i, v := range a.Pix {
		if v >= cut {
			out.Pix[i] = 1
		}
	}
	return out
}

// Compose merges the source image's RGB channels with the mask as alpha.
// The result is straight (non-premultiplied) NRGBA; source alpha, if any,
// is discarded in favor of the mask.
func Compose(src image.Image, a Alpha) (*image.NRGBA, error) {
	b := src.Bounds()
	if b.Dx() != a.Width || b.Dy() != a.Height {
		return nil, fmt.Errorf("mask size %dx%d does not match image %dx%d",
			a.Width, a.Height, b.Dx(), b.Dy())
	}

	// Clone converts any source color model (palette, YCbCr, gray) to
	// straight NRGBA with the origin at (0, 0).
	out := imaging.Clone(src)
	for y := 0; y < a.Height; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < a.Width; x++ {
			row[x*4+3] = quantize(a.Pix[y*a.Width+x])
		}
	}
	return out, nil
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
