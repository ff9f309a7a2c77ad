package images

import (
	"image"
	"image/color"
)

// IsGrayscale reports whether every pixel of img has equal R, G and B.
// Gray images pass trivially; decoded JPEG (YCbCr) and PNG (NRGBA) frames
// are checked without going through the color model when possible.
func IsGrayscale(img image.Image) bool {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	case *image.YCbCr:
		if neutralChroma(m) {
			return true
		}
		// Non-neutral chroma may still cancel out after conversion.
	case *image.NRGBA:
		return nrgbaGray(m)
	}
	return scanGray(img)
}

// neutralChroma reports whether all chroma samples sit at the midpoint.
// YCbCr with Cb=Cr=128 converts to r=g=b exactly.
func neutralChroma(m *image.YCbCr) bool {
	for _, p := range m.Cb {
		if p != 128 {
			return false
		}
	}
	for _, p := range m.Cr {
		if p != 128 {
			return false
		}
	}
	return true
}

func nrgbaGray(m *image.NRGBA) bool {
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
			if m.Pix[i] != m.Pix[i+1] || m.Pix[i+1] != m.Pix[i+2] {
				return false
			}
		}
	}
	return true
}

func scanGray(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B {
				return false
			}
		}
	}
	return true
}
