package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// EncodePNG serializes an image for use as a fake sprite payload.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SolidSprite renders a single-color opaque square.
func SolidSprite(t testing.TB, size int, fill color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	return EncodePNG(t, img)
}

// GradientSprite renders an opaque gradient. Horizontal gradients vary along
// x, vertical ones along y, so the two orientations hash far apart.
func GradientSprite(t testing.TB, size int, horizontal bool) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			position := y
			if horizontal {
				position = x
			}
			v := uint8(position * 255 / max(1, size-1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return EncodePNG(t, img)
}

// CheckerSprite renders an opaque checkerboard with the given cell size.
func CheckerSprite(t testing.TB, size, cell int) []byte {
	t.Helper()

	if cell < 1 {
		cell = 1
	}
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			shade := uint8(230)
			if (x/cell+y/cell)%2 == 0 {
				shade = 25
			}
			img.SetNRGBA(x, y, color.NRGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	return EncodePNG(t, img)
}

// PaddedSprite draws content inside a transparent margin. Canonicalization
// should crop the margin away, so a padded sprite and its content hash alike.
func PaddedSprite(t testing.TB, size, margin int, fill color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := margin; y < size-margin; y++ {
		for x := margin; x < size-margin; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	return EncodePNG(t, img)
}
