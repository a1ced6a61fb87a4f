package imagehash

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Canonicalize decodes raw image bytes into the normalized form every
// fingerprint is computed from: cropped to the opaque content when the image
// carries transparency, then flattened onto a white background.
//
// Sprite sheets pad creatures with large transparent margins, and the padding
// varies per generation; without the crop the margin dominates the hash.
func Canonicalize(data []byte) (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return canonicalizeImage(src), nil
}

func canonicalizeImage(src image.Image) image.Image {
	rgba := imaging.Clone(src)
	if bounds, ok := opaqueBounds(rgba); ok {
		rgba = imaging.Crop(rgba, bounds)
	}
	background := imaging.New(rgba.Bounds().Dx(), rgba.Bounds().Dy(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return imaging.Overlay(background, rgba, image.Pt(0, 0), 1.0)
}

// opaqueBounds returns the bounding box of pixels with nonzero alpha. The
// second result is false when the image has no such pixels, in which case the
// caller keeps the full frame.
func opaqueBounds(img *image.NRGBA) (image.Rectangle, bool) {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride : (y-bounds.Min.Y)*img.Stride+bounds.Dx()*4]
		for x := 0; x < bounds.Dx(); x++ {
			if row[x*4+3] == 0 {
				continue
			}
			px := bounds.Min.X + x
			if px < minX {
				minX = px
			}
			if px > maxX {
				maxX = px
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	rect := image.Rect(minX, minY, maxX+1, maxY+1)
	if rect == bounds {
		return image.Rectangle{}, false
	}
	return rect, true
}

// DefaultCropRatios is the center-crop ladder applied to query images during
// refinement, from the full frame down to a 70% window.
var DefaultCropRatios = []float64{1.0, 0.9, 0.8, 0.7}

// centerCrop returns a centered window covering ratio of each dimension.
// Ratios at or above 0.999 keep the full frame; crop dimensions floor at one
// pixel so degenerate ratios never produce an empty image.
func centerCrop(img image.Image, ratio float64) image.Image {
	if ratio >= 0.999 {
		return img
	}
	cropWidth := max(1, int(float64(img.Bounds().Dx())*ratio))
	cropHeight := max(1, int(float64(img.Bounds().Dy())*ratio))
	return imaging.CropCenter(img, cropWidth, cropHeight)
}

// CropVariants returns the image plus progressively tighter center crops.
// Matching each variant against candidate artwork tolerates photos that
// include background around the creature.
func CropVariants(img image.Image) []image.Image {
	variants := make([]image.Image, 0, len(DefaultCropRatios))
	for _, ratio := range DefaultCropRatios {
		variants = append(variants, centerCrop(img, ratio))
	}
	return variants
}
