package imagehash

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// waveletHash computes a Haar-wavelet fingerprint: the image is reduced to a
// square power-of-two grid, the global mean is removed, and the approximation
// band is decomposed down to size×size before thresholding against its median.
func waveletHash(img image.Image, size int) (*goimagehash.ExtImageHash, error) {
	bounds := img.Bounds()
	minSide := bounds.Dx()
	if bounds.Dy() < minSide {
		minSide = bounds.Dy()
	}
	if minSide <= 0 {
		return nil, fmt.Errorf("image has empty bounds %v", bounds)
	}

	scale := size
	if natural := floorPow2(minSide); natural > scale {
		scale = natural
	}

	gray := imaging.Resize(imaging.Grayscale(img), scale, scale, imaging.Lanczos)

	band := make([]float64, scale*scale)
	var sum float64
	for y := 0; y < scale; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+scale*4]
		for x := 0; x < scale; x++ {
			v := float64(row[x*4]) / 255.0
			band[y*scale+x] = v
			sum += v
		}
	}

	// Zeroing the top-level approximation coefficient of a full Haar
	// decomposition is the same as subtracting the mean intensity, which
	// keeps uniformly lighter or darker copies of an image close together.
	mean := sum / float64(len(band))
	for i := range band {
		band[i] -= mean
	}

	for width := scale; width > size; width /= 2 {
		band = haarStep(band, width)
	}

	bits := make([]bool, size*size)
	median := medianOf(band)
	for i, v := range band {
		bits[i] = v > median
	}

	return goimagehash.NewExtImageHash(packBits(bits), goimagehash.WHash, size*size), nil
}

// haarStep applies one level of the orthonormal 2D Haar transform to a square
// band of the given width and returns the half-width approximation band.
func haarStep(band []float64, width int) []float64 {
	half := width / 2

	rows := make([]float64, half*width)
	for y := 0; y < width; y++ {
		for x := 0; x < half; x++ {
			rows[y*half+x] = (band[y*width+2*x] + band[y*width+2*x+1]) / math.Sqrt2
		}
	}

	out := make([]float64, half*half)
	for y := 0; y < half; y++ {
		for x := 0; x < half; x++ {
			out[y*half+x] = (rows[2*y*half+x] + rows[(2*y+1)*half+x]) / math.Sqrt2
		}
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// packBits lays out bits row-major, most significant bit first, matching the
// word layout the hash library uses for its own fingerprints.
func packBits(bits []bool) []uint64 {
	const wordSize = 64
	words := make([]uint64, (len(bits)+wordSize-1)/wordSize)
	for idx, set := range bits {
		if set {
			words[idx/wordSize] |= 1 << uint(wordSize-idx%wordSize-1)
		}
	}
	return words
}

func floorPow2(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
