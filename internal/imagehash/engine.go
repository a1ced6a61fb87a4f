package imagehash

import (
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// Engine computes fingerprints with a fixed method and grid size. Fingerprints
// from different engines never compare; Distance enforces that.
type Engine struct {
	method Method
	size   int
}

// NewEngine validates the size and returns a ready engine. The size is the bit
// width per side, so a size of 8 yields 64-bit fingerprints. Sizes are bounded
// to powers of two because the frequency and wavelet methods subdivide the
// grid by halving.
func NewEngine(method string, size int) (*Engine, error) {
	if size < 4 || size > 32 {
		return nil, fmt.Errorf("hash size %d out of range [4, 32]", size)
	}
	if size&(size-1) != 0 {
		return nil, fmt.Errorf("hash size %d is not a power of two", size)
	}
	return &Engine{method: ParseMethod(method), size: size}, nil
}

// Method reports the configured hash algorithm.
func (e *Engine) Method() Method { return e.method }

// Size reports the configured bits per side.
func (e *Engine) Size() int { return e.size }

// WithMethod returns an engine sharing this engine's size but computing a
// different algorithm. Refinement scores candidates under several methods
// without re-validating the size each time.
func (e *Engine) WithMethod(method Method) *Engine {
	return &Engine{method: method, size: e.size}
}

// Fingerprint hashes an already canonicalized image.
func (e *Engine) Fingerprint(img image.Image) (*Fingerprint, error) {
	return e.fingerprint(img, 1.0)
}

func (e *Engine) fingerprint(img image.Image, cropRatio float64) (*Fingerprint, error) {
	var (
		hash *goimagehash.ExtImageHash
		err  error
	)
	switch e.method {
	case MethodAverage:
		hash, err = goimagehash.ExtAverageHash(img, e.size, e.size)
	case MethodDifference:
		hash, err = goimagehash.ExtDifferenceHash(img, e.size, e.size)
	case MethodPerception:
		hash, err = goimagehash.ExtPerceptionHash(img, e.size, e.size)
	case MethodWavelet:
		hash, err = waveletHash(img, e.size)
	default:
		return nil, fmt.Errorf("unknown hash method %q", e.method)
	}
	if err != nil {
		return nil, fmt.Errorf("compute %s fingerprint: %w", e.method, err)
	}
	return &Fingerprint{method: e.method, size: e.size, cropRatio: cropRatio, hash: hash}, nil
}

// FingerprintBytes canonicalizes raw image bytes and hashes the result.
func (e *Engine) FingerprintBytes(data []byte) (*Fingerprint, error) {
	img, err := Canonicalize(data)
	if err != nil {
		return nil, err
	}
	return e.Fingerprint(img)
}

// Variants canonicalizes the bytes once and fingerprints every method × crop
// ratio combination at this engine's size. Empty ratios default to the
// standard crop ladder. A combination that fails to hash is skipped; a method
// appears in the result only when at least one of its variants succeeded.
func (e *Engine) Variants(data []byte, methods []Method, ratios []float64) (map[Method][]*Fingerprint, error) {
	img, err := Canonicalize(data)
	if err != nil {
		return nil, err
	}
	if len(ratios) == 0 {
		ratios = DefaultCropRatios
	}

	out := make(map[Method][]*Fingerprint, len(methods))
	for _, method := range methods {
		engine := e.WithMethod(method)
		prints := make([]*Fingerprint, 0, len(ratios))
		for _, ratio := range ratios {
			fp, err := engine.fingerprint(centerCrop(img, ratio), ratio)
			if err != nil {
				continue
			}
			prints = append(prints, fp)
		}
		if len(prints) > 0 {
			out[method] = prints
		}
	}
	return out, nil
}

// Fingerprint is a perceptual hash tagged with the method, size, and crop
// ratio that produced it.
type Fingerprint struct {
	method    Method
	size      int
	cropRatio float64
	hash      *goimagehash.ExtImageHash
}

// Method reports the algorithm that produced this fingerprint.
func (f *Fingerprint) Method() Method { return f.method }

// Size reports the bits per side of the fingerprint grid.
func (f *Fingerprint) Size() int { return f.size }

// CropRatio reports the center-crop ratio applied before hashing.
func (f *Fingerprint) CropRatio() float64 { return f.cropRatio }

// Bits reports the total fingerprint width in bits.
func (f *Fingerprint) Bits() int { return f.size * f.size }

// Distance counts mismatched bits between two fingerprints. Fingerprints
// produced under different methods or sizes do not compare; mixing them is a
// programming error and fails loudly rather than returning a misleading
// count.
func (f *Fingerprint) Distance(other *Fingerprint) (int, error) {
	if f == nil || other == nil {
		return 0, fmt.Errorf("distance requires two fingerprints")
	}
	if f.method != other.method {
		return 0, fmt.Errorf("fingerprint method mismatch: %s vs %s", f.method, other.method)
	}
	if f.size != other.size {
		return 0, fmt.Errorf("fingerprint size mismatch: %d vs %d", f.size, other.size)
	}
	distance, err := f.hash.Distance(other.hash)
	if err != nil {
		return 0, fmt.Errorf("fingerprint distance: %w", err)
	}
	return distance, nil
}

// String renders the fingerprint in the hash library's hex notation.
func (f *Fingerprint) String() string {
	if f == nil || f.hash == nil {
		return ""
	}
	return f.hash.ToString()
}
