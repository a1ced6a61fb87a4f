package imagehash

import "strings"

// Method selects the perceptual hash algorithm used for fingerprints.
type Method string

const (
	// MethodAverage thresholds each cell against the mean intensity.
	MethodAverage Method = "ahash"
	// MethodDifference compares horizontally adjacent cells.
	MethodDifference Method = "dhash"
	// MethodPerception thresholds low-frequency DCT coefficients.
	MethodPerception Method = "phash"
	// MethodWavelet thresholds the Haar approximation band against its median.
	MethodWavelet Method = "whash"
)

// ParseMethod converts a config string into a Method. Unknown or empty names
// fall back to MethodPerception rather than failing, so a stale config value
// degrades to the default algorithm instead of refusing every request.
func ParseMethod(value string) Method {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ahash":
		return MethodAverage
	case "dhash":
		return MethodDifference
	case "whash", "whash-haar", "whash_haar":
		return MethodWavelet
	default:
		return MethodPerception
	}
}

func (m Method) String() string {
	return string(m)
}
