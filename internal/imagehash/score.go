package imagehash

// Classification labels how trustworthy a match's similarity is relative to
// the configured confidence threshold.
type Classification string

const (
	// ClassificationLikely marks similarities at or above the threshold.
	ClassificationLikely Classification = "Likely Accurate"
	// ClassificationUncertain marks similarities below the threshold.
	ClassificationUncertain Classification = "Potential Inaccurate"
)

func (c Classification) String() string {
	return string(c)
}

// Classify maps a similarity score to a classification. Pure function of its
// two arguments.
func Classify(similarity, threshold float64) Classification {
	if similarity >= threshold {
		return ClassificationLikely
	}
	return ClassificationUncertain
}

// SimilarityFromDistance converts a Hamming distance over bits total bits into
// a score in [0, 1], where 1 means identical. The distance is clamped to
// [0, bits] first so a mismatched-length comparison that slipped through can
// not push the score outside the unit interval. Zero or negative bit widths
// score 0.
func SimilarityFromDistance(distance, bits int) float64 {
	if bits <= 0 {
		return 0
	}
	if distance < 0 {
		distance = 0
	}
	if distance > bits {
		distance = bits
	}
	return 1 - float64(distance)/float64(bits)
}

// Similarity scores two fingerprints produced under the same method and size.
func Similarity(a, b *Fingerprint) (float64, error) {
	distance, err := a.Distance(b)
	if err != nil {
		return 0, err
	}
	return SimilarityFromDistance(distance, a.Bits()), nil
}
