// Package imagehash computes perceptual fingerprints for creature artwork.
//
// Images are first canonicalized (transparent margins cropped, alpha flattened
// onto white) so hashes reflect the creature rather than sprite padding.
// Engines then produce fixed-width fingerprints under one of four algorithms:
// average, difference, perception (DCT), or wavelet (Haar). Similarity maps
// Hamming distance onto [0, 1] and refuses to compare fingerprints from
// mismatched engines.
package imagehash
