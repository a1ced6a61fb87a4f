package imagehash_test

import (
	"image/color"
	"testing"

	"sightdex/internal/imagehash"
	"sightdex/internal/testsupport"
)

func TestParseMethod(t *testing.T) {
	cases := []struct {
		input string
		want  imagehash.Method
	}{
		{input: "ahash", want: imagehash.MethodAverage},
		{input: "dhash", want: imagehash.MethodDifference},
		{input: "phash", want: imagehash.MethodPerception},
		{input: "whash", want: imagehash.MethodWavelet},
		{input: "whash-haar", want: imagehash.MethodWavelet},
		{input: " PHash ", want: imagehash.MethodPerception},
		{input: "md5", want: imagehash.MethodPerception},
		{input: "", want: imagehash.MethodPerception},
	}
	for _, tc := range cases {
		if got := imagehash.ParseMethod(tc.input); got != tc.want {
			t.Errorf("ParseMethod(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNewEngineRejectsBadSizes(t *testing.T) {
	if _, err := imagehash.NewEngine("phash", 12); err == nil {
		t.Fatal("expected error for non power-of-two size")
	}
	if _, err := imagehash.NewEngine("phash", 2); err == nil {
		t.Fatal("expected error for undersized grid")
	}
	if _, err := imagehash.NewEngine("phash", 64); err == nil {
		t.Fatal("expected error for oversized grid")
	}

	engine, err := imagehash.NewEngine("md5", 8)
	if err != nil {
		t.Fatalf("unknown method should fall back, got error: %v", err)
	}
	if engine.Method() != imagehash.MethodPerception {
		t.Fatalf("fallback method = %q, want %q", engine.Method(), imagehash.MethodPerception)
	}
}

func TestCanonicalizeCropsTransparentMargin(t *testing.T) {
	data := testsupport.PaddedSprite(t, 64, 16, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	img, err := imagehash.Canonicalize(data)
	if err != nil {
		t.Fatalf("Canonicalize returned error: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("expected 32x32 crop, got %v", img.Bounds())
	}
}

func TestCanonicalizeKeepsOpaqueImage(t *testing.T) {
	data := testsupport.SolidSprite(t, 48, color.NRGBA{R: 10, G: 200, B: 90, A: 255})

	img, err := imagehash.Canonicalize(data)
	if err != nil {
		t.Fatalf("Canonicalize returned error: %v", err)
	}
	if img.Bounds().Dx() != 48 || img.Bounds().Dy() != 48 {
		t.Fatalf("expected full 48x48 frame, got %v", img.Bounds())
	}
}

func TestCanonicalizeRejectsGarbage(t *testing.T) {
	if _, err := imagehash.Canonicalize([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFingerprintIdenticalBytesScoreOne(t *testing.T) {
	data := testsupport.CheckerSprite(t, 64, 8)

	for _, method := range []string{"ahash", "dhash", "phash", "whash"} {
		engine, err := imagehash.NewEngine(method, 8)
		if err != nil {
			t.Fatalf("NewEngine(%s): %v", method, err)
		}
		first, err := engine.FingerprintBytes(data)
		if err != nil {
			t.Fatalf("first fingerprint (%s): %v", method, err)
		}
		second, err := engine.FingerprintBytes(data)
		if err != nil {
			t.Fatalf("second fingerprint (%s): %v", method, err)
		}
		distance, err := first.Distance(second)
		if err != nil {
			t.Fatalf("distance (%s): %v", method, err)
		}
		if distance != 0 {
			t.Errorf("method %s: identical bytes at distance %d, want 0", method, distance)
		}
		sim, err := imagehash.Similarity(first, second)
		if err != nil {
			t.Fatalf("similarity (%s): %v", method, err)
		}
		if sim != 1.0 {
			t.Errorf("method %s: identical bytes scored %v, want 1.0", method, sim)
		}
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	a, err := engine.FingerprintBytes(testsupport.GradientSprite(t, 64, true))
	if err != nil {
		t.Fatalf("fingerprint a: %v", err)
	}
	b, err := engine.FingerprintBytes(testsupport.GradientSprite(t, 64, false))
	if err != nil {
		t.Fatalf("fingerprint b: %v", err)
	}

	ab, err := a.Distance(b)
	if err != nil {
		t.Fatalf("distance a-b: %v", err)
	}
	ba, err := b.Distance(a)
	if err != nil {
		t.Fatalf("distance b-a: %v", err)
	}
	if ab != ba {
		t.Fatalf("distance not symmetric: %d vs %d", ab, ba)
	}
}

func TestPaddedAndBareContentScoreOne(t *testing.T) {
	fill := color.NRGBA{R: 40, G: 90, B: 220, A: 255}
	padded := testsupport.PaddedSprite(t, 64, 16, fill)
	bare := testsupport.SolidSprite(t, 32, fill)

	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	fromPadded, err := engine.FingerprintBytes(padded)
	if err != nil {
		t.Fatalf("fingerprint padded: %v", err)
	}
	fromBare, err := engine.FingerprintBytes(bare)
	if err != nil {
		t.Fatalf("fingerprint bare: %v", err)
	}
	sim, err := imagehash.Similarity(fromPadded, fromBare)
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if sim != 1.0 {
		t.Fatalf("margin crop should align the images, got similarity %v", sim)
	}
}

func TestSimilarityDistinguishesOrientations(t *testing.T) {
	horizontal := testsupport.GradientSprite(t, 64, true)
	vertical := testsupport.GradientSprite(t, 64, false)

	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	a, err := engine.FingerprintBytes(horizontal)
	if err != nil {
		t.Fatalf("fingerprint horizontal: %v", err)
	}
	b, err := engine.FingerprintBytes(vertical)
	if err != nil {
		t.Fatalf("fingerprint vertical: %v", err)
	}
	sim, err := imagehash.Similarity(a, b)
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if sim < 0 || sim > 1 {
		t.Fatalf("similarity %v out of range", sim)
	}
	if sim == 1.0 {
		t.Fatal("perpendicular gradients should not be identical")
	}
}

func TestSimilarityRejectsMismatchedFingerprints(t *testing.T) {
	data := testsupport.CheckerSprite(t, 64, 8)

	perception, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	average := perception.WithMethod(imagehash.MethodAverage)
	wide, err := imagehash.NewEngine("phash", 16)
	if err != nil {
		t.Fatalf("NewEngine wide: %v", err)
	}

	base, err := perception.FingerprintBytes(data)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	other, err := average.FingerprintBytes(data)
	if err != nil {
		t.Fatalf("fingerprint ahash: %v", err)
	}
	wider, err := wide.FingerprintBytes(data)
	if err != nil {
		t.Fatalf("fingerprint 16: %v", err)
	}

	if _, err := imagehash.Similarity(base, other); err == nil {
		t.Fatal("expected method mismatch error")
	}
	if _, err := imagehash.Similarity(base, wider); err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, err := imagehash.Similarity(base, nil); err == nil {
		t.Fatal("expected nil fingerprint error")
	}
}

func TestSimilarityFromDistanceClamps(t *testing.T) {
	cases := []struct {
		distance int
		bits     int
		want     float64
	}{
		{distance: 0, bits: 64, want: 1.0},
		{distance: 64, bits: 64, want: 0.0},
		{distance: 16, bits: 64, want: 0.75},
		{distance: -5, bits: 64, want: 1.0},
		{distance: 200, bits: 64, want: 0.0},
		{distance: 10, bits: 0, want: 0.0},
	}
	for _, tc := range cases {
		if got := imagehash.SimilarityFromDistance(tc.distance, tc.bits); got != tc.want {
			t.Errorf("SimilarityFromDistance(%d, %d) = %v, want %v", tc.distance, tc.bits, got, tc.want)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	cases := []struct {
		similarity float64
		threshold  float64
		want       imagehash.Classification
	}{
		{similarity: 0.95, threshold: 0.9, want: imagehash.ClassificationLikely},
		{similarity: 0.9, threshold: 0.9, want: imagehash.ClassificationLikely},
		{similarity: 0.89, threshold: 0.9, want: imagehash.ClassificationUncertain},
		{similarity: 0.0, threshold: 0.9, want: imagehash.ClassificationUncertain},
		{similarity: 1.0, threshold: 1.0, want: imagehash.ClassificationLikely},
	}
	for _, tc := range cases {
		for i := 0; i < 3; i++ {
			if got := imagehash.Classify(tc.similarity, tc.threshold); got != tc.want {
				t.Errorf("Classify(%v, %v) = %q, want %q", tc.similarity, tc.threshold, got, tc.want)
			}
		}
	}
	if imagehash.ClassificationLikely.String() != "Likely Accurate" {
		t.Fatalf("unexpected likely label: %q", imagehash.ClassificationLikely)
	}
	if imagehash.ClassificationUncertain.String() != "Potential Inaccurate" {
		t.Fatalf("unexpected uncertain label: %q", imagehash.ClassificationUncertain)
	}
}

func TestCropVariants(t *testing.T) {
	data := testsupport.GradientSprite(t, 100, true)
	img, err := imagehash.Canonicalize(data)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}

	variants := imagehash.CropVariants(img)
	if len(variants) != 4 {
		t.Fatalf("expected 4 variants, got %d", len(variants))
	}
	wantSides := []int{100, 90, 80, 70}
	for i, variant := range variants {
		if variant.Bounds().Dx() != wantSides[i] || variant.Bounds().Dy() != wantSides[i] {
			t.Errorf("variant %d: got %v, want %dx%d", i, variant.Bounds(), wantSides[i], wantSides[i])
		}
	}
}

func TestVariantsFingerprintsEveryCombination(t *testing.T) {
	data := testsupport.GradientSprite(t, 100, true)
	engine, err := imagehash.NewEngine("phash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	methods := []imagehash.Method{imagehash.MethodPerception, imagehash.MethodDifference, imagehash.MethodWavelet}
	variants, err := engine.Variants(data, methods, nil)
	if err != nil {
		t.Fatalf("Variants returned error: %v", err)
	}
	if len(variants) != len(methods) {
		t.Fatalf("expected %d methods, got %d", len(methods), len(variants))
	}
	for _, method := range methods {
		prints := variants[method]
		if len(prints) != 4 {
			t.Fatalf("method %s: expected 4 crop variants, got %d", method, len(prints))
		}
		wantRatios := []float64{1.0, 0.9, 0.8, 0.7}
		for i, fp := range prints {
			if fp.Method() != method {
				t.Errorf("method %s variant %d tagged %s", method, i, fp.Method())
			}
			if fp.CropRatio() != wantRatios[i] {
				t.Errorf("method %s variant %d ratio %v, want %v", method, i, fp.CropRatio(), wantRatios[i])
			}
			if fp.Size() != 8 {
				t.Errorf("method %s variant %d size %d, want 8", method, i, fp.Size())
			}
		}
	}

	if _, err := engine.Variants([]byte("junk"), methods, nil); err == nil {
		t.Fatal("expected error for undecodable bytes")
	}
}

func TestWaveletHashIsDeterministic(t *testing.T) {
	checker := testsupport.CheckerSprite(t, 64, 8)
	gradient := testsupport.GradientSprite(t, 64, true)

	engine, err := imagehash.NewEngine("whash", 8)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	first, err := engine.FingerprintBytes(checker)
	if err != nil {
		t.Fatalf("fingerprint checker: %v", err)
	}
	second, err := engine.FingerprintBytes(checker)
	if err != nil {
		t.Fatalf("fingerprint checker again: %v", err)
	}
	if first.String() == "" || first.String() != second.String() {
		t.Fatalf("wavelet hash not deterministic: %q vs %q", first.String(), second.String())
	}

	other, err := engine.FingerprintBytes(gradient)
	if err != nil {
		t.Fatalf("fingerprint gradient: %v", err)
	}
	if first.String() == other.String() {
		t.Fatal("distinct images produced identical wavelet hashes")
	}
}
