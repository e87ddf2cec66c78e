package render

import "testing"

func TestChooseImageConfig(t *testing.T) {
	cases := []struct {
		width, height int
		wantAR        string
		wantSize      string
	}{
		{1376, 768, "16:9", "1K"},
		{4032, 3024, "4:3", "4K"},
		{3072, 3072, "1:1", "2K"},
		{1024, 1024, "1:1", "1K"},
		{768, 1376, "9:16", "1K"},
		{0, 0, "16:9", "2K"},
		{-5, 100, "16:9", "2K"},
	}
	for _, tc := range cases {
		ar, size := ChooseImageConfig(tc.width, tc.height)
		if ar != tc.wantAR || size != tc.wantSize {
			t.Errorf("ChooseImageConfig(%d, %d) = (%s, %s), want (%s, %s)",
				tc.width, tc.height, ar, size, tc.wantAR, tc.wantSize)
		}
	}
}

func TestChooseImageConfigDeterministic(t *testing.T) {
	ar1, size1 := ChooseImageConfig(2500, 1600)
	for i := 0; i < 50; i++ {
		ar, size := ChooseImageConfig(2500, 1600)
		if ar != ar1 || size != size1 {
			t.Fatalf("choice changed between runs: (%s,%s) vs (%s,%s)", ar, size, ar1, size1)
		}
	}
}

func TestChooseImageConfigCoversAllRatios(t *testing.T) {
	// Sweep a grid of plausible photo geometries; every choice must be a
	// supported ratio and tier.
	valid := map[string]bool{}
	for _, ar := range aspectRatios {
		valid[ar.name] = true
	}
	sizes := map[string]bool{}
	for _, s := range sizeTiers {
		sizes[s.name] = true
	}

	for w := 400; w <= 6000; w += 700 {
		for h := 400; h <= 6000; h += 700 {
			ar, size := ChooseImageConfig(w, h)
			if !valid[ar] {
				t.Fatalf("ChooseImageConfig(%d,%d) returned unsupported ratio %s", w, h, ar)
			}
			if !sizes[size] {
				t.Fatalf("ChooseImageConfig(%d,%d) returned unsupported size %s", w, h, size)
			}
		}
	}
}
