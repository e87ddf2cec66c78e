package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestMIMEType(t *testing.T) {
	cases := map[string]string{
		"a.jpg":      "image/jpeg",
		"b.JPEG":     "image/jpeg",
		"c.png":      "image/png",
		"d.webp":     "image/webp",
		"e.gif":      "image/gif",
		"f.unknown":  "image/jpeg",
		"/x/y/g.PNG": "image/png",
	}
	for path, want := range cases {
		if got := MIMEType(path); got != want {
			t.Errorf("MIMEType(%q) = %q, want %q", path, got, want)
		}
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	return img
}

func TestSaveJPEGAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jpg")
	if err := SaveJPEG(path, testImage(64, 48)); err != nil {
		t.Fatalf("SaveJPEG: %v", err)
	}

	w, h, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 64 || h != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", w, h)
	}

	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("decoded width = %d", img.Bounds().Dx())
	}
}

func TestOverlayLabel(t *testing.T) {
	src := testImage(800, 600)
	labeled := OverlayLabel(src, "")

	if labeled.Bounds() != src.Bounds() {
		t.Fatalf("label changed image bounds: %v", labeled.Bounds())
	}

	// The bottom-right corner must be darkened by the badge while the
	// top-left stays untouched.
	tl := color.NRGBAModel.Convert(labeled.At(5, 5)).(color.NRGBA)
	if tl.R < 150 {
		t.Errorf("top-left corner should be unmodified, got %+v", tl)
	}
	darkened := false
	for y := 500; y < 600; y++ {
		for x := 600; x < 800; x++ {
			c := color.NRGBAModel.Convert(labeled.At(x, y)).(color.NRGBA)
			if c.R < 120 {
				darkened = true
				break
			}
		}
		if darkened {
			break
		}
	}
	if !darkened {
		t.Error("bottom-right corner should carry the darkened badge")
	}
}
