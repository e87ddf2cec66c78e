package imaging

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// LabelText is the disclosure stamped on every staged photo. MLS rules
// require virtually staged listings to be marked as such.
const LabelText = "Virtually Staged"

// OverlayLabel draws the disclosure badge in the bottom-right corner of img.
// Badge geometry scales with the image's shorter dimension so it reads the
// same at any resolution. fontPath may be empty, in which case a built-in
// bitmap face is used.
func OverlayLabel(img image.Image, fontPath string) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	minDim := w
	if h < minDim {
		minDim = h
	}

	fontSize := float64(minDim) * 0.03
	if fontSize < 16 {
		fontSize = 16
	}
	padding := fontSize * 0.5
	if padding < 8 {
		padding = 8
	}
	margin := float64(minDim) * 0.02
	if margin < 10 {
		margin = 10
	}

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, 0, 0)

	if fontPath == "" || dc.LoadFontFace(fontPath, fontSize) != nil {
		dc.SetFontFace(basicfont.Face7x13)
	}

	textW, textH := dc.MeasureString(LabelText)
	boxW := textW + 2*padding
	boxH := textH + 2*padding
	boxX := float64(w) - boxW - margin
	boxY := float64(h) - boxH - margin

	dc.SetColor(color.NRGBA{R: 0, G: 0, B: 0, A: 180})
	dc.DrawRoundedRectangle(boxX, boxY, boxW, boxH, padding*0.5)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(LabelText, boxX+boxW/2, boxY+boxH/2, 0.5, 0.5)

	return dc.Image()
}
