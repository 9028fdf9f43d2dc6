package render

import (
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

const (
	MinFontSize = 10.0
	ShrinkStep  = 2.0
)

// MeasureFunc returns the rendered width of text at size pixels.
type MeasureFunc func(text string, size float64) float64

// FaceFunc returns the face to draw with at size pixels.
type FaceFunc func(size float64) font.Face

// FitFontSize walks down from startSize in ShrinkStep steps until text fits
// in maxWidth or the size reaches MinFontSize. It returns the chosen size and
// how many times it shrank.
func FitFontSize(text string, maxWidth, startSize float64, measure MeasureFunc) (float64, int) {
	size := startSize
	shrinks := 0
	width := measure(text, size)

	for width > maxWidth && size > MinFontSize {
		size -= ShrinkStep
		if size < MinFontSize {
			size = MinFontSize
		}
		shrinks++
		width = measure(text, size)
	}
	return size, shrinks
}

// TextField is one string to draw at a top-left anchor.
type TextField struct {
	X, Y      float64
	Text      string
	MaxWidth  float64
	StartSize float64
	Color     color.Color
}

// FitResult describes how a TextField was drawn.
type FitResult struct {
	FontSize float64
	Shrinks  int
	Width    float64
}

// DrawFitted draws f on dc as a single line, shrinking the font until its
// width fits f.MaxWidth. The text's top edge sits at f.Y.
func DrawFitted(dc *gg.Context, faces FaceFunc, f TextField) FitResult {
	measure := func(text string, size float64) float64 {
		dc.SetFontFace(faces(size))
		w, _ := dc.MeasureString(text)
		return w
	}

	size, shrinks := FitFontSize(f.Text, f.MaxWidth, f.StartSize, measure)

	face := faces(size)
	dc.SetFontFace(face)
	width, _ := dc.MeasureString(f.Text)
	ascent := float64(face.Metrics().Ascent) / 64

	dc.SetColor(f.Color)
	dc.DrawString(f.Text, f.X, f.Y+ascent)

	return FitResult{FontSize: size, Shrinks: shrinks, Width: width}
}
