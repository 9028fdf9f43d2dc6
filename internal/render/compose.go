package render

import (
	"dtr-image/internal/dtr"
	logging "dtr-image/internal/infra/log"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

var (
	colorGain = color.RGBA{0, 200, 83, 255}
	colorLoss = color.RGBA{229, 57, 53, 255}
)

// Renderer draws submissions onto copies of one template.
type Renderer struct {
	template *Template
	fonts    *FontLoader
}

func NewRenderer(tpl *Template, fonts *FontLoader) *Renderer {
	return &Renderer{template: tpl, fonts: fonts}
}

func (r *Renderer) Template() *Template { return r.template }

// FieldResult records where and at what size a field ended up.
type FieldResult struct {
	Key      string
	Text     string
	X, Y     int
	FontSize float64
	Shrinks  int
}

// Result is everything produced by one submission.
type Result struct {
	Layout        string
	PercentChange string
	Image         image.Image
	Fields        []FieldResult
	Artifacts     []Artifact
	Warnings      []string
}

// Artifact returns the artifact for format, if the layout exported it.
func (res *Result) Artifact(format string) (Artifact, bool) {
	for _, a := range res.Artifacts {
		if a.Format == format {
			return a, true
		}
	}
	return Artifact{}, false
}

// Render draws every field of layout onto a fresh copy of the template and
// encodes the result. Missing fonts only add warnings.
func (r *Renderer) Render(layout dtr.Layout, in dtr.Inputs) (*Result, error) {
	start := time.Now()

	session := newFaceSession(r.fonts, func(family string, err error) {
		logging.LogWarn(FontWarning,
			zap.String("family", family),
			zap.String("path", r.fonts.Path(family)),
			zap.Error(err))
	})

	dc := gg.NewContextForImage(r.template.Image())
	height := r.template.Height()
	percent := in.PercentChange()

	fields := make([]FieldResult, 0, len(layout.Fields))
	for _, spec := range layout.Fields {
		text, ok := in.Text(spec.Key)
		if !ok {
			return nil, fmt.Errorf("layout %q: unknown field %q", layout.Name, spec.Key)
		}
		clr, err := ResolveColor(spec.Color, percent)
		if err != nil {
			return nil, fmt.Errorf("layout %q: field %q: %w", layout.Name, spec.Key, err)
		}

		y := spec.AnchorY(height)
		family := spec.Family
		fit := DrawFitted(dc, func(size float64) font.Face { return session.face(family, size) }, TextField{
			X:         float64(spec.X),
			Y:         float64(y),
			Text:      text,
			MaxWidth:  layout.MaxWidth,
			StartSize: spec.FontSize,
			Color:     clr,
		})

		fields = append(fields, FieldResult{
			Key:      spec.Key,
			Text:     text,
			X:        spec.X,
			Y:        y,
			FontSize: fit.FontSize,
			Shrinks:  fit.Shrinks,
		})
	}

	artifacts, err := Export(dc, layout.Formats)
	if err != nil {
		return nil, err
	}

	logging.LogDebug("Image rendered",
		zap.String("layout", layout.Name),
		zap.String("percent_change", percent),
		zap.Int("artifacts", len(artifacts)),
		zap.Int("warnings", len(session.warnings)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &Result{
		Layout:        layout.Name,
		PercentChange: percent,
		Image:         dc.Image(),
		Fields:        fields,
		Artifacts:     artifacts,
		Warnings:      session.warnings,
	}, nil
}

// ResolveColor parses a layout colour: a few names, "#rrggbb", "#rrggbbaa"
// or ColorSign, which picks green or red from the percent-change sign.
func ResolveColor(spec, percent string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "", "white":
		return color.White, nil
	case "black":
		return color.Black, nil
	case "green":
		return colorGain, nil
	case "red":
		return colorLoss, nil
	case dtr.ColorSign:
		if dtr.IsNegativeChange(percent) {
			return colorLoss, nil
		}
		return colorGain, nil
	}

	hex := strings.TrimPrefix(strings.TrimSpace(spec), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("invalid color %q", spec)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", spec, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ValidateLayout checks the parts of a layout only the renderer understands.
func ValidateLayout(l dtr.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	for _, f := range l.Fields {
		if _, err := ResolveColor(f.Color, dtr.DefaultPercentChange); err != nil {
			return fmt.Errorf("layout %q: field %q: %w", l.Name, f.Key, err)
		}
	}
	return nil
}
