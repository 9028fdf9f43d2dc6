package render

import (
	"bytes"
	"dtr-image/internal/dtr"
	logging "dtr-image/internal/infra/log"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func TestMain(m *testing.M) {
	logging.UseLogger(zap.NewNop())
	os.Exit(m.Run())
}

func writeGoRegular(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	return path
}

func blackTemplate(w, h int) *Template {
	dc := gg.NewContext(w, h)
	dc.SetColor(color.Black)
	dc.Clear()
	return NewTemplate(dc.Image())
}

func TestFontLoaderLoadsAndCaches(t *testing.T) {
	loader := NewFontLoader(writeGoRegular(t), "")

	small, err := loader.Face(dtr.FamilyPrimary, 20)
	require.NoError(t, err)
	large, err := loader.Face(dtr.FamilyPrimary, 80)
	require.NoError(t, err)

	assert.Greater(t, large.Metrics().Height, small.Metrics().Height)
	assert.Len(t, loader.parsed, 1)
}

func TestFontLoaderFallsBackOnMissingFile(t *testing.T) {
	loader := NewFontLoader(filepath.Join(t.TempDir(), "RobotoMono-Bold.ttf"), "")

	face, err := loader.Face(dtr.FamilyPrimary, 60)

	require.Error(t, err)
	var fallback *FallbackError
	require.True(t, errors.As(err, &fallback))
	assert.Equal(t, dtr.FamilyPrimary, fallback.Family)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Same(t, basicfont.Face7x13, face)
}

func TestFontLoaderFallsBackOnGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0644))

	face, err := NewFontLoader(path, path).Face(dtr.FamilySecondary, 60)

	require.Error(t, err)
	assert.Same(t, basicfont.Face7x13, face)
}

func TestFontLoaderUnknownFamily(t *testing.T) {
	_, err := NewFontLoader("", "").Face("serif", 12)
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.png")
	dc := gg.NewContext(320, 200)
	require.NoError(t, dc.SavePNG(path))

	tpl, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, 320, tpl.Width())
	assert.Equal(t, 200, tpl.Height())
	assert.Equal(t, path, tpl.Path())
}

func TestLoadTemplateMissing(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "template.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template image")
}

func TestRenderClassic(t *testing.T) {
	tpl := blackTemplate(1600, 1350)
	r := NewRenderer(tpl, NewFontLoader(writeGoRegular(t), ""))

	res, err := r.Render(dtr.ClassicLayout(), dtr.Inputs{EntryPrice: "100", MarkPrice: "150", ATH: "175"})
	require.NoError(t, err)

	assert.Equal(t, "classic", res.Layout)
	assert.Equal(t, "+50.00%", res.PercentChange)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Fields, 4)
	assert.Equal(t, "+50.00%", res.Fields[3].Text)
	assert.Equal(t, 1080, res.Fields[3].Y)
	assert.Equal(t, 120.0, res.Fields[3].FontSize)

	require.Len(t, res.Artifacts, 1)
	a := res.Artifacts[0]
	assert.Equal(t, "DTR_image.png", a.Filename)
	assert.Equal(t, "image/png", a.MIMEType)

	decoded, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1600, 1350), decoded.Bounds())

	// The template itself stays untouched.
	r0, g0, b0, _ := tpl.Image().At(760, 470).RGBA()
	assert.Zero(t, r0+g0+b0)
}

func TestRenderTickerWithMissingSecondaryFont(t *testing.T) {
	r := NewRenderer(blackTemplate(1600, 1350), NewFontLoader(writeGoRegular(t), "missing/Montserrat-Bold.ttf"))

	res, err := r.Render(dtr.TickerLayout(), dtr.Inputs{EntryPrice: "100", MarkPrice: "50", ATH: "300", TokenSymbol: "SOL"})
	require.NoError(t, err)

	assert.Equal(t, "-50.00%", res.PercentChange)
	assert.Equal(t, []string{FontWarning}, res.Warnings, "one warning per family per render")

	require.Len(t, res.Artifacts, 2)
	png0, ok := res.Artifact(dtr.FormatPNG)
	require.True(t, ok)
	assert.Equal(t, "DTR_image.png", png0.Filename)
	jpg, ok := res.Artifact(dtr.FormatJPEG)
	require.True(t, ok)
	assert.Equal(t, "DTR_image.jpg", jpg.Filename)
	assert.Equal(t, "image/jpeg", jpg.MIMEType)

	_, err = jpeg.Decode(bytes.NewReader(jpg.Data))
	require.NoError(t, err)
}

func TestRenderShrinksLongValues(t *testing.T) {
	r := NewRenderer(blackTemplate(1600, 1350), NewFontLoader(writeGoRegular(t), ""))

	long := strings.Repeat("1234567890", 6)
	res, err := r.Render(dtr.ClassicLayout(), dtr.Inputs{EntryPrice: long, MarkPrice: "1", ATH: ""})
	require.NoError(t, err)

	assert.Less(t, res.Fields[0].FontSize, 60.0)
	assert.GreaterOrEqual(t, res.Fields[0].FontSize, MinFontSize)
	assert.Equal(t, 60.0, res.Fields[1].FontSize)
	assert.Equal(t, 0, res.Fields[2].Shrinks, "empty ATH never shrinks")
}

func TestRenderIsRepeatable(t *testing.T) {
	r := NewRenderer(blackTemplate(1600, 1350), NewFontLoader(writeGoRegular(t), ""))
	in := dtr.Inputs{EntryPrice: strings.Repeat("7", 70), MarkPrice: "3", ATH: "9"}

	first, err := r.Render(dtr.ClassicLayout(), in)
	require.NoError(t, err)
	second, err := r.Render(dtr.ClassicLayout(), in)
	require.NoError(t, err)

	assert.Equal(t, first.Fields, second.Fields)
	assert.Equal(t, first.Artifacts[0].Data, second.Artifacts[0].Data)
}

func TestRenderWithAllFontsMissing(t *testing.T) {
	r := NewRenderer(blackTemplate(1600, 1350), NewFontLoader("", ""))

	res, err := r.Render(dtr.ClassicLayout(), dtr.Inputs{EntryPrice: "0", MarkPrice: "50"})
	require.NoError(t, err)

	assert.Equal(t, dtr.DefaultPercentChange, res.PercentChange)
	assert.Equal(t, []string{FontWarning}, res.Warnings)
	assert.Len(t, res.Artifacts, 1)
}

func TestResolveColor(t *testing.T) {
	c, err := ResolveColor("", "")
	require.NoError(t, err)
	assert.Equal(t, color.White, c)

	c, err = ResolveColor("#f5c542", "")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xf5, G: 0xc5, B: 0x42, A: 0xff}, c)

	c, err = ResolveColor("#10203040", "")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	c, err = ResolveColor(dtr.ColorSign, "-1.00%")
	require.NoError(t, err)
	assert.Equal(t, colorLoss, c)

	c, err = ResolveColor(dtr.ColorSign, "+0.00%")
	require.NoError(t, err)
	assert.Equal(t, colorGain, c)

	_, err = ResolveColor("#zzzzzz", "")
	assert.Error(t, err)
	_, err = ResolveColor("magenta", "")
	assert.Error(t, err)
}

func TestValidateLayoutRejectsBadColor(t *testing.T) {
	l := dtr.ClassicLayout()
	l.Fields[0].Color = "#12"
	assert.Error(t, ValidateLayout(l))
	assert.NoError(t, ValidateLayout(dtr.TickerLayout()))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := Export(gg.NewContext(10, 10), []string{"gif"})
	assert.Error(t, err)
}
