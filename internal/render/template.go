package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
)

// Template is the background image every submission is drawn on. It is never
// drawn on directly; Renderer copies it per render.
type Template struct {
	path string
	img  image.Image
}

// LoadTemplate decodes the background image at path. The caller must treat a
// failure as fatal.
func LoadTemplate(path string) (*Template, error) {
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("template image %q not found or unreadable: %w", path, err)
	}
	return &Template{path: path, img: img}, nil
}

// NewTemplate wraps an already decoded image.
func NewTemplate(img image.Image) *Template {
	return &Template{img: img}
}

func (t *Template) Path() string { return t.path }

func (t *Template) Image() image.Image { return t.img }

func (t *Template) Width() int { return t.img.Bounds().Dx() }

func (t *Template) Height() int { return t.img.Bounds().Dy() }
