package render

import (
	"dtr-image/internal/dtr"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontWarning is the notice shown when a font family falls back.
const FontWarning = "Font file not found. Using default font instead."

var ErrUnknownFamily = errors.New("unknown font family")

// FallbackError reports that Face returned the built-in fallback face.
type FallbackError struct {
	Family string
	Path   string
	Err    error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("font %s (%s) unavailable, using fallback: %v", e.Family, e.Path, e.Err)
}

func (e *FallbackError) Unwrap() error { return e.Err }

// FallbackFace is the fixed 7x13 bitmap face used when a font file cannot be
// loaded. It has one size only: auto-fit shrinking does not change its width.
func FallbackFace() font.Face {
	return basicfont.Face7x13
}

// FontLoader resolves font families to TrueType files and builds faces at a
// requested pixel size. Parsed fonts are cached; failed loads are retried on
// the next call so a font dropped in later is picked up.
type FontLoader struct {
	paths map[string]string

	mu     sync.Mutex
	parsed map[string]*truetype.Font
}

// NewFontLoader maps family names (dtr.FamilyPrimary, dtr.FamilySecondary)
// to font file paths.
func NewFontLoader(primary, secondary string) *FontLoader {
	return &FontLoader{
		paths: map[string]string{
			dtr.FamilyPrimary:   primary,
			dtr.FamilySecondary: secondary,
		},
		parsed: make(map[string]*truetype.Font),
	}
}

// Face returns the family's face at size pixels. On any load failure it
// returns FallbackFace together with a *FallbackError; the face is always
// usable.
func (l *FontLoader) Face(family string, size float64) (font.Face, error) {
	path, ok := l.paths[family]
	if !ok {
		return FallbackFace(), &FallbackError{Family: family, Err: ErrUnknownFamily}
	}

	f, err := l.load(path)
	if err != nil {
		return FallbackFace(), &FallbackError{Family: family, Path: path, Err: err}
	}

	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

// Path returns the configured file for family.
func (l *FontLoader) Path(family string) string {
	return l.paths[family]
}

func (l *FontLoader) load(path string) (*truetype.Font, error) {
	if path == "" {
		return nil, errors.New("no font file configured")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.parsed[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	l.parsed[path] = f
	return f, nil
}

// faceSession hands out faces for a single render and collects one warning per
// family that fell back.
type faceSession struct {
	loader   *FontLoader
	warned   map[string]bool
	warnings []string
	onWarn   func(family string, err error)
}

func newFaceSession(loader *FontLoader, onWarn func(string, error)) *faceSession {
	return &faceSession{loader: loader, warned: map[string]bool{}, onWarn: onWarn}
}

func (s *faceSession) face(family string, size float64) font.Face {
	face, err := s.loader.Face(family, size)
	if err != nil && !s.warned[family] {
		s.warned[family] = true
		s.warnings = append(s.warnings, FontWarning)
		if s.onWarn != nil {
			s.onWarn(family, err)
		}
	}
	return face
}
