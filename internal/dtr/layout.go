package dtr

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Font families a field can be drawn with.
const (
	FamilyPrimary   = "primary"
	FamilySecondary = "secondary"
)

// Export formats a layout can request.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ColorSign colours a field green for a non-negative percent-change and red
// otherwise.
const ColorSign = "sign"

const (
	DefaultLayout   = "classic"
	defaultMaxWidth = 1000
)

// FieldSpec places one text field on the template.
type FieldSpec struct {
	Key      string  `mapstructure:"key"`
	X        int     `mapstructure:"x"`
	Y        int     `mapstructure:"y"`
	YRatio   float64 `mapstructure:"y_ratio"` // when > 0, y = int(templateHeight * YRatio)
	FontSize float64 `mapstructure:"font_size"`
	Family   string  `mapstructure:"family"`
	Color    string  `mapstructure:"color"`
}

// AnchorY resolves the top edge of the field for a template of the given height.
func (f FieldSpec) AnchorY(templateHeight int) int {
	if f.YRatio > 0 {
		return int(float64(templateHeight) * f.YRatio)
	}
	return f.Y
}

// Layout is the position table and font configuration of one template variant.
type Layout struct {
	Name     string      `mapstructure:"name"`
	MaxWidth float64     `mapstructure:"max_width"`
	Fields   []FieldSpec `mapstructure:"fields"`
	Formats  []string    `mapstructure:"formats"`
}

// Clone returns a deep copy so callers cannot alter a registered layout.
func (l Layout) Clone() Layout {
	out := l
	out.Fields = append([]FieldSpec(nil), l.Fields...)
	out.Formats = append([]string(nil), l.Formats...)
	return out
}

// Validate checks that every field and format is renderable.
func (l Layout) Validate() error {
	var errs []error
	if l.Name == "" {
		errs = append(errs, errors.New("layout name is empty"))
	}
	if !isPositive(l.MaxWidth) {
		errs = append(errs, fmt.Errorf("layout %q: max_width must be positive, got %v", l.Name, l.MaxWidth))
	}
	if len(l.Fields) == 0 {
		errs = append(errs, fmt.Errorf("layout %q: no fields", l.Name))
	}
	for i, f := range l.Fields {
		if !isKnownKey(f.Key) {
			errs = append(errs, fmt.Errorf("layout %q: field %d: unknown key %q", l.Name, i, f.Key))
		}
		if !isPositive(f.FontSize) {
			errs = append(errs, fmt.Errorf("layout %q: field %q: font_size must be positive", l.Name, f.Key))
		}
		if f.Family != FamilyPrimary && f.Family != FamilySecondary {
			errs = append(errs, fmt.Errorf("layout %q: field %q: unknown font family %q", l.Name, f.Key, f.Family))
		}
		if !(f.YRatio >= 0 && f.YRatio <= 1) {
			errs = append(errs, fmt.Errorf("layout %q: field %q: y_ratio must be within [0, 1]", l.Name, f.Key))
		}
	}
	if len(l.Formats) == 0 {
		errs = append(errs, fmt.Errorf("layout %q: no export formats", l.Name))
	}
	for _, format := range l.Formats {
		if _, ok := NormalizeFormat(format); !ok {
			errs = append(errs, fmt.Errorf("layout %q: unknown export format %q", l.Name, format))
		}
	}
	return errors.Join(errs...)
}

// isPositive rejects NaN and infinities along with non-positive values.
func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// NormalizeFormat maps user-facing format names ("jpg", "PNG") onto FormatPNG
// or FormatJPEG.
func NormalizeFormat(format string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "png":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	default:
		return "", false
	}
}

// ClassicLayout is the single-ticker card: three prices and a large
// percent-change near the bottom, PNG only.
func ClassicLayout() Layout {
	return Layout{
		Name:     "classic",
		MaxWidth: defaultMaxWidth,
		Fields: []FieldSpec{
			{Key: KeyEntryPrice, X: 750, Y: 450, FontSize: 60, Family: FamilyPrimary, Color: "white"},
			{Key: KeyMarkPrice, X: 750, Y: 650, FontSize: 60, Family: FamilyPrimary, Color: "white"},
			{Key: KeyATH, X: 750, Y: 850, FontSize: 60, Family: FamilyPrimary, Color: "white"},
			{Key: KeyPercentChange, X: 150, YRatio: 0.80, FontSize: 120, Family: FamilyPrimary, Color: "white"},
		},
		Formats: []string{FormatPNG},
	}
}

// TickerLayout adds the token symbol, draws headline values with the
// secondary family and exports both PNG and JPEG.
func TickerLayout() Layout {
	return Layout{
		Name:     "ticker",
		MaxWidth: defaultMaxWidth,
		Fields: []FieldSpec{
			{Key: KeyTokenSymbol, X: 150, Y: 220, FontSize: 90, Family: FamilySecondary, Color: "white"},
			{Key: KeyEntryPrice, X: 750, Y: 450, FontSize: 60, Family: FamilyPrimary, Color: "white"},
			{Key: KeyMarkPrice, X: 750, Y: 650, FontSize: 60, Family: FamilyPrimary, Color: "white"},
			{Key: KeyATH, X: 750, Y: 850, FontSize: 60, Family: FamilyPrimary, Color: "#f5c542"},
			{Key: KeyPercentChange, X: 150, YRatio: 0.80, FontSize: 120, Family: FamilySecondary, Color: ColorSign},
		},
		Formats: []string{FormatPNG, FormatJPEG},
	}
}

// Registry holds the known layouts by name. It is immutable after NewRegistry.
type Registry struct {
	layouts map[string]Layout
}

// NewRegistry returns the built-in layouts with overrides applied on top.
// An override whose Name is empty takes its map key. Names are matched
// case-insensitively since viper lowercases map keys.
func NewRegistry(overrides map[string]Layout) (*Registry, error) {
	layouts := map[string]Layout{}
	for _, l := range []Layout{ClassicLayout(), TickerLayout()} {
		layouts[registryKey(l.Name)] = l
	}

	for name, l := range overrides {
		if l.Name == "" {
			l.Name = name
		}
		if l.MaxWidth == 0 {
			l.MaxWidth = defaultMaxWidth
		}
		if len(l.Formats) == 0 {
			l.Formats = []string{FormatPNG}
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("invalid layout override %q: %w", name, err)
		}
		layouts[registryKey(l.Name)] = l.Clone()
	}

	return &Registry{layouts: layouts}, nil
}

// Get returns a copy of the named layout.
func (r *Registry) Get(name string) (Layout, bool) {
	l, ok := r.layouts[registryKey(name)]
	if !ok {
		return Layout{}, false
	}
	return l.Clone(), true
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Names lists registered layouts in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
