package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PageFormat names a paper size.
type PageFormat string

const (
	FormatA4     PageFormat = "A4"
	FormatA3     PageFormat = "A3"
	FormatLetter PageFormat = "Letter"
)

// Orientation of the printed page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Paper dimensions in inches, portrait.
var paperSizes = map[PageFormat][2]float64{
	FormatA4:     {8.27, 11.7},
	FormatA3:     {11.7, 16.54},
	FormatLetter: {8.5, 11},
}

// DefaultMargin is applied to every side that is left empty.
const DefaultMargin = "20mm"

var (
	ErrInvalidFormat      = errors.New("invalid page format")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// Margins are CSS-like distances such as "20mm", "1in", "2.5cm" or "40px".
// A bare number is read as pixels.
type Margins struct {
	Top    string `json:"top" yaml:"top"`
	Bottom string `json:"bottom" yaml:"bottom"`
	Left   string `json:"left" yaml:"left"`
	Right  string `json:"right" yaml:"right"`
}

// UniformMargins returns Margins with the same distance on all sides.
func UniformMargins(d string) Margins {
	return Margins{Top: d, Bottom: d, Left: d, Right: d}
}

// RenderConfig controls PDF output. The zero value is valid: Resolved fills
// every unset field from DefaultRenderConfig.
type RenderConfig struct {
	Format            PageFormat  `json:"format" yaml:"format"`
	Orientation       Orientation `json:"orientation" yaml:"orientation"`
	Margins           Margins     `json:"margins" yaml:"margins"`
	PrintBackground   bool        `json:"print_background" yaml:"print_background"`
	PreferCSSPageSize bool        `json:"prefer_css_page_size" yaml:"prefer_css_page_size"`
}

// DefaultRenderConfig is the form-response export configuration.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Format:          FormatA4,
		Orientation:     Portrait,
		Margins:         UniformMargins(DefaultMargin),
		PrintBackground: true,
	}
}

// Resolved returns a copy with empty format, orientation and margins replaced
// by their defaults. Boolean flags are taken as given.
func (c RenderConfig) Resolved() RenderConfig {
	d := DefaultRenderConfig()
	r := c
	if r.Format == "" {
		r.Format = d.Format
	}
	if r.Orientation == "" {
		r.Orientation = d.Orientation
	}
	for _, m := range []*string{&r.Margins.Top, &r.Margins.Bottom, &r.Margins.Left, &r.Margins.Right} {
		if strings.TrimSpace(*m) == "" {
			*m = DefaultMargin
		}
	}
	return r
}

// Validate reports the first invalid field of the resolved configuration.
func (c RenderConfig) Validate() error {
	r := c.Resolved()
	if _, ok := paperSizes[r.Format]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, r.Format)
	}
	if r.Orientation != Portrait && r.Orientation != Landscape {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, r.Orientation)
	}
	for _, m := range []string{r.Margins.Top, r.Margins.Bottom, r.Margins.Left, r.Margins.Right} {
		if _, err := ParseDistance(m); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormat matches a format name case-insensitively.
func ParseFormat(s string) (PageFormat, error) {
	for f := range paperSizes {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// ParseOrientation matches an orientation case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case Portrait:
		return Portrait, nil
	case Landscape:
		return Landscape, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrientation, s)
}

var unitsPerInch = map[string]float64{
	"px": 96,
	"in": 1,
	"cm": 2.54,
	"mm": 25.4,
}

// ParseDistance converts a distance string to inches.
func ParseDistance(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidMargin)
	}
	unit := "px"
	if len(v) > 2 {
		if _, ok := unitsPerInch[v[len(v)-2:]]; ok {
			unit = v[len(v)-2:]
			v = strings.TrimSpace(v[:len(v)-2])
		}
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMargin, s)
	}
	return n / unitsPerInch[unit], nil
}

// PDFOptions is a RenderConfig converted to the engine's units (inches).
// Header and footer decorations are never printed.
type PDFOptions struct {
	PaperWidth        float64
	PaperHeight       float64
	MarginTop         float64
	MarginBottom      float64
	MarginLeft        float64
	MarginRight       float64
	Landscape         bool
	PrintBackground   bool
	PreferCSSPageSize bool
}

// PDFOptions resolves and converts the configuration.
func (c RenderConfig) PDFOptions() (PDFOptions, error) {
	if err := c.Validate(); err != nil {
		return PDFOptions{}, err
	}
	r := c.Resolved()
	size := paperSizes[r.Format]
	// Validate already parsed every margin.
	top, _ := ParseDistance(r.Margins.Top)
	bottom, _ := ParseDistance(r.Margins.Bottom)
	left, _ := ParseDistance(r.Margins.Left)
	right, _ := ParseDistance(r.Margins.Right)
	return PDFOptions{
		PaperWidth:        size[0],
		PaperHeight:       size[1],
		MarginTop:         top,
		MarginBottom:      bottom,
		MarginLeft:        left,
		MarginRight:       right,
		Landscape:         r.Orientation == Landscape,
		PrintBackground:   r.PrintBackground,
		PreferCSSPageSize: r.PreferCSSPageSize,
	}, nil
}
