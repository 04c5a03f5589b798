package report

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Letter page size in points.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Download metadata for rendered reports.
const (
	FileName = "healthcare_report.pdf"
	MIMEType = "application/pdf"
)

// DefaultMarkers are the section prefixes the symptom assistant is asked to emit.
var DefaultMarkers = []string{"Conditions:", "Advice:"}

// Geometry is the fixed page size and margin, in points.
type Geometry struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Margin float64 `yaml:"margin"`
}

// AvailableWidth is the wrap width for lines drawn at the left margin.
func (g Geometry) AvailableWidth() float64 {
	return g.Width - 2*g.Margin
}

// Validate reports geometry that cannot hold a single line of text.
func (g Geometry) Validate() error {
	for _, v := range []float64{g.Width, g.Height, g.Margin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidGeometryError{Geometry: g, Reason: "dimensions must be finite"}
		}
	}
	if g.Margin < 0 {
		return &InvalidGeometryError{Geometry: g, Reason: "margin must not be negative"}
	}
	if g.AvailableWidth() <= 0 {
		return &InvalidGeometryError{Geometry: g, Reason: "width minus both margins must be positive"}
	}
	if g.Height-2*g.Margin <= 0 {
		return &InvalidGeometryError{Geometry: g, Reason: "height minus both margins must be positive"}
	}
	return nil
}

// RGB is a fill color with 0-255 components.
type RGB struct {
	R, G, B int
}

// Style is the font and placement applied to one kind of line.
type Style struct {
	Font   string
	Bold   bool
	Size   float64
	Color  RGB
	Indent float64
}

func (s Style) fontStyle() string {
	if s.Bold {
		return "B"
	}
	return ""
}

// coreFonts are the standard PDF fonts that need no embedding.
var coreFonts = map[string]bool{
	"helvetica": true,
	"arial":     true,
	"times":     true,
	"courier":   true,
}

// Options is everything a render needs besides the report text.
type Options struct {
	Geometry Geometry
	Title    string
	Markers  []string

	TitleStyle  Style
	HeaderStyle Style
	BodyStyle   Style

	// TitleOffset is the gap between the title baseline and the first line.
	TitleOffset float64
	// Leading is added to the font size to advance the cursor.
	Leading float64

	// ReplaceUnsupported substitutes '?' for characters the core fonts
	// cannot encode instead of failing the render.
	ReplaceUnsupported bool

	// Timestamp is written as the document creation and modification date.
	Timestamp time.Time
}

// DefaultTimestamp keeps output byte-identical across runs.
var DefaultTimestamp = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultOptions returns a US Letter layout with 50pt margins.
func DefaultOptions() Options {
	return Options{
		Geometry: Geometry{Width: LetterWidth, Height: LetterHeight, Margin: 50},
		Title:    "Healthcare Report",
		Markers:  append([]string(nil), DefaultMarkers...),
		TitleStyle: Style{
			Font:  "Helvetica",
			Bold:  true,
			Size:  20,
			Color: RGB{R: 51, G: 102, B: 153},
		},
		HeaderStyle: Style{
			Font:  "Helvetica",
			Bold:  true,
			Size:  16,
			Color: RGB{R: 102, G: 153, B: 204},
		},
		BodyStyle: Style{
			Font:   "Helvetica",
			Size:   12,
			Indent: 20,
		},
		TitleOffset: 30,
		Leading:     2,
		Timestamp:   DefaultTimestamp,
	}
}

func (o Options) validate() error {
	if err := o.Geometry.Validate(); err != nil {
		return err
	}
	for _, v := range []float64{
		o.TitleStyle.Size, o.TitleStyle.Indent,
		o.HeaderStyle.Size, o.HeaderStyle.Indent,
		o.BodyStyle.Size, o.BodyStyle.Indent,
		o.Leading, o.TitleOffset,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidGeometryError{Geometry: o.Geometry, Reason: "style sizes, indents, leading and title offset must be finite"}
		}
	}
	if o.TitleStyle.Indent < 0 || o.HeaderStyle.Indent < 0 || o.BodyStyle.Indent < 0 {
		return &InvalidGeometryError{Geometry: o.Geometry, Reason: "indent must not be negative"}
	}
	if o.TitleOffset < 0 {
		return &InvalidGeometryError{Geometry: o.Geometry, Reason: fmt.Sprintf("title offset %.2f must not be negative", o.TitleOffset)}
	}
	for _, st := range []struct {
		name  string
		style Style
	}{{"title", o.TitleStyle}, {"header", o.HeaderStyle}, {"body", o.BodyStyle}} {
		if o.Geometry.AvailableWidth()-st.style.Indent <= 0 {
			return &InvalidGeometryError{Geometry: o.Geometry, Reason: fmt.Sprintf("%s indent %.2f leaves no wrap width", st.name, st.style.Indent)}
		}
	}
	for _, s := range []Style{o.TitleStyle, o.HeaderStyle, o.BodyStyle} {
		if s.Size <= 0 {
			return &RenderError{Err: fmt.Errorf("font size must be positive, got %.2f", s.Size)}
		}
		// The cursor must move down after every line.
		if s.Size+o.Leading <= 0 {
			return &InvalidGeometryError{Geometry: o.Geometry, Reason: fmt.Sprintf("leading %.2f with font size %.2f does not advance the cursor", o.Leading, s.Size)}
		}
		if !coreFonts[strings.ToLower(s.Font)] {
			return &RenderError{Err: fmt.Errorf("unsupported font family %q", s.Font)}
		}
	}
	return nil
}

// isHeader reports whether line starts with one of the section markers.
func (o Options) isHeader(line string) bool {
	for _, m := range o.Markers {
		if m != "" && strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
