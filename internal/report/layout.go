package report

import (
	"strings"
)

// Kind tells which style a run was drawn with.
type Kind int

const (
	KindTitle Kind = iota
	KindHeader
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	default:
		return "unknown"
	}
}

// Run is one wrapped sub-line placed on a page. Y is the baseline measured
// from the bottom edge of the page.
type Run struct {
	Kind  Kind
	Text  string
	Style Style
	X, Y  float64
	// Line is the 1-based input line the run came from, 0 for the title.
	Line int
}

// Page holds the runs drawn on one page, top to bottom.
type Page struct {
	Runs []Run
}

// Layout is a report broken into pages, ready to be written.
type Layout struct {
	Geometry Geometry
	Pages    []Page
}

// Runs returns every run in drawing order.
func (l *Layout) Runs() []Run {
	var out []Run
	for _, p := range l.Pages {
		out = append(out, p.Runs...)
	}
	return out
}

// Measurer reports the rendered width of text in points.
type Measurer interface {
	StringWidth(text string, style Style) float64
}

type cursorState int

const (
	stateDrawing cursorState = iota
	statePageBreak
)

// Plan lays out report onto pages of opts.Geometry. Blank lines are
// skipped, header lines take HeaderStyle, everything else BodyStyle, and
// each line is wrapped to the width left after its indent.
func Plan(report string, opts Options, m Measurer) (*Layout, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	enc := encoder{replace: opts.ReplaceUnsupported}
	g := opts.Geometry

	var (
		pages []Page
		cur   Page
	)

	// The title is wrapped like any other line; the body starts TitleOffset
	// below its last baseline.
	titleY := g.Height - g.Margin
	if opts.Title != "" {
		title, err := enc.sanitize(opts.Title)
		if err != nil {
			return nil, &RenderError{Err: err}
		}
		st := opts.TitleStyle
		for i, sub := range wrap(title, g.AvailableWidth()-st.Indent, st, m) {
			if i > 0 {
				titleY -= st.Size + opts.Leading
			}
			cur.Runs = append(cur.Runs, Run{
				Kind:  KindTitle,
				Text:  sub,
				Style: st,
				X:     g.Margin + st.Indent,
				Y:     titleY,
			})
		}
		if titleY < g.Margin {
			return nil, &InvalidGeometryError{Geometry: g, Reason: "title does not fit on the first page"}
		}
	}

	y := titleY - opts.TitleOffset
	for i, raw := range strings.Split(report, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		text, err := enc.sanitize(line)
		if err != nil {
			return nil, &RenderError{Line: i + 1, Err: err}
		}

		// Style is chosen per line, so a header never leaks into the next one.
		kind, style := KindBody, opts.BodyStyle
		if opts.isHeader(text) {
			kind, style = KindHeader, opts.HeaderStyle
		}

		for _, sub := range wrap(text, g.AvailableWidth()-style.Indent, style, m) {
			state := stateDrawing
			if y < g.Margin {
				state = statePageBreak
			}
			if state == statePageBreak {
				pages = append(pages, cur)
				cur = Page{}
				y = g.Height - g.Margin
			}
			cur.Runs = append(cur.Runs, Run{
				Kind:  kind,
				Text:  sub,
				Style: style,
				X:     g.Margin + style.Indent,
				Y:     y,
				Line:  i + 1,
			})
			y -= style.Size + opts.Leading
		}
	}
	pages = append(pages, cur)

	return &Layout{Geometry: g, Pages: pages}, nil
}

// wrap splits text on whitespace into lines no wider than width. A word
// that is wider than width on its own is broken between runes.
func wrap(text string, width float64, style Style, m Measurer) []string {
	var (
		lines []string
		cur   string
	)
	for _, word := range strings.Fields(text) {
		if m.StringWidth(word, style) > width {
			if cur != "" {
				lines = append(lines, cur)
			}
			pieces := breakWord(word, width, style, m)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			continue
		}
		if cur == "" {
			cur = word
			continue
		}
		if candidate := cur + " " + word; m.StringWidth(candidate, style) <= width {
			cur = candidate
		} else {
			lines = append(lines, cur)
			cur = word
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// breakWord always returns at least one piece, and every piece holds at
// least one rune even when that rune alone is wider than width.
func breakWord(word string, width float64, style Style, m Measurer) []string {
	var (
		pieces []string
		b      strings.Builder
	)
	for _, r := range word {
		if b.Len() > 0 && m.StringWidth(b.String()+string(r), style) > width {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	return append(pieces, b.String())
}
