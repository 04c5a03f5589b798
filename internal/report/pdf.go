package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// FontMeasurer measures text with fpdf's core font metrics.
type FontMeasurer struct {
	pdf *fpdf.Fpdf
}

// NewFontMeasurer returns a measurer working in points.
func NewFontMeasurer() *FontMeasurer {
	return &FontMeasurer{pdf: fpdf.New("P", "pt", "Letter", "")}
}

func (m *FontMeasurer) StringWidth(text string, style Style) float64 {
	m.pdf.SetFont(style.Font, style.fontStyle(), style.Size)
	return m.pdf.GetStringWidth(toWinAnsi(text))
}

// Render lays out report and returns the finished PDF. On error no bytes
// are returned.
func Render(report string, opts Options) ([]byte, error) {
	layout, err := Plan(report, opts, NewFontMeasurer())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(&buf, layout, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write draws a planned layout as a PDF document to w.
func Write(w io.Writer, layout *Layout, opts Options) error {
	g := layout.Geometry
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.Width, Ht: g.Height},
	})
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)
	pdf.SetAutoPageBreak(false, g.Margin)
	pdf.SetCatalogSort(true)

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = DefaultTimestamp
	}
	pdf.SetCreationDate(ts)
	pdf.SetModificationDate(ts)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetCreator("symptomdesk", false)

	for _, page := range layout.Pages {
		pdf.AddPage()
		for _, run := range page.Runs {
			pdf.SetFont(run.Style.Font, run.Style.fontStyle(), run.Style.Size)
			pdf.SetTextColor(run.Style.Color.R, run.Style.Color.G, run.Style.Color.B)
			// fpdf measures y from the top edge.
			pdf.Text(run.X, g.Height-run.Y, toWinAnsi(run.Text))
		}
		if pdf.Err() {
			return &RenderError{Err: fmt.Errorf("draw page %d: %w", pdf.PageNo(), pdf.Error())}
		}
	}

	if err := pdf.Output(w); err != nil {
		return &RenderError{Err: fmt.Errorf("write document: %w", err)}
	}
	return nil
}
