package report

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

// monoMeasurer gives every rune half the font size in width.
type monoMeasurer struct{}

func (monoMeasurer) StringWidth(text string, style Style) float64 {
	return float64(utf8.RuneCountInString(text)) * style.Size * 0.5
}

func smallPageOptions() Options {
	opts := DefaultOptions()
	opts.Geometry = Geometry{Width: 300, Height: 200, Margin: 20}
	return opts
}

func contentRuns(l *Layout) []Run {
	var out []Run
	for _, r := range l.Runs() {
		if r.Kind != KindTitle {
			out = append(out, r)
		}
	}
	return out
}

func TestPlan_ConditionsAndAdvice(t *testing.T) {
	opts := DefaultOptions()
	layout, err := Plan("Conditions:\n- flu\nAdvice:\n1. rest", opts, NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layout.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(layout.Pages))
	}

	runs := layout.Pages[0].Runs
	want := []struct {
		kind Kind
		text string
	}{
		{KindTitle, "Healthcare Report"},
		{KindHeader, "Conditions:"},
		{KindBody, "- flu"},
		{KindHeader, "Advice:"},
		{KindBody, "1. rest"},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i, w := range want {
		if runs[i].Kind != w.kind || runs[i].Text != w.text {
			t.Fatalf("run %d: expected %s %q, got %s %q", i, w.kind, w.text, runs[i].Kind, runs[i].Text)
		}
	}

	if runs[1].Style != opts.HeaderStyle || runs[1].X != opts.Geometry.Margin {
		t.Fatalf("header drawn with wrong style or position: %+v", runs[1])
	}
	if runs[2].Style != opts.BodyStyle || runs[2].X != opts.Geometry.Margin+20 {
		t.Fatalf("body line not indented in body style: %+v", runs[2])
	}
	if runs[1].Y != opts.Geometry.Height-opts.Geometry.Margin-opts.TitleOffset {
		t.Fatalf("first line should start below the title, got y=%v", runs[1].Y)
	}
	if got, want := runs[1].Y-runs[2].Y, opts.HeaderStyle.Size+opts.Leading; got != want {
		t.Fatalf("expected header to advance cursor by %v, got %v", want, got)
	}
}

func TestPlan_EmptyReport(t *testing.T) {
	for _, report := range []string{"", "\n\n", "   \n\t\n"} {
		layout, err := Plan(report, DefaultOptions(), NewFontMeasurer())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(layout.Pages) != 1 {
			t.Fatalf("expected a single page for %q, got %d", report, len(layout.Pages))
		}
		runs := layout.Pages[0].Runs
		if len(runs) != 1 || runs[0].Kind != KindTitle {
			t.Fatalf("expected only the title for %q, got %+v", report, runs)
		}
	}
}

func TestPlan_PaginatesInOrder(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("entry %03d %s", i, strings.Repeat("lorem ipsum ", 8)))
	}
	opts := smallPageOptions()

	layout, err := Plan(strings.Join(lines, "\n"), opts, monoMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layout.Pages) < 2 {
		t.Fatalf("expected multiple pages, got %d", len(layout.Pages))
	}

	rebuilt := make(map[int][]string)
	prev := 0
	for _, r := range contentRuns(layout) {
		if r.Line < prev {
			t.Fatalf("line %d drawn after line %d", r.Line, prev)
		}
		prev = r.Line
		rebuilt[r.Line] = append(rebuilt[r.Line], r.Text)
	}
	if len(rebuilt) != len(lines) {
		t.Fatalf("expected %d source lines rendered, got %d", len(lines), len(rebuilt))
	}
	for i, line := range lines {
		got := strings.Join(rebuilt[i+1], " ")
		if want := strings.Join(strings.Fields(line), " "); got != want {
			t.Fatalf("line %d: expected %q, got %q", i+1, want, got)
		}
	}
}

func TestPlan_CursorStaysAboveBottomMargin(t *testing.T) {
	opts := smallPageOptions()
	report := strings.Repeat("Advice:\n"+strings.Repeat("step ", 30)+"\n", 40)

	layout, err := Plan(report, opts, monoMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for p, page := range layout.Pages {
		for _, r := range page.Runs {
			if r.Y < opts.Geometry.Margin {
				t.Fatalf("page %d: run %q drawn below the margin at y=%v", p+1, r.Text, r.Y)
			}
			if r.Y > opts.Geometry.Height-opts.Geometry.Margin {
				t.Fatalf("page %d: run %q drawn above the top margin at y=%v", p+1, r.Text, r.Y)
			}
		}
		if p > 0 && page.Runs[0].Y != opts.Geometry.Height-opts.Geometry.Margin {
			t.Fatalf("page %d should start at the top margin, got y=%v", p+1, page.Runs[0].Y)
		}
	}
}

func TestPlan_WrappedLineCountIsMonotonic(t *testing.T) {
	source := []string{
		"Conditions:",
		"- a rather long condition name that will certainly need more than one line on a narrow page",
		"- cold",
		"",
		"Advice:",
		"1. drink plenty of fluids and rest for several days until symptoms improve",
		"2. see a doctor",
	}
	opts := smallPageOptions()

	prev := 0
	for n := 0; n <= len(source)*3; n++ {
		lines := make([]string, n)
		for i := range lines {
			lines[i] = source[i%len(source)]
		}
		layout, err := Plan(strings.Join(lines, "\n"), opts, monoMeasurer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count := len(contentRuns(layout))
		if count < prev {
			t.Fatalf("%d input lines gave %d wrapped lines, fewer than %d", n, count, prev)
		}
		prev = count
	}
}

func TestPlan_WrapFitsAvailableWidth(t *testing.T) {
	opts := DefaultOptions()
	m := NewFontMeasurer()
	report := "Conditions:\n" + strings.Repeat("influenza ", 40) + "\nAdvice:\n" + strings.Repeat("hydrate ", 60)

	layout, err := Plan(report, opts, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range contentRuns(layout) {
		limit := opts.Geometry.AvailableWidth() - r.Style.Indent
		if w := m.StringWidth(r.Text, r.Style); w > limit {
			t.Fatalf("run %q is %.2fpt wide, limit %.2fpt", r.Text, w, limit)
		}
	}
}

func TestPlan_BreaksOverlongWord(t *testing.T) {
	opts := smallPageOptions()
	word := strings.Repeat("x", 100)

	layout, err := Plan("see "+word+" now", opts, monoMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := contentRuns(layout)
	if len(runs) < 3 {
		t.Fatalf("expected the long word to be split, got %+v", runs)
	}
	joined := ""
	for _, r := range runs {
		joined += r.Text
	}
	if joined != "see"+word+" now" {
		t.Fatalf("content lost while breaking word: %q", joined)
	}
}

func TestPlan_HeaderStyleDoesNotLeak(t *testing.T) {
	opts := DefaultOptions()
	report := "Conditions:\n- flu\n- cold\nAdvice:\nrest\nConditions: more\nnote"

	layout, err := Plan(report, opts, NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range contentRuns(layout) {
		isHeader := strings.HasPrefix(r.Text, "Conditions:") || strings.HasPrefix(r.Text, "Advice:")
		switch {
		case isHeader && (r.Kind != KindHeader || r.Style != opts.HeaderStyle):
			t.Fatalf("header %q drawn as %s", r.Text, r.Kind)
		case !isHeader && (r.Kind != KindBody || r.Style != opts.BodyStyle):
			t.Fatalf("body line %q drawn as %s", r.Text, r.Kind)
		}
	}
}

func TestPlan_CustomMarkers(t *testing.T) {
	report := "Warnings:\nchest pain"

	layout, err := Plan(report, DefaultOptions(), NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs := contentRuns(layout); runs[0].Kind != KindBody {
		t.Fatalf("unknown marker should fall through to body, got %s", runs[0].Kind)
	}

	opts := DefaultOptions()
	opts.Markers = append(opts.Markers, "Warnings:")
	layout, err = Plan(report, opts, NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs := contentRuns(layout); runs[0].Kind != KindHeader {
		t.Fatalf("configured marker should be a header, got %s", runs[0].Kind)
	}
}

func TestPlan_InvalidGeometry(t *testing.T) {
	setGeometry := func(g Geometry) func(*Options) {
		return func(o *Options) { o.Geometry = g }
	}
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "margins consume width", mutate: setGeometry(Geometry{Width: 100, Height: 800, Margin: 50})},
		{name: "margins consume height", mutate: setGeometry(Geometry{Width: 600, Height: 80, Margin: 40})},
		{name: "negative margin", mutate: setGeometry(Geometry{Width: 600, Height: 800, Margin: -1})},
		{name: "zero size", mutate: setGeometry(Geometry{})},
		{name: "not finite", mutate: setGeometry(Geometry{Width: math.Inf(1), Height: 800, Margin: 10})},
		{name: "indent consumes width", mutate: setGeometry(Geometry{Width: 110, Height: 800, Margin: 45})},
		{name: "NaN body indent", mutate: func(o *Options) { o.BodyStyle.Indent = math.NaN() }},
		{name: "NaN header size", mutate: func(o *Options) { o.HeaderStyle.Size = math.NaN() }},
		{name: "infinite title size", mutate: func(o *Options) { o.TitleStyle.Size = math.Inf(1) }},
		{name: "negative title indent", mutate: func(o *Options) { o.TitleStyle.Indent = -5 }},
		{name: "NaN leading", mutate: func(o *Options) { o.Leading = math.NaN() }},
		{name: "leading moves cursor up", mutate: func(o *Options) { o.Leading = -20 }},
		{name: "negative title offset", mutate: func(o *Options) { o.TitleOffset = -10 }},
		{name: "NaN title offset", mutate: func(o *Options) { o.TitleOffset = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := Plan("Advice:\nrest", opts, monoMeasurer{})

			var geomErr *InvalidGeometryError
			if !errors.As(err, &geomErr) {
				t.Fatalf("expected InvalidGeometryError, got %v", err)
			}
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("expected errors.Is ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestPlan_UnsupportedCharacters(t *testing.T) {
	report := "Advice:\ntake care \U0001F637"

	_, err := Plan(report, DefaultOptions(), monoMeasurer{})
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if renderErr.Line != 2 {
		t.Fatalf("expected failure on line 2, got %d", renderErr.Line)
	}

	opts := DefaultOptions()
	opts.ReplaceUnsupported = true
	layout, err := Plan(report, opts, monoMeasurer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := contentRuns(layout)
	if got := runs[len(runs)-1].Text; got != "take care ?" {
		t.Fatalf("expected substituted text, got %q", got)
	}
}

func TestPlan_KeepsWindows1252Punctuation(t *testing.T) {
	layout, err := Plan("Advice:\n• rest – drink fluids “daily”", DefaultOptions(), NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := contentRuns(layout)
	if got := runs[1].Text; got != "• rest – drink fluids “daily”" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRender_RejectsBadStyleValues(t *testing.T) {
	opts := DefaultOptions()
	opts.BodyStyle.Indent = math.NaN()
	out, err := Render("- flu", opts)
	if !errors.Is(err, ErrInvalidGeometry) || out != nil {
		t.Fatalf("expected invalid geometry and no output, got %v and %d bytes", err, len(out))
	}
}

func TestPlan_CursorAlwaysDescends(t *testing.T) {
	opts := DefaultOptions()
	opts.Leading = -4
	layout, err := Plan("Conditions:\n- flu\n- cold\nAdvice:\n1. rest", opts, NewFontMeasurer())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := layout.Runs()
	for i := 1; i < len(runs); i++ {
		if runs[i].Y >= runs[i-1].Y {
			t.Fatalf("run %q at y=%v is not below %q at y=%v", runs[i].Text, runs[i].Y, runs[i-1].Text, runs[i-1].Y)
		}
	}
}

func TestPlan_WrapsLongTitle(t *testing.T) {
	opts := DefaultOptions()
	opts.Title = strings.Repeat("Symptom Report For A Very Long Visit ", 8)
	m := NewFontMeasurer()

	layout, err := Plan("Advice:\nrest", opts, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var title []Run
	for _, r := range layout.Pages[0].Runs {
		if r.Kind == KindTitle {
			title = append(title, r)
		}
	}
	if len(title) < 2 {
		t.Fatalf("expected the title to wrap, got %d runs", len(title))
	}
	var parts []string
	for _, r := range title {
		if w := m.StringWidth(r.Text, r.Style); w > opts.Geometry.AvailableWidth() {
			t.Fatalf("title run %q is %.2fpt wide, limit %.2fpt", r.Text, w, opts.Geometry.AvailableWidth())
		}
		parts = append(parts, r.Text)
	}
	if got, want := strings.Join(parts, " "), strings.Join(strings.Fields(opts.Title), " "); got != want {
		t.Fatalf("title text changed while wrapping: %q", got)
	}

	first := contentRuns(layout)[0]
	last := title[len(title)-1]
	if first.Y != last.Y-opts.TitleOffset {
		t.Fatalf("body should start %v below the last title line, got y=%v vs %v", opts.TitleOffset, first.Y, last.Y)
	}
}

func TestPlan_TitleTallerThanPage(t *testing.T) {
	opts := smallPageOptions()
	opts.Title = strings.Repeat("Title ", 200)
	if _, err := Plan("", opts, monoMeasurer{}); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected invalid geometry, got %v", err)
	}
}
