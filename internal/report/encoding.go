package report

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// encoder maps text onto the Windows-1252 repertoire of the core PDF fonts.
type encoder struct {
	replace bool
}

// sanitize returns the NFC form of s with control characters turned into
// spaces. Runes outside Windows-1252 become '?' or fail the call.
func (e encoder) sanitize(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFC.String(s) {
		switch {
		case r < 0x80 && unicode.IsControl(r):
			b.WriteByte(' ')
		case r < 0x80:
			b.WriteRune(r)
		default:
			if _, ok := charmap.Windows1252.EncodeRune(r); ok {
				b.WriteRune(r)
				continue
			}
			if !e.replace {
				return "", fmt.Errorf("character %q (U+%04X) is not supported by the report fonts", r, r)
			}
			b.WriteByte('?')
		}
	}
	return b.String(), nil
}

// toWinAnsi converts sanitized text to the single-byte form fpdf draws and
// measures with its core fonts.
func toWinAnsi(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		out = append(out, c)
	}
	return string(out)
}
