// Package report turns the plain-text answer of the symptom assistant into
// a paginated PDF.
//
// Rendering happens in two steps. Plan walks the report line by line,
// classifies section headers, wraps each line to the page width using
// font metrics and breaks pages when the cursor drops below the bottom
// margin. Write then serializes the resulting Layout with fpdf. Render
// runs both.
//
// Output is deterministic: the same text and Options always produce the
// same bytes.
package report
