package report

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry matches any *InvalidGeometryError via errors.Is.
	ErrInvalidGeometry = errors.New("invalid page geometry")

	// ErrRender matches any *RenderError via errors.Is.
	ErrRender = errors.New("render failed")

	// ErrConfigNotFound is returned when a layout file does not exist.
	ErrConfigNotFound = errors.New("report layout file not found")
)

// InvalidGeometryError reports page dimensions that leave no drawable area.
type InvalidGeometryError struct {
	Geometry Geometry
	Reason   string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid page geometry %.2fx%.2f margin %.2f: %s",
		e.Geometry.Width, e.Geometry.Height, e.Geometry.Margin, e.Reason)
}

func (e *InvalidGeometryError) Is(target error) bool {
	return target == ErrInvalidGeometry
}

// RenderError reports a failure while laying out or drawing a report.
// Line is the 1-based input line, or 0 when the failure is not tied to one.
type RenderError struct {
	Line int
	Err  error
}

func (e *RenderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("render line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}
