package report

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LayoutFile is the YAML form of the adjustable parts of Options.
//
//	title: Healthcare Report
//	page: a4
//	margin: 40
//	markers: ["Conditions:", "Advice:", "Warnings:"]
//	replace_unsupported: true
type LayoutFile struct {
	Title              *string  `yaml:"title"`
	Page               string   `yaml:"page"`
	Width              float64  `yaml:"width"`
	Height             float64  `yaml:"height"`
	Margin             *float64 `yaml:"margin"`
	Markers            []string `yaml:"markers"`
	ReplaceUnsupported *bool    `yaml:"replace_unsupported"`
}

// pageSizes are named page sizes in points.
var pageSizes = map[string]Geometry{
	"letter": {Width: LetterWidth, Height: LetterHeight},
	"legal":  {Width: 612, Height: 1008},
	"a4":     {Width: 595.28, Height: 841.89},
	"a5":     {Width: 419.53, Height: 595.28},
}

// LoadOptions reads a layout file and applies it over DefaultOptions.
// A missing file yields ErrConfigNotFound.
func LoadOptions(path string) (Options, error) {
	lf, err := ReadLayoutFile(path)
	if err != nil {
		return Options{}, err
	}
	return lf.Apply(DefaultOptions())
}

// ReadLayoutFile parses a layout file without applying it, so callers can
// overlay it on their own base options.
func ReadLayoutFile(path string) (LayoutFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied layout path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LayoutFile{}, ErrConfigNotFound
		}
		return LayoutFile{}, fmt.Errorf("read layout file: %w", err)
	}
	return parseLayoutFile(data)
}

// ParseOptions applies YAML layout settings over DefaultOptions.
func ParseOptions(data []byte) (Options, error) {
	lf, err := parseLayoutFile(data)
	if err != nil {
		return Options{}, err
	}
	return lf.Apply(DefaultOptions())
}

func parseLayoutFile(data []byte) (LayoutFile, error) {
	var lf LayoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return LayoutFile{}, fmt.Errorf("parse layout file: %w", err)
	}
	return lf, nil
}

// Apply overlays the settings present in the file onto opts.
func (lf LayoutFile) Apply(opts Options) (Options, error) {
	if lf.Page != "" {
		size, ok := pageSizes[strings.ToLower(lf.Page)]
		if !ok {
			return Options{}, fmt.Errorf("unknown page size %q", lf.Page)
		}
		opts.Geometry.Width, opts.Geometry.Height = size.Width, size.Height
	}
	if lf.Width > 0 {
		opts.Geometry.Width = lf.Width
	}
	if lf.Height > 0 {
		opts.Geometry.Height = lf.Height
	}
	if lf.Margin != nil {
		opts.Geometry.Margin = *lf.Margin
	}
	if lf.Title != nil {
		opts.Title = *lf.Title
	}
	if len(lf.Markers) > 0 {
		opts.Markers = append([]string(nil), lf.Markers...)
	}
	if lf.ReplaceUnsupported != nil {
		opts.ReplaceUnsupported = *lf.ReplaceUnsupported
	}
	if err := opts.validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
