// Package geo resolves addresses to coordinates and finds healthcare
// facilities around a point using OpenStreetMap services.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	DefaultUserAgent    = "HealthcareAssistant/1.0"
)

// Amenity categories understood by the place search.
const (
	CategoryHospital = "hospital"
	CategoryPharmacy = "pharmacy"
)

var (
	// ErrNotFound is returned when an address or coordinate cannot be resolved.
	ErrNotFound = errors.New("location not found")

	// ErrUnknownCategory is returned for an amenity other than hospital or pharmacy.
	ErrUnknownCategory = errors.New("unknown facility category")

	// ErrInvalidRadius is returned for a non-positive search radius.
	ErrInvalidRadius = errors.New("search radius must be positive")
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Location is a geocoded address.
type Location struct {
	Point
	Address string `json:"address"`
}

// Place is an OpenStreetMap element returned by the place search.
type Place struct {
	ID   int64             `json:"id"`
	Type string            `json:"type"`
	Name string            `json:"name,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
	Point
}

// Options configures a Client.
type Options struct {
	NominatimURL string
	OverpassURL  string
	UserAgent    string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client talks to Nominatim and Overpass.
type Client struct {
	nominatim *url.URL
	overpass  string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient fills unset options with the public OpenStreetMap endpoints.
func NewClient(opts Options) (*Client, error) {
	if opts.NominatimURL == "" {
		opts.NominatimURL = DefaultNominatimURL
	}
	if opts.OverpassURL == "" {
		opts.OverpassURL = DefaultOverpassURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	base, err := url.Parse(strings.TrimRight(opts.NominatimURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse nominatim url: %w", err)
	}
	if _, err := url.Parse(opts.OverpassURL); err != nil {
		return nil, fmt.Errorf("parse overpass url: %w", err)
	}

	return &Client{
		nominatim: base,
		overpass:  opts.OverpassURL,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		logger:    opts.Logger,
	}, nil
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Geocode returns the best match for a free-text address.
func (c *Client) Geocode(ctx context.Context, address string) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, ErrNotFound
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []nominatimResult
	if err := c.getJSON(ctx, c.nominatimURL("search", q), &results); err != nil {
		return Location{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return Location{}, ErrNotFound
	}

	p, err := parsePoint(results[0].Lat, results[0].Lon)
	if err != nil {
		return Location{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	return Location{Point: p, Address: results[0].DisplayName}, nil
}

// Reverse returns the display address for a coordinate.
func (c *Client) Reverse(ctx context.Context, p Point) (Location, error) {
	if !p.Valid() {
		return Location{}, ErrNotFound
	}

	q := url.Values{}
	q.Set("lat", formatCoord(p.Lat))
	q.Set("lon", formatCoord(p.Lon))
	q.Set("format", "json")

	var result nominatimResult
	if err := c.getJSON(ctx, c.nominatimURL("reverse", q), &result); err != nil {
		return Location{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return Location{}, ErrNotFound
	}
	return Location{Point: p, Address: result.DisplayName}, nil
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *Point            `json:"center"`
	Tags   map[string]string `json:"tags"`
}

// Nearby lists amenities of category within radiusMeters of p. Ways and
// relations are placed at their center; elements without a position are
// dropped.
func (c *Client) Nearby(ctx context.Context, p Point, category string, radiusMeters int) ([]Place, error) {
	if category != CategoryHospital && category != CategoryPharmacy {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if radiusMeters <= 0 {
		return nil, ErrInvalidRadius
	}

	q := url.Values{}
	q.Set("data", OverpassQuery(p, category, radiusMeters))

	var resp overpassResponse
	if err := c.getJSON(ctx, c.overpass+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %s: %w", category, err)
	}

	places := make([]Place, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		var at Point
		switch {
		case el.Lat != nil && el.Lon != nil:
			at = Point{Lat: *el.Lat, Lon: *el.Lon}
		case el.Center != nil:
			at = *el.Center
		default:
			continue
		}
		places = append(places, Place{
			ID:    el.ID,
			Type:  el.Type,
			Name:  el.Tags["name"],
			Tags:  el.Tags,
			Point: at,
		})
	}

	c.logger.Debug("place search complete",
		zap.String("category", category),
		zap.Int("radius_m", radiusMeters),
		zap.Int("results", len(places)),
	)
	return places, nil
}

// OverpassQuery builds the Overpass QL query for amenities around p.
func OverpassQuery(p Point, category string, radiusMeters int) string {
	lat, lon := formatCoord(p.Lat), formatCoord(p.Lon)
	var b strings.Builder
	b.WriteString("[out:json];\n(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s[\"amenity\"=%q](around:%d,%s,%s);\n", kind, category, radiusMeters, lat, lon)
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}

func (c *Client) nominatimURL(path string, q url.Values) string {
	u := *c.nominatim
	u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
