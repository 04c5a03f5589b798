package geo

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0088

// Distance returns the great-circle distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	from := s2.LatLngFromDegrees(a.Lat, a.Lon)
	to := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return from.Distance(to).Radians() * earthRadiusKm
}

// NavigationURL returns a Google Maps driving-directions link.
func NavigationURL(from, to Point) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", formatCoord(from.Lat)+","+formatCoord(from.Lon))
	q.Set("destination", formatCoord(to.Lat)+","+formatCoord(to.Lon))
	q.Set("travelmode", "driving")
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// Facility is a named place with its distance from the user.
type Facility struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	DistanceKm    float64 `json:"distanceKm"`
	NavigationURL string  `json:"navigationUrl"`
}

// Nearest keeps named places, orders them by distance from origin and
// returns at most limit of them. limit <= 0 keeps all.
func Nearest(origin Point, category string, places []Place, limit int) []Facility {
	out := make([]Facility, 0, len(places))
	for _, p := range places {
		if p.Name == "" {
			continue
		}
		out = append(out, Facility{
			Name:          p.Name,
			Category:      category,
			Lat:           p.Lat,
			Lon:           p.Lon,
			DistanceKm:    Distance(origin, p.Point),
			NavigationURL: NavigationURL(origin, p.Point),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Marker is a map pin for the frontend.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
	Color string  `json:"color"`
	Icon  string  `json:"icon,omitempty"`
}

// Markers pins the user in red, hospitals in blue and pharmacies in green.
// Unnamed places are labeled with their category.
func Markers(user Point, hospitals, pharmacies []Place) []Marker {
	markers := make([]Marker, 0, 1+len(hospitals)+len(pharmacies))
	markers = append(markers, Marker{Lat: user.Lat, Lon: user.Lon, Popup: "Your Location", Color: "red"})
	for _, h := range hospitals {
		markers = append(markers, Marker{Lat: h.Lat, Lon: h.Lon, Popup: nameOr(h, "Hospital"), Color: "blue", Icon: "plus-sign"})
	}
	for _, p := range pharmacies {
		markers = append(markers, Marker{Lat: p.Lat, Lon: p.Lon, Popup: nameOr(p, "Pharmacy"), Color: "green", Icon: "medkit"})
	}
	return markers
}

func nameOr(p Place, fallback string) string {
	if p.Name != "" {
		return p.Name
	}
	return fallback
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePoint(lat, lon string) (Point, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude %q: %w", lon, err)
	}
	p := Point{Lat: la, Lon: lo}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinate out of range: %v,%v", la, lo)
	}
	return p, nil
}
