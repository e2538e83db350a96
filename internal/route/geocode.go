package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// nominatimResult is the slice element of a Nominatim search response.
// Coordinates arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// geocodeOnce performs a single geocoding attempt: free text in, first-ranked
// coordinate out. Zero results map to ErrAddressNotFound.
func (r *Resolver) geocodeOnce(ctx context.Context, address string) (Point, error) {
	u, err := url.Parse(r.nominatimBaseURL + "/search")
	if err != nil {
		return Point{}, fmt.Errorf("bad nominatim base url: %w", err)
	}

	q := u.Query()
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)
	if r.countryBias != "" {
		q.Set("countrycodes", r.countryBias)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("nominatim status: %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return Point{}, fmt.Errorf("%q: %w", address, ErrAddressNotFound)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse nominatim lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse nominatim lon: %w", err)
	}

	return Point{Lat: lat, Lon: lon}, nil
}
