package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// osrmResponse is the subset of the OSRM route response the resolver needs.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// legResult is one driving leg between two waypoints.
type legResult struct {
	meters  float64
	seconds float64
}

// routeLegOnce performs a single routing attempt for an ordered coordinate
// pair. OSRM expects lon,lat order in the path.
func (r *Resolver) routeLegOnce(ctx context.Context, from, to Point) (legResult, error) {
	u, err := url.Parse(r.osrmBaseURL + "/route/v1/driving/")
	if err != nil {
		return legResult{}, fmt.Errorf("bad osrm base url: %w", err)
	}
	u.Path += fmt.Sprintf("%f,%f;%f,%f", from.Lon, from.Lat, to.Lon, to.Lat)

	q := u.Query()
	q.Set("overview", "false")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return legResult{}, fmt.Errorf("build osrm request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return legResult{}, fmt.Errorf("osrm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return legResult{}, fmt.Errorf("osrm status %s: %w", resp.Status, ErrRouteUnavailable)
	}

	var data osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return legResult{}, fmt.Errorf("decode osrm response: %w", err)
	}

	if data.Code != "" && data.Code != "Ok" {
		return legResult{}, fmt.Errorf("osrm code %s: %w", data.Code, ErrRouteUnavailable)
	}
	if len(data.Routes) == 0 {
		return legResult{}, fmt.Errorf("osrm returned no routes: %w", ErrRouteUnavailable)
	}

	return legResult{
		meters:  data.Routes[0].Distance,
		seconds: data.Routes[0].Duration,
	}, nil
}
