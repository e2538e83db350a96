package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/flyttio/priskalk/internal/migrations"
	"github.com/flyttio/priskalk/internal/pricing"
	"github.com/flyttio/priskalk/internal/quotes"
	"github.com/flyttio/priskalk/internal/rates"
	"github.com/flyttio/priskalk/internal/route"
	"github.com/flyttio/priskalk/internal/seed"
)

// The seed inserts the demo company first, so it always gets id 1.
const seededCompanyID = 1

// newTestStack spins up the full router against an in-memory database and
// fake upstreams. The geocode handler is injectable so tests can break that
// upstream; routing always answers 10km and 10 minutes per leg.
func newTestStack(t *testing.T, adminSecret string, geocode http.HandlerFunc) (*httptest.Server, *sql.DB) {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := seed.Run(database); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}

	geo := httptest.NewServer(geocode)
	t.Cleanup(geo.Close)

	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"Ok","routes":[{"distance":10000,"duration":600}]}`)
	}))
	t.Cleanup(osrm.Close)

	srv := &server{
		db:         database,
		rateStore:  rates.NewStore(database),
		quoteStore: quotes.NewStore(database),
		resolver: route.NewResolver(route.Config{
			NominatimBaseURL: geo.URL,
			OSRMBaseURL:      osrm.URL,
			Depot:            route.Point{Lat: 55, Lon: 12},
		}),
		auth: newAuthService(adminSecret),
	}

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, database
}

func newTestServer(t *testing.T, adminSecret string) *httptest.Server {
	t.Helper()

	ts, _ := newTestStack(t, adminSecret, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lat":"55.1","lon":"12.1","display_name":"match"}]`)
	})
	return ts
}

// geocoderDown answers every lookup with zero matches, so the resolver fails
// with address-not-found after exhausting its retries.
func geocoderDown(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `[]`)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", raw, err)
	}
}

func TestEstimateEndpointPricesSeededCompany(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/estimate", map[string]any{
		"companyId": seededCompanyID,
		"request": map[string]any{
			"volumeM3":    25,
			"kmRoundtrip": 45,
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var breakdown pricing.PriceBreakdown
	decodeBody(t, resp, &breakdown)

	if breakdown.Crew != 2 {
		t.Fatalf("crew = %d, want 2", breakdown.Crew)
	}
	if breakdown.Time.LaborHours != 5.0 {
		t.Fatalf("laborHours = %v, want 5.0", breakdown.Time.LaborHours)
	}
	if breakdown.Prices.LaborPrice != 3250 {
		t.Fatalf("laborPrice = %v, want 3250", breakdown.Prices.LaborPrice)
	}
	if breakdown.Prices.TransportPrice != 270 {
		t.Fatalf("transportPrice = %v, want 270", breakdown.Prices.TransportPrice)
	}
	// Emballage (10% of labor) applies by default, Forsikring is required.
	if len(breakdown.Fees) != 2 {
		t.Fatalf("fees = %+v, want Emballage and Forsikring", breakdown.Fees)
	}
	if breakdown.Prices.Subtotal != 3995 || breakdown.Prices.VATAmount != 999 || breakdown.Prices.TotalPrice != 4994 {
		t.Fatalf("unexpected totals: %+v", breakdown.Prices)
	}
}

func TestEstimateEndpointUnknownCompany(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/estimate", map[string]any{
		"companyId": 999,
		"request":   map[string]any{"volumeM3": 25},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestEstimateEndpointRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/estimate", "application/json", bytes.NewReader([]byte(`{`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDistanceEndpointResolvesRoundTrip(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/distance", map[string]any{
		"from": "Nørregade 1, København",
		"to":   "Søndergade 9, Aarhus",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result route.RouteResult
	decodeBody(t, resp, &result)

	if result.TotalKm != 30.0 {
		t.Fatalf("total = %v, want 30.0", result.TotalKm)
	}
	if result.Minutes != 30 {
		t.Fatalf("minutes = %v, want 30", result.Minutes)
	}
}

func TestDistanceEndpointRequiresBothAddresses(t *testing.T) {
	ts := newTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/distance", map[string]any{"from": "Nørregade 1"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
