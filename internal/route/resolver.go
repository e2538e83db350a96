package route

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	defaultOSRMBaseURL      = "https://router.project-osrm.org"
	defaultUserAgent        = "priskalk/1.0"
)

// Legs holds the three segments of the round trip, in kilometers rounded to
// one decimal.
type Legs struct {
	DepotToPickup   float64 `json:"depotToPickup"`
	PickupToDropoff float64 `json:"pickupToDropoff"`
	DropoffToDepot  float64 `json:"dropoffToDepot"`
}

// RouteResult is the resolved round trip for a job. Total sums the rounded
// legs so it always matches what the legs display.
type RouteResult struct {
	TotalKm float64 `json:"total"`
	Minutes float64 `json:"minutes"`
	Legs    Legs    `json:"legs"`
}

// Config wires a Resolver to its upstreams and its depot.
type Config struct {
	NominatimBaseURL string
	OSRMBaseURL      string
	CountryBias      string
	Depot            Point
	Client           *http.Client
}

// Resolver turns two free-text addresses into the three-leg round-trip
// distance via external geocoding and routing. Both upstreams are unreliable
// and rate-limited, so every call site carries its own retry policy and
// per-attempt timeout.
type Resolver struct {
	client           *http.Client
	nominatimBaseURL string
	osrmBaseURL      string
	countryBias      string
	userAgent        string
	depot            Point

	geocodePolicy attemptPolicy
	routePolicy   attemptPolicy
}

func NewResolver(cfg Config) *Resolver {
	r := &Resolver{
		client:           cfg.Client,
		nominatimBaseURL: cfg.NominatimBaseURL,
		osrmBaseURL:      cfg.OSRMBaseURL,
		countryBias:      cfg.CountryBias,
		userAgent:        defaultUserAgent,
		depot:            cfg.Depot,
		geocodePolicy: attemptPolicy{
			retries: 3,
			base:    500 * time.Millisecond,
			step:    800 * time.Millisecond,
			timeout: 10 * time.Second,
		},
		routePolicy: attemptPolicy{
			retries: 2,
			base:    time.Second,
			step:    500 * time.Millisecond,
			timeout: 10 * time.Second,
		},
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.nominatimBaseURL == "" {
		r.nominatimBaseURL = defaultNominatimBaseURL
	}
	if r.osrmBaseURL == "" {
		r.osrmBaseURL = defaultOSRMBaseURL
	}
	return r
}

// Resolve geocodes both addresses in parallel, then routes the three legs
// depot→pickup→dropoff→depot in parallel. Any leg failing fails the whole
// result; callers must fall back to distance-independent pricing, never to a
// silent zero distance.
func (r *Resolver) Resolve(ctx context.Context, fromAddress, toAddress string) (*RouteResult, error) {
	var pickup, dropoff Point

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.Geocode(gctx, fromAddress)
		if err != nil {
			return fmt.Errorf("from address: %w", err)
		}
		pickup = p
		return nil
	})
	g.Go(func() error {
		p, err := r.Geocode(gctx, toAddress)
		if err != nil {
			return fmt.Errorf("to address: %w", err)
		}
		dropoff = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var legs [3]legResult
	pairs := [3][2]Point{
		{r.depot, pickup},
		{pickup, dropoff},
		{dropoff, r.depot},
	}

	g, gctx = errgroup.WithContext(ctx)
	for i := range pairs {
		g.Go(func() error {
			leg, err := r.routeLeg(gctx, pairs[i][0], pairs[i][1])
			if err != nil {
				return err
			}
			legs[i] = leg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &RouteResult{
		Legs: Legs{
			DepotToPickup:   roundKm(legs[0].meters / 1000),
			PickupToDropoff: roundKm(legs[1].meters / 1000),
			DropoffToDepot:  roundKm(legs[2].meters / 1000),
		},
		Minutes: math.Round((legs[0].seconds + legs[1].seconds + legs[2].seconds) / 60),
	}
	result.TotalKm = roundKm(result.Legs.DepotToPickup + result.Legs.PickupToDropoff + result.Legs.DropoffToDepot)

	return result, nil
}

// Geocode resolves one address with retries. Exhausted timeouts surface as
// ErrGeocodeTimeout, an empty final result as ErrAddressNotFound.
func (r *Resolver) Geocode(ctx context.Context, address string) (Point, error) {
	var point Point
	err := r.geocodePolicy.run(ctx, func(ctx context.Context) error {
		p, err := r.geocodeOnce(ctx, address)
		if err != nil {
			return err
		}
		point = p
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Point{}, fmt.Errorf("geocode %q: %w", address, ErrGeocodeTimeout)
		}
		return Point{}, fmt.Errorf("geocode: %w", err)
	}
	return point, nil
}

func (r *Resolver) routeLeg(ctx context.Context, from, to Point) (legResult, error) {
	var leg legResult
	err := r.routePolicy.run(ctx, func(ctx context.Context) error {
		l, err := r.routeLegOnce(ctx, from, to)
		if err != nil {
			return err
		}
		leg = l
		return nil
	})
	if err != nil {
		return legResult{}, fmt.Errorf("route leg: %w", err)
	}
	return leg, nil
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
