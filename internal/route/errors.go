package route

import "errors"

// Upstream failure classes. All three are transient from the caller's point
// of view: the resolver has already retried internally when one of these
// surfaces, and the degraded path is to price without distance.
var (
	// ErrAddressNotFound means geocoding returned zero results on the final
	// attempt.
	ErrAddressNotFound = errors.New("address not found")

	// ErrGeocodeTimeout means every geocoding attempt ran out of time.
	ErrGeocodeTimeout = errors.New("geocoding timed out")

	// ErrRouteUnavailable means the routing service reported no usable route
	// on the final attempt.
	ErrRouteUnavailable = errors.New("route unavailable")
)
