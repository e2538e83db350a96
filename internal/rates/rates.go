package rates

import (
	"fmt"
	"sort"
)

// PricingMode selects which cost components a company prices with.
type PricingMode string

const (
	PricingModeTime   PricingMode = "time"
	PricingModeVolume PricingMode = "volume"
	PricingModeBoth   PricingMode = "both"
)

// TransportMode selects how transport between depot and job sites is billed.
type TransportMode string

const (
	TransportChargeFromDeparture TransportMode = "charge_time_from_departure"
	TransportChargeFromArrival   TransportMode = "charge_time_from_arrival"
	TransportPerKmRoundtrip      TransportMode = "price_per_km_roundtrip"
)

// FeeType distinguishes flat surcharges from percent-of-labor surcharges.
type FeeType string

const (
	FeeFixed   FeeType = "fixed"
	FeePercent FeeType = "percent"
)

// FeeRule is a named, independently toggleable surcharge configured per company.
type FeeRule struct {
	Name            string  `json:"feeName"`
	Type            FeeType `json:"feeType"`
	Value           float64 `json:"feeValue"`
	Enabled         bool    `json:"enabled"`
	Required        bool    `json:"required"`
	DefaultSelected bool    `json:"defaultSelected"`
	AutoApply       bool    `json:"autoApply"`
}

// HeavyItemRule holds the handling surcharges for one weight class.
type HeavyItemRule struct {
	Enabled             bool    `json:"enabled"`
	FeePerItem          float64 `json:"feePerItem"`
	ExtraMinutesPerItem float64 `json:"extraMinutesPerItem"`
}

// HeavyItemCrewRule extends HeavyItemRule with a minimum crew requirement.
// Only the >150kg class carries it.
type HeavyItemCrewRule struct {
	HeavyItemRule
	MinEmployeesOverride int  `json:"minEmployeesOverride"`
	EnforceMinEmployees  bool `json:"enforceMinEmployees"`
}

// RateConfig is the canonical, validated pricing configuration of a company.
// It is read-only during a pricing calculation; mutation happens only through
// company settings.
type RateConfig struct {
	PricingMode PricingMode `json:"pricingMode"`

	VehicleCapacityM3 float64 `json:"vehicleCapacityM3"`
	StandardVolumeM3  float64 `json:"standardVolumeM3"`
	BaseMinEmployees  int     `json:"baseMinEmployees"`
	MaxM3PerEmployee  float64 `json:"maxM3PerEmployee"`

	// CrewFactors maps crew size to a time multiplier. Larger crews do not
	// cut load time linearly, so the factor grows with the crew.
	CrewFactors map[int]float64 `json:"crewFactorTable"`

	BaseLoadMinutes   float64 `json:"baseLoadMinutes"`
	BaseUnloadMinutes float64 `json:"baseUnloadMinutes"`

	MinutesPerFloorPerM3           float64 `json:"minutesPerFloorPerM3"`
	ElevatorMultiplier             float64 `json:"elevatorMultiplier"`
	FloorThresholdForExtraEmployee int     `json:"floorThresholdForExtraEmployee"`

	TransportMode TransportMode `json:"transportPricingMode"`
	PricePerKm    float64       `json:"pricePerKm"`

	// Exactly one of the two hourly rates may be set. When only the
	// per-employee rate is present, the total rate is derived per calculation
	// from the estimated crew.
	HourlyRateTotal       *float64 `json:"hourlyRateTotal,omitempty"`
	HourlyRatePerEmployee *float64 `json:"hourlyRatePerEmployee,omitempty"`

	// At most one of the two buffers may be set.
	BufferMinutes *float64 `json:"bufferMinutes,omitempty"`
	BufferPercent *float64 `json:"bufferPercent,omitempty"`

	Heavy80  HeavyItemRule     `json:"heavy80"`
	Heavy150 HeavyItemCrewRule `json:"heavy150"`

	Fees []FeeRule `json:"fees"`
}

// ConfigError reports a malformed or impossible rate configuration. It is
// fatal to the calculation and must be surfaced to the company admin, never
// retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rate config: %s: %s", e.Field, e.Reason)
}

func configErr(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// ApplyDefaults fills omitted fields with workable defaults. It never
// overwrites a value the company has set.
func (c *RateConfig) ApplyDefaults() {
	if c.PricingMode == "" {
		c.PricingMode = PricingModeBoth
	}
	if c.TransportMode == "" {
		c.TransportMode = TransportChargeFromDeparture
	}
	if c.BaseMinEmployees == 0 {
		c.BaseMinEmployees = 2
	}
	if c.ElevatorMultiplier == 0 {
		c.ElevatorMultiplier = 0.5
	}
	if len(c.CrewFactors) == 0 {
		c.CrewFactors = map[int]float64{2: 1.0, 3: 1.25, 4: 1.45, 5: 1.6}
	}
}

// Validate checks the configuration for contradictions the calculator cannot
// resolve. Ambiguities that used to be settled by silent fallback (both
// buffers set, both hourly rates set) are rejected here instead.
func (c *RateConfig) Validate() error {
	switch c.PricingMode {
	case PricingModeTime, PricingModeVolume, PricingModeBoth:
	default:
		return configErr("pricingMode", fmt.Sprintf("unknown mode %q", c.PricingMode))
	}
	switch c.TransportMode {
	case TransportChargeFromDeparture, TransportChargeFromArrival, TransportPerKmRoundtrip:
	default:
		return configErr("transportPricingMode", fmt.Sprintf("unknown mode %q", c.TransportMode))
	}

	if c.StandardVolumeM3 <= 0 {
		return configErr("standardVolumeM3", "must be greater than 0")
	}
	if c.MaxM3PerEmployee <= 0 {
		return configErr("maxM3PerEmployee", "must be greater than 0")
	}
	if c.VehicleCapacityM3 < 0 {
		return configErr("vehicleCapacityM3", "must not be negative")
	}
	if c.BaseMinEmployees < 1 {
		return configErr("baseMinEmployees", "must be at least 1")
	}
	if len(c.CrewFactors) == 0 {
		return configErr("crewFactorTable", "must contain at least one crew size")
	}
	for crew, factor := range c.CrewFactors {
		if crew < 1 {
			return configErr("crewFactorTable", fmt.Sprintf("invalid crew size %d", crew))
		}
		if factor <= 0 {
			return configErr("crewFactorTable", fmt.Sprintf("factor for crew %d must be greater than 0", crew))
		}
	}
	if c.BaseLoadMinutes < 0 || c.BaseUnloadMinutes < 0 {
		return configErr("baseLoadMinutes", "load/unload minutes must not be negative")
	}
	if c.MinutesPerFloorPerM3 < 0 {
		return configErr("minutesPerFloorPerM3", "must not be negative")
	}
	if c.ElevatorMultiplier < 0 || c.ElevatorMultiplier > 1 {
		return configErr("elevatorMultiplier", "must be between 0 and 1")
	}
	if c.PricePerKm < 0 {
		return configErr("pricePerKm", "must not be negative")
	}

	if c.HourlyRateTotal != nil && c.HourlyRatePerEmployee != nil {
		return configErr("hourlyRateTotal", "hourlyRateTotal and hourlyRatePerEmployee are mutually exclusive")
	}
	if c.HourlyRateTotal != nil && *c.HourlyRateTotal < 0 {
		return configErr("hourlyRateTotal", "must not be negative")
	}
	if c.HourlyRatePerEmployee != nil && *c.HourlyRatePerEmployee < 0 {
		return configErr("hourlyRatePerEmployee", "must not be negative")
	}

	if c.BufferMinutes != nil && c.BufferPercent != nil {
		return configErr("bufferMinutes", "bufferMinutes and bufferPercent cannot both be set")
	}
	if c.BufferMinutes != nil && *c.BufferMinutes < 0 {
		return configErr("bufferMinutes", "must not be negative")
	}
	if c.BufferPercent != nil && (*c.BufferPercent < 0 || *c.BufferPercent > 100) {
		return configErr("bufferPercent", "must be between 0 and 100")
	}

	if c.Heavy150.EnforceMinEmployees && c.Heavy150.MinEmployeesOverride < 1 {
		return configErr("heavy150.minEmployeesOverride", "must be at least 1 when enforced")
	}

	seen := make(map[string]bool, len(c.Fees))
	for _, fee := range c.Fees {
		if fee.Name == "" {
			return configErr("fees", "fee name must not be empty")
		}
		if seen[fee.Name] {
			return configErr("fees", fmt.Sprintf("duplicate fee %q", fee.Name))
		}
		seen[fee.Name] = true
		switch fee.Type {
		case FeeFixed:
			if fee.Value < 0 {
				return configErr("fees", fmt.Sprintf("fee %q: fixed value must not be negative", fee.Name))
			}
		case FeePercent:
			if fee.Value < 0 || fee.Value > 100 {
				return configErr("fees", fmt.Sprintf("fee %q: percent must be between 0 and 100", fee.Name))
			}
		default:
			return configErr("fees", fmt.Sprintf("fee %q: unknown type %q", fee.Name, fee.Type))
		}
	}

	return nil
}

// MaxCrewSize returns the largest crew size present in the factor table.
// Crew estimates are clamped to it; the table is never extrapolated.
func (c *RateConfig) MaxCrewSize() int {
	max := 0
	for crew := range c.CrewFactors {
		if crew > max {
			max = crew
		}
	}
	return max
}

// CrewFactor returns the time multiplier for the given crew size. When the
// exact size is not configured, the factor of the largest configured size not
// exceeding it is used; below the smallest configured size the smallest
// entry applies.
func (c *RateConfig) CrewFactor(crew int) float64 {
	if factor, ok := c.CrewFactors[crew]; ok {
		return factor
	}

	sizes := make([]int, 0, len(c.CrewFactors))
	for size := range c.CrewFactors {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)

	factor := c.CrewFactors[sizes[0]]
	for _, size := range sizes {
		if size > crew {
			break
		}
		factor = c.CrewFactors[size]
	}
	return factor
}
