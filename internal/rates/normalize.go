package rates

// LegacyConfig is the accreted historical settings shape. Over time two
// parallel sets of transport/volume fields grew next to each other and the
// calculators resolved them with scattered fallback chains. Normalize is the
// single place where that resolution happens now; the calculation code only
// ever sees the canonical RateConfig.
type LegacyConfig struct {
	PricingMode string `json:"pricingMode"`

	VehicleCapacityM3 float64 `json:"vehicleCapacityM3"`
	StandardVolumeM3  float64 `json:"standardVolumeM3"`
	BaseMinEmployees  int     `json:"baseMinEmployees"`
	MaxM3PerEmployee  float64 `json:"maxM3PerEmployee"`

	CrewFactors map[int]float64 `json:"crewFactorTable"`

	BaseLoadMinutes   float64 `json:"baseLoadMinutes"`
	BaseUnloadMinutes float64 `json:"baseUnloadMinutes"`

	MinutesPerFloorPerM3           float64 `json:"minutesPerFloorPerM3"`
	ElevatorMultiplier             float64 `json:"elevatorMultiplier"`
	FloorThresholdForExtraEmployee int     `json:"floorThresholdForExtraEmployee"`

	// New structured transport fields.
	TransportPricingMode string  `json:"transportPricingMode"`
	PricePerKm           float64 `json:"pricePerKm"`

	// Legacy flat-rate transport fields, superseded by the structured ones
	// but still present in stored configs.
	TransportBilling string  `json:"transportBilling"`
	KmRate           float64 `json:"kmRate"`

	HourlyRateTotal       *float64 `json:"hourlyRateTotal"`
	HourlyRatePerEmployee *float64 `json:"hourlyRatePerEmployee"`

	// Legacy flat hourly rate, superseded by hourlyRateTotal.
	HourlyRate *float64 `json:"hourlyRate"`

	BufferMinutes *float64 `json:"bufferMinutes"`
	BufferPercent *float64 `json:"bufferPercent"`

	Heavy80  HeavyItemRule     `json:"heavy80"`
	Heavy150 HeavyItemCrewRule `json:"heavy150"`

	Fees []FeeRule `json:"fees"`
}

// legacy transportBilling values.
const (
	legacyBillingKm        = "km"
	legacyBillingDeparture = "departure"
	legacyBillingArrival   = "arrival"
)

// Normalize maps a stored configuration, legacy fields included, into the
// canonical schema. It runs once at load time; it does not validate.
func Normalize(legacy LegacyConfig) RateConfig {
	cfg := RateConfig{
		PricingMode:                    PricingMode(legacy.PricingMode),
		VehicleCapacityM3:              legacy.VehicleCapacityM3,
		StandardVolumeM3:               legacy.StandardVolumeM3,
		BaseMinEmployees:               legacy.BaseMinEmployees,
		MaxM3PerEmployee:               legacy.MaxM3PerEmployee,
		CrewFactors:                    legacy.CrewFactors,
		BaseLoadMinutes:                legacy.BaseLoadMinutes,
		BaseUnloadMinutes:              legacy.BaseUnloadMinutes,
		MinutesPerFloorPerM3:           legacy.MinutesPerFloorPerM3,
		ElevatorMultiplier:             legacy.ElevatorMultiplier,
		FloorThresholdForExtraEmployee: legacy.FloorThresholdForExtraEmployee,
		TransportMode:                  TransportMode(legacy.TransportPricingMode),
		PricePerKm:                     legacy.PricePerKm,
		HourlyRateTotal:                legacy.HourlyRateTotal,
		HourlyRatePerEmployee:          legacy.HourlyRatePerEmployee,
		BufferMinutes:                  legacy.BufferMinutes,
		BufferPercent:                  legacy.BufferPercent,
		Heavy80:                        legacy.Heavy80,
		Heavy150:                       legacy.Heavy150,
		Fees:                           legacy.Fees,
	}

	// Structured fields win over their legacy counterparts.
	if cfg.TransportMode == "" {
		switch legacy.TransportBilling {
		case legacyBillingKm:
			cfg.TransportMode = TransportPerKmRoundtrip
		case legacyBillingDeparture:
			cfg.TransportMode = TransportChargeFromDeparture
		case legacyBillingArrival:
			cfg.TransportMode = TransportChargeFromArrival
		}
	}
	if cfg.PricePerKm == 0 {
		cfg.PricePerKm = legacy.KmRate
	}
	if cfg.HourlyRateTotal == nil && cfg.HourlyRatePerEmployee == nil && legacy.HourlyRate != nil {
		cfg.HourlyRateTotal = legacy.HourlyRate
	}

	return cfg
}
