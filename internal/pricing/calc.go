package pricing

import (
	"errors"
	"math"

	"github.com/flyttio/priskalk/internal/rates"
)

// VATRate is the flat VAT applied to every quote. A single rate covers the
// current market; regionalization would turn this into configuration.
const VATRate = 0.25

// ErrPricingUnavailable signals that the rate configuration has no component
// capable of producing a price. It means "this company has not configured
// pricing yet", not that the inputs were degenerate: zero volume or zero
// distance still price to a valid zero-line breakdown.
var ErrPricingUnavailable = errors.New("no pricing component configured")

// FeeLine is one applied surcharge with its already-rounded amount.
type FeeLine struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// TimeBreakdown reports the billed hours and the buffer that went into them.
type TimeBreakdown struct {
	LaborHours float64    `json:"laborHours"`
	Buffer     BufferSpec `json:"buffer"`
}

// PriceLines holds the monetary line items. Every line is rounded to the
// whole currency unit once; sums run over the rounded values so the total
// always matches what a customer can add up from the visible lines.
type PriceLines struct {
	LaborPrice     float64 `json:"laborPrice"`
	TransportPrice float64 `json:"transportPrice"`
	HeavyFee       float64 `json:"heavyFee"`
	Subtotal       float64 `json:"subtotal"`
	VATAmount      float64 `json:"vatAmount"`
	TotalPrice     float64 `json:"totalPrice"`
}

// Meta carries facts a UI needs to present the breakdown honestly.
type Meta struct {
	// TransportMode distinguishes "transport costs zero" from "transport is
	// folded into the billed hours".
	TransportMode rates.TransportMode `json:"transportMode"`
}

// PriceBreakdown is the itemized output of one pricing calculation. It is
// immutable once created: a new calculation produces a new breakdown, and
// stored breakdowns are never recomputed.
type PriceBreakdown struct {
	VolumeM3 float64       `json:"volumeM3"`
	Crew     int           `json:"crew"`
	Time     TimeBreakdown `json:"time"`
	Prices   PriceLines    `json:"prices"`
	Fees     []FeeLine     `json:"fees"`
	Meta     Meta          `json:"meta"`
}

// Calculate produces the full price breakdown for a job. It is a pure
// function over its inputs: no I/O, no clock, no randomness. It either
// returns a complete breakdown or an error; there is no partial result.
func Calculate(req QuoteRequest, cfg rates.RateConfig) (PriceBreakdown, error) {
	est, err := EstimateJob(req, cfg)
	if err != nil {
		return PriceBreakdown{}, err
	}

	hourlyRate, err := resolveHourlyRate(cfg, est.Crew)
	if err != nil {
		return PriceBreakdown{}, err
	}

	laborHours := est.LaborHours
	var transportPrice float64
	switch cfg.TransportMode {
	case rates.TransportPerKmRoundtrip:
		transportPrice = roundMoney(cfg.PricePerKm * req.KmRoundtrip)
	default:
		// Time-charged modes bill the drive time as labor and charge nothing
		// for transport as a separate line.
		laborHours += req.TransportMinutes / 60
	}

	laborPrice := roundMoney(hourlyRate * laborHours)

	var heavyFee float64
	if cfg.Heavy80.Enabled {
		heavyFee += cfg.Heavy80.FeePerItem * float64(req.Heavy80Count)
	}
	if cfg.Heavy150.Enabled {
		heavyFee += cfg.Heavy150.FeePerItem * float64(req.Heavy150Count)
	}
	heavyFee = roundMoney(heavyFee)

	fees := make([]FeeLine, 0, len(cfg.Fees))
	var feeTotal float64
	for _, rule := range cfg.Fees {
		if !rule.Enabled {
			continue
		}
		selected, chosen := req.SelectedFees[rule.Name]
		if !chosen {
			selected = rule.DefaultSelected || rule.Required || rule.AutoApply
		}
		if !selected && !rule.Required {
			continue
		}

		var amount float64
		if rule.Type == rates.FeePercent {
			amount = roundMoney(laborPrice * rule.Value / 100)
		} else {
			amount = roundMoney(rule.Value)
		}
		fees = append(fees, FeeLine{Name: rule.Name, Amount: amount})
		feeTotal += amount
	}

	subtotal := laborPrice + transportPrice + heavyFee + feeTotal
	vat := roundMoney(subtotal * VATRate)

	return PriceBreakdown{
		VolumeM3: req.VolumeM3,
		Crew:     est.Crew,
		Time: TimeBreakdown{
			LaborHours: laborHours,
			Buffer:     est.Buffer,
		},
		Prices: PriceLines{
			LaborPrice:     laborPrice,
			TransportPrice: transportPrice,
			HeavyFee:       heavyFee,
			Subtotal:       subtotal,
			VATAmount:      vat,
			TotalPrice:     subtotal + vat,
		},
		Fees: fees,
		Meta: Meta{TransportMode: cfg.TransportMode},
	}, nil
}

// resolveHourlyRate picks the configured total rate or derives it from the
// per-employee rate and the crew. A config with neither rate can still price
// transport by distance; anything else cannot price at all.
func resolveHourlyRate(cfg rates.RateConfig, crew int) (float64, error) {
	if cfg.HourlyRateTotal != nil && *cfg.HourlyRateTotal > 0 {
		return *cfg.HourlyRateTotal, nil
	}
	if cfg.HourlyRatePerEmployee != nil && *cfg.HourlyRatePerEmployee > 0 {
		return *cfg.HourlyRatePerEmployee * float64(crew), nil
	}
	if cfg.TransportMode == rates.TransportPerKmRoundtrip && cfg.PricePerKm > 0 {
		return 0, nil
	}
	return 0, ErrPricingUnavailable
}

// roundMoney rounds to the nearest whole currency unit. It is applied exactly
// once per line item; sums are never re-rounded.
func roundMoney(v float64) float64 {
	return math.Round(v)
}
