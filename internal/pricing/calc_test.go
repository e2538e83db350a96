package pricing

import (
	"errors"
	"reflect"
	"testing"

	"github.com/flyttio/priskalk/internal/rates"
)

func TestCalculate_PerKmTransport(t *testing.T) {
	cfg := baseConfig()
	cfg.BufferMinutes = floatPtr(30)
	cfg.TransportMode = rates.TransportPerKmRoundtrip
	cfg.PricePerKm = 6

	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25, KmRoundtrip: 45}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	// 5 labor hours at 650/h, plus 45km at 6/km.
	nearlyEqual(t, "laborPrice", breakdown.Prices.LaborPrice, 3250)
	nearlyEqual(t, "transportPrice", breakdown.Prices.TransportPrice, 270)
	nearlyEqual(t, "subtotal", breakdown.Prices.Subtotal, 3520)
	nearlyEqual(t, "vatAmount", breakdown.Prices.VATAmount, 880)
	nearlyEqual(t, "totalPrice", breakdown.Prices.TotalPrice, 4400)
	if breakdown.Meta.TransportMode != rates.TransportPerKmRoundtrip {
		t.Fatalf("transportMode = %q", breakdown.Meta.TransportMode)
	}
}

func TestCalculate_TimeModeFoldsDriveTimeIntoLabor(t *testing.T) {
	cfg := baseConfig()
	cfg.HourlyRateTotal = floatPtr(600)

	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25, TransportMinutes: 60}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	// 4.5 load/unload hours + 1 drive hour, no separate transport line.
	nearlyEqual(t, "laborHours", breakdown.Time.LaborHours, 5.5)
	nearlyEqual(t, "laborPrice", breakdown.Prices.LaborPrice, 3300)
	nearlyEqual(t, "transportPrice", breakdown.Prices.TransportPrice, 0)
	if breakdown.Meta.TransportMode != rates.TransportChargeFromDeparture {
		t.Fatalf("transportMode = %q", breakdown.Meta.TransportMode)
	}
}

func TestCalculate_RequiredFeeOverridesDeselection(t *testing.T) {
	cfg := baseConfig()
	cfg.BufferMinutes = floatPtr(30)
	cfg.Fees = []rates.FeeRule{
		{Name: "Emballage", Type: rates.FeePercent, Value: 10, Enabled: true, Required: true},
	}

	breakdown, err := Calculate(QuoteRequest{
		VolumeM3:     25,
		SelectedFees: map[string]bool{"Emballage": false},
	}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if len(breakdown.Fees) != 1 {
		t.Fatalf("expected 1 fee line, got %+v", breakdown.Fees)
	}
	if breakdown.Fees[0].Name != "Emballage" {
		t.Fatalf("unexpected fee name %q", breakdown.Fees[0].Name)
	}
	// 10% of 3250 labor.
	nearlyEqual(t, "fee amount", breakdown.Fees[0].Amount, 325)
}

func TestCalculate_FeeSelectionResolution(t *testing.T) {
	cfg := baseConfig()
	cfg.BufferMinutes = floatPtr(30)
	cfg.Fees = []rates.FeeRule{
		{Name: "Opbevaring", Type: rates.FeeFixed, Value: 400, Enabled: true},
		{Name: "Montering", Type: rates.FeeFixed, Value: 200, Enabled: true, DefaultSelected: true},
		{Name: "Miljø", Type: rates.FeeFixed, Value: 50, Enabled: true, AutoApply: true},
		{Name: "Gammel", Type: rates.FeeFixed, Value: 999, Enabled: false, Required: true},
	}

	breakdown, err := Calculate(QuoteRequest{
		VolumeM3:     25,
		SelectedFees: map[string]bool{"Opbevaring": true, "Montering": false},
	}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	// Opbevaring explicitly selected; Montering explicitly deselected and not
	// required; Miljø auto-applies; Gammel is disabled outright.
	want := []FeeLine{
		{Name: "Opbevaring", Amount: 400},
		{Name: "Miljø", Amount: 50},
	}
	if !reflect.DeepEqual(breakdown.Fees, want) {
		t.Fatalf("fees = %+v, want %+v", breakdown.Fees, want)
	}
}

func TestCalculate_HeavyFeesPerEnabledClass(t *testing.T) {
	cfg := baseConfig()
	cfg.Heavy80 = rates.HeavyItemRule{Enabled: true, FeePerItem: 250}
	cfg.Heavy150 = rates.HeavyItemCrewRule{
		HeavyItemRule: rates.HeavyItemRule{Enabled: true, FeePerItem: 600},
	}

	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25, Heavy80Count: 2, Heavy150Count: 1}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "heavyFee", breakdown.Prices.HeavyFee, 1100)

	cfg.Heavy80.Enabled = false
	breakdown, err = Calculate(QuoteRequest{VolumeM3: 25, Heavy80Count: 2, Heavy150Count: 1}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "heavyFee disabled class", breakdown.Prices.HeavyFee, 600)
}

func TestCalculate_PerEmployeeRateDerivesTotal(t *testing.T) {
	cfg := baseConfig()
	cfg.HourlyRateTotal = nil
	cfg.HourlyRatePerEmployee = floatPtr(325)
	cfg.BufferMinutes = floatPtr(30)

	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	// 2 movers at 325/h for 5 hours.
	nearlyEqual(t, "laborPrice", breakdown.Prices.LaborPrice, 3250)
}

func TestCalculate_SubtotalSumsRoundedLines(t *testing.T) {
	cfg := baseConfig()
	// 1/3 of an hour at 650 forces fractional line values.
	cfg.BaseLoadMinutes = 20
	cfg.BaseUnloadMinutes = 0
	cfg.TransportMode = rates.TransportPerKmRoundtrip
	cfg.PricePerKm = 6.66
	cfg.Fees = []rates.FeeRule{
		{Name: "Emballage", Type: rates.FeePercent, Value: 7, Enabled: true, Required: true},
	}
	cfg.Heavy80 = rates.HeavyItemRule{Enabled: true, FeePerItem: 33.33}

	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25, KmRoundtrip: 10.7, Heavy80Count: 1}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	var feeSum float64
	for _, fee := range breakdown.Fees {
		feeSum += fee.Amount
	}

	lines := breakdown.Prices
	nearlyEqual(t, "subtotal identity",
		lines.Subtotal, lines.LaborPrice+lines.TransportPrice+lines.HeavyFee+feeSum)
	nearlyEqual(t, "total identity", lines.TotalPrice, lines.Subtotal+lines.VATAmount)

	// Every line is already whole-unit; the sum must not drift from what a
	// customer adds up by hand.
	for name, v := range map[string]float64{
		"laborPrice":     lines.LaborPrice,
		"transportPrice": lines.TransportPrice,
		"heavyFee":       lines.HeavyFee,
		"vatAmount":      lines.VATAmount,
	} {
		if v != float64(int64(v)) {
			t.Fatalf("%s = %v is not a whole unit", name, v)
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	cfg := baseConfig()
	cfg.BufferMinutes = floatPtr(30)
	cfg.Fees = []rates.FeeRule{
		{Name: "Emballage", Type: rates.FeePercent, Value: 10, Enabled: true, Required: true},
		{Name: "Forsikring", Type: rates.FeeFixed, Value: 150, Enabled: true, DefaultSelected: true},
	}
	req := QuoteRequest{VolumeM3: 31, FromFloor: 3, ToFloor: 1, ElevatorTo: true, Heavy80Count: 1}

	first, err := Calculate(req, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	second, err := Calculate(req, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different breakdowns:\n%+v\n%+v", first, second)
	}
}

func TestCalculate_ZeroVolumeAndDistanceAreValid(t *testing.T) {
	cfg := baseConfig()
	cfg.TransportMode = rates.TransportPerKmRoundtrip
	cfg.PricePerKm = 6

	breakdown, err := Calculate(QuoteRequest{}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}

	nearlyEqual(t, "laborPrice", breakdown.Prices.LaborPrice, 0)
	nearlyEqual(t, "transportPrice", breakdown.Prices.TransportPrice, 0)
	nearlyEqual(t, "totalPrice", breakdown.Prices.TotalPrice, 0)
}

func TestCalculate_PricingUnavailable(t *testing.T) {
	cfg := baseConfig()
	cfg.HourlyRateTotal = nil

	if _, err := Calculate(QuoteRequest{VolumeM3: 25}, cfg); !errors.Is(err, ErrPricingUnavailable) {
		t.Fatalf("expected ErrPricingUnavailable, got %v", err)
	}

	// A per-km setup without any hourly rate can still price transport.
	cfg.TransportMode = rates.TransportPerKmRoundtrip
	cfg.PricePerKm = 6
	breakdown, err := Calculate(QuoteRequest{VolumeM3: 25, KmRoundtrip: 45}, cfg)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	nearlyEqual(t, "transportPrice", breakdown.Prices.TransportPrice, 270)
}

func TestCalculate_LaborPriceMonotonicInVolume(t *testing.T) {
	cfg := baseConfig()

	prev := -1.0
	for volume := 0.0; volume <= 100; volume += 5 {
		breakdown, err := Calculate(QuoteRequest{VolumeM3: volume}, cfg)
		if err != nil {
			t.Fatalf("Calculate(%v) returned error: %v", volume, err)
		}
		if breakdown.Prices.LaborPrice < prev {
			t.Fatalf("laborPrice decreased at volume %v", volume)
		}
		prev = breakdown.Prices.LaborPrice
	}
}
