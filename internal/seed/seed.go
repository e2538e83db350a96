package seed

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/flyttio/priskalk/internal/rates"
)

const demoCompanyName = "Flyttefirma Demo ApS"

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way: a demo company with a
// complete default rate configuration, created only when absent.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	companyID, err := ensureCompany(tx, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureRateConfig(tx, companyID, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureCompany(tx *sql.Tx, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM companies WHERE name = ? LIMIT 1`, demoCompanyName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("check demo company existence: %w", err)
	}

	result, err := tx.Exec(`INSERT INTO companies (name) VALUES (?)`, demoCompanyName)
	if err != nil {
		return 0, fmt.Errorf("insert demo company: %w", err)
	}
	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read demo company id: %w", err)
	}
	stats.Inserts++
	return id, nil
}

func ensureRateConfig(tx *sql.Tx, companyID int64, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM rate_configs WHERE company_id = ?)`, companyID).Scan(&exists); err != nil {
		return fmt.Errorf("check rate config existence: %w", err)
	}
	if exists {
		return nil
	}

	cfg := DefaultRateConfig()
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode default rate config: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO rate_configs (company_id, config_json)
		VALUES (?, ?)
	`, companyID, string(raw)); err != nil {
		return fmt.Errorf("insert default rate config: %w", err)
	}
	stats.Inserts++
	return nil
}

// DefaultRateConfig is the configuration seeded for the demo company. The
// numbers mirror a typical two-mover setup on an hourly total rate.
func DefaultRateConfig() rates.RateConfig {
	hourly := 650.0
	buffer := 30.0

	cfg := rates.RateConfig{
		PricingMode:       rates.PricingModeBoth,
		VehicleCapacityM3: 32,
		StandardVolumeM3:  25,
		BaseMinEmployees:  2,
		MaxM3PerEmployee:  17,
		CrewFactors:       map[int]float64{2: 1.0, 3: 1.25, 4: 1.45, 5: 1.6},
		BaseLoadMinutes:   150,
		BaseUnloadMinutes: 120,

		MinutesPerFloorPerM3: 0.4,
		ElevatorMultiplier:   0.5,

		TransportMode: rates.TransportPerKmRoundtrip,
		PricePerKm:    6,

		HourlyRateTotal: &hourly,
		BufferMinutes:   &buffer,

		Heavy80: rates.HeavyItemRule{
			Enabled:             true,
			FeePerItem:          250,
			ExtraMinutesPerItem: 15,
		},
		Heavy150: rates.HeavyItemCrewRule{
			HeavyItemRule: rates.HeavyItemRule{
				Enabled:             true,
				FeePerItem:          600,
				ExtraMinutesPerItem: 30,
			},
			MinEmployeesOverride: 3,
			EnforceMinEmployees:  true,
		},

		Fees: []rates.FeeRule{
			{Name: "Emballage", Type: rates.FeePercent, Value: 10, Enabled: true, DefaultSelected: true},
			{Name: "Forsikring", Type: rates.FeeFixed, Value: 150, Enabled: true, Required: true},
		},
	}
	return cfg
}
