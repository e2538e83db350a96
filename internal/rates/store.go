package rates

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a company has no stored rate configuration.
var ErrNotFound = errors.New("rate config not found")

// Store reads and writes company rate configurations. The stored JSON may be
// in the legacy shape; Load normalizes and validates before handing the
// config to a calculation.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the validated, canonical rate configuration of a company.
func (s *Store) Load(companyID int64) (RateConfig, error) {
	var raw string
	err := s.db.QueryRow(`
		SELECT config_json
		FROM rate_configs
		WHERE company_id = ?
	`, companyID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return RateConfig{}, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
	}
	if err != nil {
		return RateConfig{}, fmt.Errorf("query rate config: %w", err)
	}

	var legacy LegacyConfig
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return RateConfig{}, fmt.Errorf("decode rate config: %w", err)
	}

	cfg := Normalize(legacy)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return RateConfig{}, err
	}
	return cfg, nil
}

// Save validates and persists the configuration for a company, replacing any
// previous one. Saved configs are always in the canonical shape.
func (s *Store) Save(companyID int64, cfg RateConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode rate config: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO rate_configs (company_id, config_json)
		VALUES (?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = CURRENT_TIMESTAMP
	`, companyID, string(raw))
	if err != nil {
		return fmt.Errorf("save rate config: %w", err)
	}
	return nil
}
