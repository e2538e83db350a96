package config

import (
	"log"
	"os"
	"strconv"
)

const (
	defaultDBPath = "./dev.db"
	defaultPort   = "8080"

	// Depot defaults point at the company yard in Copenhagen.
	defaultDepotLat = 55.6761
	defaultDepotLon = 12.5683

	defaultCountryBias = "dk"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	DBPath string
	Port   string
	Env    string

	AdminTokenSecret string

	DepotLat float64
	DepotLon float64

	NominatimBaseURL string
	OSRMBaseURL      string
	CountryBias      string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = loadDotEnv(".env")

	cfg := Config{
		DBPath:           os.Getenv("DB_PATH"),
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("APP_ENV"),
		AdminTokenSecret: os.Getenv("ADMIN_TOKEN_SECRET"),
		DepotLat:         envFloat("DEPOT_LAT", defaultDepotLat),
		DepotLon:         envFloat("DEPOT_LON", defaultDepotLon),
		NominatimBaseURL: os.Getenv("NOMINATIM_BASE_URL"),
		OSRMBaseURL:      os.Getenv("OSRM_BASE_URL"),
		CountryBias:      os.Getenv("GEOCODE_COUNTRY_BIAS"),
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.CountryBias == "" {
		cfg.CountryBias = defaultCountryBias
	}

	if cfg.AdminTokenSecret == "" {
		log.Print("warning: ADMIN_TOKEN_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the process runs in a development environment.
// Migrations auto-apply only then.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("warning: %s=%q is not numeric, using default", key, raw)
		return fallback
	}
	return value
}
