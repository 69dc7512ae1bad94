// Package config loads the process-wide routing and priority configuration
// from environment variables. Configuration is read once at startup and never
// mutated, so it may be shared by any number of concurrent solves.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Routing holds the hard-constraint caps and defaults applied to every solve.
type Routing struct {
	MaxTravelTimeHours        float64
	DefaultSpeedKmh           float64
	BufferTimeMinutes         float64
	MaxRouteDistanceKm        float64
	DefaultServiceTimeMinutes int
}

// Priority holds the inclusion weights and skip penalties per priority tier.
type Priority struct {
	HighWeight         float64
	MediumWeight       float64
	LowWeight          float64
	MissingHighPenalty float64
}

type Config struct {
	Routing  Routing
	Priority Priority
}

// Load reads configuration from the environment, falling back to defaults.
// Invalid values are fatal at process start, not per-request.
func Load() (Config, error) {
	cfg := Config{
		Routing: Routing{
			MaxTravelTimeHours:        envFloat("MAX_TRAVEL_TIME_HOURS", 4.0),
			DefaultSpeedKmh:           envFloat("DEFAULT_SPEED_KMH", 50.0),
			BufferTimeMinutes:         envFloat("BUFFER_TIME_MINUTES", 15.0),
			MaxRouteDistanceKm:        envFloat("MAX_ROUTE_DISTANCE_KM", 200.0),
			DefaultServiceTimeMinutes: envInt("DEFAULT_SERVICE_TIME_MINUTES", 10),
		},
		Priority: Priority{
			HighWeight:         envFloat("HIGH_PRIORITY_WEIGHT", 1000.0),
			MediumWeight:       envFloat("MEDIUM_PRIORITY_WEIGHT", 100.0),
			LowWeight:          envFloat("LOW_PRIORITY_WEIGHT", 1.0),
			MissingHighPenalty: envFloat("PENALTY_MISSING_HIGH_PRIORITY", 10000.0),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	r := c.Routing
	if r.MaxTravelTimeHours <= 0 {
		return fmt.Errorf("config: MAX_TRAVEL_TIME_HOURS must be positive, got %v", r.MaxTravelTimeHours)
	}
	if r.DefaultSpeedKmh <= 0 {
		return fmt.Errorf("config: DEFAULT_SPEED_KMH must be positive, got %v", r.DefaultSpeedKmh)
	}
	if r.BufferTimeMinutes < 0 {
		return fmt.Errorf("config: BUFFER_TIME_MINUTES must not be negative, got %v", r.BufferTimeMinutes)
	}
	if r.MaxRouteDistanceKm <= 0 {
		return fmt.Errorf("config: MAX_ROUTE_DISTANCE_KM must be positive, got %v", r.MaxRouteDistanceKm)
	}
	if r.DefaultServiceTimeMinutes <= 0 {
		return fmt.Errorf("config: DEFAULT_SERVICE_TIME_MINUTES must be positive, got %v", r.DefaultServiceTimeMinutes)
	}
	p := c.Priority
	if !(p.HighWeight > p.MediumWeight && p.MediumWeight > p.LowWeight) {
		return fmt.Errorf("config: priority weights must decrease HIGH > MEDIUM > LOW, got %v/%v/%v",
			p.HighWeight, p.MediumWeight, p.LowWeight)
	}
	if p.LowWeight <= 0 {
		return fmt.Errorf("config: LOW_PRIORITY_WEIGHT must be positive, got %v", p.LowWeight)
	}
	if p.MissingHighPenalty <= p.MediumWeight {
		return fmt.Errorf("config: PENALTY_MISSING_HIGH_PRIORITY must exceed MEDIUM_PRIORITY_WEIGHT, got %v", p.MissingHighPenalty)
	}
	return nil
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
