// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/benupfin/riskengine/internal/domain"
	"github.com/benupfin/riskengine/internal/modules/risk"
	"github.com/benupfin/riskengine/internal/modules/simulation"
	"github.com/benupfin/riskengine/internal/modules/volatility"
	"github.com/benupfin/riskengine/internal/utils"
)

// Config holds application configuration
type Config struct {
	LogLevel string
	Port     int
	DevMode  bool
	Workers  int // Goroutines for simulation trials and Monte Carlo paths

	AllowedOrigins []string // CORS origins; "*" allows any

	Risk       RiskConfig
	Volatility VolatilityConfig
	Simulation SimulationConfig

	// RiskFreeRate is the annual rate used by Sharpe/Sortino ratios and the
	// simulator when a request does not name one.
	RiskFreeRate float64
	Seed         uint64
}

// RiskConfig holds the VaR/ES defaults
type RiskConfig struct {
	ConfidenceLevel  float64
	Method           string
	DegreesOfFreedom float64
	MonteCarloPaths  int
}

// VolatilityConfig holds the GARCH/EWMA defaults
type VolatilityConfig struct {
	DecayFactor        float64
	Window             int
	GARCHMaxIterations int
}

// SimulationConfig holds the portfolio simulator defaults
type SimulationConfig struct {
	Trials        int
	Concentration float64
	AllowShort    bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Workers:  getEnvAsInt("WORKERS", defaultWorkers()),

		AllowedOrigins: utils.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		Risk: RiskConfig{
			ConfidenceLevel:  getEnvAsFloat("RISK_CONFIDENCE_LEVEL", 0.95),
			Method:           getEnv("RISK_METHOD", "historical"),
			DegreesOfFreedom: getEnvAsFloat("RISK_DEGREES_OF_FREEDOM", 5),
			MonteCarloPaths:  getEnvAsInt("RISK_MONTE_CARLO_PATHS", 1000),
		},
		Volatility: VolatilityConfig{
			DecayFactor:        getEnvAsFloat("VOLATILITY_DECAY_FACTOR", 0.94),
			Window:             getEnvAsInt("VOLATILITY_WINDOW", 100),
			GARCHMaxIterations: getEnvAsInt("GARCH_MAX_ITERATIONS", 10000),
		},
		Simulation: SimulationConfig{
			Trials:        getEnvAsInt("SIMULATION_TRIALS", 10000),
			Concentration: getEnvAsFloat("SIMULATION_CONCENTRATION", 0.05),
			AllowShort:    getEnvAsBool("SIMULATION_ALLOW_SHORT", false),
		},
		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0),
		Seed:         uint64(getEnvAsInt("RANDOM_SEED", 42)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every analytics default is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", domain.ErrInvalidParameter, c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: WORKERS must be positive, got %d", domain.ErrInvalidParameter, c.Workers)
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: CORS_ALLOWED_ORIGINS is empty", domain.ErrInvalidParameter)
	}
	if _, err := c.RiskOptions(); err != nil {
		return fmt.Errorf("risk defaults: %w", err)
	}

	v := c.Volatility
	if v.Window <= 0 {
		return fmt.Errorf("%w: VOLATILITY_WINDOW must be positive, got %d", domain.ErrInvalidParameter, v.Window)
	}
	if !(v.DecayFactor >= 0 && v.DecayFactor < 1) {
		return fmt.Errorf("%w: VOLATILITY_DECAY_FACTOR must be in [0, 1), got %v", domain.ErrInvalidParameter, v.DecayFactor)
	}
	if v.GARCHMaxIterations <= 0 {
		return fmt.Errorf("%w: GARCH_MAX_ITERATIONS must be positive, got %d", domain.ErrInvalidParameter, v.GARCHMaxIterations)
	}

	if err := c.SimulationDefaults().Validate(); err != nil {
		return fmt.Errorf("simulation defaults: %w", err)
	}

	return nil
}

// RiskOptions converts the risk defaults into estimator options.
func (c *Config) RiskOptions() (risk.Options, error) {
	method, err := risk.ParseMethod(c.Risk.Method)
	if err != nil {
		return risk.Options{}, err
	}
	opts := risk.Options{
		Confidence:       c.Risk.ConfidenceLevel,
		Method:           method,
		DegreesOfFreedom: c.Risk.DegreesOfFreedom,
		Paths:            c.Risk.MonteCarloPaths,
		Seed:             c.Seed,
	}
	if err := opts.Validate(); err != nil {
		return risk.Options{}, err
	}
	return opts, nil
}

// VolatilityDefaults converts the volatility defaults into a model config.
func (c *Config) VolatilityDefaults() volatility.Config {
	return volatility.Config{
		Window:        c.Volatility.Window,
		DecayFactor:   c.Volatility.DecayFactor,
		MaxIterations: c.Volatility.GARCHMaxIterations,
	}
}

// SimulationDefaults converts the simulator defaults into a run config.
func (c *Config) SimulationDefaults() simulation.Config {
	return simulation.Config{
		Trials:        c.Simulation.Trials,
		RiskFreeRate:  c.RiskFreeRate,
		AllowShort:    c.Simulation.AllowShort,
		Concentration: c.Simulation.Concentration,
		Seed:          c.Seed,
	}
}

// defaultWorkers is the logical CPU count, falling back to the Go runtime's
// view when the host cannot be queried.
func defaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
