package sbm

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages inference configuration using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	// Model parameters
	v.SetDefault("model.random_seed", time.Now().UnixNano())

	// MCMC parameters
	v.SetDefault("mcmc.n_sweeps", 10)
	v.SetDefault("mcmc.eps", 0.1)
	v.SetDefault("mcmc.variable_num_blocks", false)
	v.SetDefault("mcmc.track_pairs", false)

	// Collapse parameters
	v.SetDefault("collapse.sigma", 1.5)
	v.SetDefault("collapse.eps", 0.1)
	v.SetDefault("collapse.n_checks_per_block", 5)
	v.SetDefault("collapse.n_mcmc_sweeps", 0)
	v.SetDefault("collapse.report_all_steps", false)
	v.SetDefault("collapse.allow_exhaustive", false)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for model parameters
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("model.random_seed") }

func (c *Config) NSweeps() int            { return c.v.GetInt("mcmc.n_sweeps") }
func (c *Config) Eps() float64            { return c.v.GetFloat64("mcmc.eps") }
func (c *Config) VariableNumBlocks() bool { return c.v.GetBool("mcmc.variable_num_blocks") }
func (c *Config) TrackPairs() bool        { return c.v.GetBool("mcmc.track_pairs") }

func (c *Config) Sigma() float64        { return c.v.GetFloat64("collapse.sigma") }
func (c *Config) CollapseEps() float64  { return c.v.GetFloat64("collapse.eps") }
func (c *Config) NChecksPerBlock() int  { return c.v.GetInt("collapse.n_checks_per_block") }
func (c *Config) NMCMCSweeps() int      { return c.v.GetInt("collapse.n_mcmc_sweeps") }
func (c *Config) ReportAllSteps() bool  { return c.v.GetBool("collapse.report_all_steps") }
func (c *Config) AllowExhaustive() bool { return c.v.GetBool("collapse.allow_exhaustive") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "sbm").Logger()
}
