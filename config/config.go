package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlerive/bsiv/blackscholes"
)

const (
	EnvPrecision         = "BSIV_PRECISION"
	EnvIterations        = "BSIV_ITERATIONS"
	EnvInitialVolatility = "BSIV_INITIAL_VOLATILITY"
	EnvLogLevel          = "BSIV_LOG_LEVEL"
	EnvOutput            = "BSIV_OUTPUT"
)

// Config holds the defaults of the command line flags.
type Config struct {
	Precision         float64
	Iterations        int
	InitialVolatility float64
	LogLevel          string
	Output            string
}

func Default() Config {
	return Config{
		Precision:         blackscholes.DefaultPrecision,
		Iterations:        blackscholes.DefaultMaxIterations,
		InitialVolatility: blackscholes.DefaultInitialVolatility,
		LogLevel:          "info",
		Output:            "text",
	}
}

// LoadEnv loads environment variables from the given .env files, ".env" when none is given.
// A missing file is not an error.
func LoadEnv(log logrus.FieldLogger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			log.Debugf("%s not loaded: %v", f, err)
			continue
		}
		log.Debugf("%s loaded", f)
	}
}

// BootstrapLogLevel is the log level to use before any .env file is read:
// BSIV_LOG_LEVEL from the process environment when it is valid, else the default.
func BootstrapLogLevel() string {
	if v, ok := lookup(EnvLogLevel); ok {
		if _, err := logrus.ParseLevel(v); err == nil {
			return v
		}
	}
	return Default().LogLevel
}

// FromEnv overlays BSIV_* variables on the defaults.
func FromEnv() (Config, error) {
	c := Default()
	if v, ok := lookup(EnvPrecision); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, errors.Errorf("%s=%q: want a positive number", EnvPrecision, v)
		}
		c.Precision = f
	}
	if v, ok := lookup(EnvIterations); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.Errorf("%s=%q: want a positive integer", EnvIterations, v)
		}
		c.Iterations = n
	}
	if v, ok := lookup(EnvInitialVolatility); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, errors.Errorf("%s=%q: want a positive number", EnvInitialVolatility, v)
		}
		c.InitialVolatility = f
	}
	if v, ok := lookup(EnvLogLevel); ok {
		if _, err := logrus.ParseLevel(v); err != nil {
			return Config{}, errors.Wrapf(err, "%s", EnvLogLevel)
		}
		c.LogLevel = v
	}
	if v, ok := lookup(EnvOutput); ok {
		c.Output = strings.ToLower(v)
	}
	return c, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
