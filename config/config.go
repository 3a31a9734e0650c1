// Package config reads engine settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"takematch/cache"
	"takematch/fingerprint"
)

const (
	// DefaultThreshold is the minimum weighted score to accept a match.
	DefaultThreshold = 0.80
)

type Config struct {
	// Algorithm selects the fingerprinting algorithm for generation and
	// matching.
	Algorithm fingerprint.Algorithm
	// Threshold is the match acceptance threshold in [0,1].
	Threshold float64
	// Workers bounds the generation pool; 0 means one per CPU core.
	Workers int
	// CacheFileName is the per-folder cache file name.
	CacheFileName string
	// ReferenceFolder is the library's global reference folder, if any.
	ReferenceFolder string
	// DBPath is the optional SQLite library index; empty disables it.
	DBPath string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; malformed values are.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Algorithm:       fingerprint.AlgorithmSpectral,
		Threshold:       DefaultThreshold,
		CacheFileName:   cache.DefaultCacheFileName,
		ReferenceFolder: os.Getenv("TAKEMATCH_REFERENCE_FOLDER"),
		DBPath:          os.Getenv("TAKEMATCH_DB"),
	}

	if v := os.Getenv("TAKEMATCH_ALGORITHM"); v != "" {
		alg, err := fingerprint.ParseAlgorithm(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Algorithm = alg
	}

	if v := os.Getenv("TAKEMATCH_THRESHOLD"); v != "" {
		threshold, err := ParseThreshold(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Threshold = threshold
	}

	if v := os.Getenv("TAKEMATCH_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil || workers < 0 {
			return Config{}, fmt.Errorf("invalid TAKEMATCH_WORKERS %q", v)
		}
		cfg.Workers = workers
	}

	if v := os.Getenv("TAKEMATCH_CACHE_FILE"); v != "" {
		cfg.CacheFileName = v
	}

	return cfg, nil
}

// ParseThreshold accepts the threshold either as a fraction (0.8) or as a
// percentage (80), matching how users think of "80% similarity".
func ParseThreshold(value string) (float64, error) {
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q", value)
	}
	if threshold > 1 {
		threshold /= 100
	}
	if threshold < 0 || threshold > 1 {
		return 0, fmt.Errorf("threshold %q out of range [0,1]", value)
	}
	return threshold, nil
}
