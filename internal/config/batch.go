package config

import (
	"time"

	"github.com/spf13/pflag"
)

// BatchConfig holds configuration for the batch command.
type BatchConfig struct {
	Pool              string
	In                string
	Out               string
	Errors            string
	PGDSN             string
	BatchSize         int
	MaxRetries        int
	RetryBackoff      time.Duration
	EstimateMissing   bool
	Checkpoint        string
	CheckpointEnabled bool
	LogLevel          string
}

// LoadBatch merges config file, environment variables, and flags into BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":                "./data/price_impact.jsonl",
		"errors":             "./data/price_impact_errors.jsonl",
		"batch-size":         500,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"checkpoint":         "./data/impact_checkpoint.json",
		"checkpoint-enabled": false,
		"log-level":          "info",
	})
	if err != nil {
		return BatchConfig{}, err
	}

	return BatchConfig{
		Pool:              v.GetString("pool"),
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Errors:            v.GetString("errors"),
		PGDSN:             v.GetString("pg-dsn"),
		BatchSize:         v.GetInt("batch-size"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		EstimateMissing:   v.GetBool("estimate-missing"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
