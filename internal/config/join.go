package config

import (
	"github.com/spf13/pflag"
)

// JoinConfig holds configuration for the join command.
type JoinConfig struct {
	Pool          string
	Amounts       []string
	QuotedShares  string
	EstimateQuote bool
	Output        string
	LogLevel      string
}

// LoadJoin merges config file, environment variables, and flags into JoinConfig.
func LoadJoin(cfgFile string, flags *pflag.FlagSet) (JoinConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"output":    "json",
		"log-level": "info",
	})
	if err != nil {
		return JoinConfig{}, err
	}

	return JoinConfig{
		Pool:          v.GetString("pool"),
		Amounts:       getStringSlice(v, "amounts"),
		QuotedShares:  v.GetString("quoted-shares"),
		EstimateQuote: v.GetBool("estimate-quote"),
		Output:        v.GetString("output"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}
