package boundary

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// fileConfig is the on-disk shape of a ruleset.
//
//	rules:
//	  payment-service:
//	    allowed: [resilience, observe]
//	  auth-service:
//	    allowed: ["*"]
//	    denied: [pdf-lib]
type fileConfig struct {
	Rules map[string]Rule `mapstructure:"rules"`
}

// Load reads a ruleset from a YAML or JSON file. Values can be overridden
// through CALLGUARD_-prefixed environment variables.
func Load(path string) (*Ruleset, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("CALLGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("boundary: reading %s: %w", path, err)
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules in %s", ErrInvalidRuleset, path)
	}

	return New(cfg.Rules), nil
}
