package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML run configuration. Everything here can
// also be expressed per-script via the init task; script values win.
type Config struct {
	// Database enables the persisted simulator store.
	Database string `yaml:"database"`

	// Accounts funded when a script has no init block of its own.
	Accounts []string `yaml:"accounts"`

	// MaxGas funds each genesis gas coin (0 = backend default).
	MaxGas uint64 `yaml:"max_gas"`

	// DefaultGasPrice applies when a task gives no --gas-price.
	DefaultGasPrice uint64 `yaml:"default_gas_price"`
}

// LoadConfig reads and strictly decodes a YAML config file. Unknown
// keys are errors: a typoed key silently ignored would change run
// behavior without warning.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}
