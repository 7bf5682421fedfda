// Package config defines the HCL service configuration for fwapi.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Backend names accepted in the store block.
const (
	BackendRemote = "remote"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the root of the service configuration.
type Config struct {
	Listen    string           `hcl:"listen,optional"`
	Log       *LogConfig       `hcl:"log,block"`
	Inventory *InventoryConfig `hcl:"inventory,block"`
	Store     *StoreConfig     `hcl:"store,block"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `hcl:"level,optional"`
	JSON  bool   `hcl:"json,optional"`
}

// InventoryConfig points at the VM inventory service.
type InventoryConfig struct {
	URL     string `hcl:"url"`
	Timeout string `hcl:"timeout,optional"`
}

// StoreConfig selects and configures the rule store backend.
type StoreConfig struct {
	Backend string `hcl:"backend"`
	URL     string `hcl:"url,optional"`     // remote backend
	Path    string `hcl:"path,optional"`    // sqlite backend
	Timeout string `hcl:"timeout,optional"` // remote backend
	Seed    string `hcl:"seed,optional"`    // sqlite / memory backends
}

// Default returns the configuration used when no file is given: a
// standalone in-memory service on localhost, for dev runs and tests.
func Default() *Config {
	return &Config{
		Listen:    "127.0.0.1:8070",
		Log:       &LogConfig{Level: "info"},
		Inventory: &InventoryConfig{URL: "http://127.0.0.1:8080"},
		Store:     &StoreConfig{Backend: BackendMemory},
	}
}

// Load reads and validates an HCL config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes HCL bytes and validates the result.
func Parse(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, &hcl.EvalContext{}, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Log == nil {
		c.Log = def.Log
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store == nil {
		c.Store = def.Store
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Inventory == nil || c.Inventory.URL == "" {
		return fmt.Errorf("inventory block with a url is required")
	}
	if _, err := c.InventoryTimeout(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case BackendRemote:
		if c.Store.URL == "" {
			return fmt.Errorf("store backend %q requires url", BackendRemote)
		}
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store backend %q requires path", BackendSQLite)
		}
	case BackendMemory:
		// nothing to configure
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := c.StoreTimeout(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// InventoryTimeout returns the parsed inventory client timeout
// (zero selects the client default).
func (c *Config) InventoryTimeout() (time.Duration, error) {
	return parseTimeout("inventory", c.Inventory.Timeout)
}

// StoreTimeout returns the parsed rule store client timeout.
func (c *Config) StoreTimeout() (time.Duration, error) {
	if c.Store == nil {
		return 0, nil
	}
	return parseTimeout("store", c.Store.Timeout)
}

func parseTimeout(block, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s timeout %q: %w", block, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s timeout %q: must not be negative", block, s)
	}
	return d, nil
}
