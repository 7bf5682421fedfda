package cmd

import (
	"fmt"

	"github.com/perimetra/fwapi/internal/config"
)

// RunCheck validates a configuration file and prints a summary.
func RunCheck(configFile string, verbose bool) error {
	if configFile == "" {
		return fmt.Errorf("usage: fwapi check [-v] <config-file>")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Println("Configuration valid!")
	fmt.Printf("Listen: %s\n", cfg.Listen)
	fmt.Printf("Inventory: %s\n", cfg.Inventory.URL)
	fmt.Printf("Store backend: %s\n", cfg.Store.Backend)

	if verbose {
		fmt.Printf("Log level: %s\n", cfg.Log.Level)
		switch cfg.Store.Backend {
		case config.BackendRemote:
			fmt.Printf("Store url: %s\n", cfg.Store.URL)
		case config.BackendSQLite:
			fmt.Printf("Store path: %s\n", cfg.Store.Path)
		}
		if cfg.Store.Seed != "" {
			fmt.Printf("Seed file: %s\n", cfg.Store.Seed)
		}
		if cfg.Inventory.Timeout != "" {
			fmt.Printf("Inventory timeout: %s\n", cfg.Inventory.Timeout)
		}
	}
	return nil
}
