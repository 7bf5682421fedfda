package rulestore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/perimetra/fwapi/internal/rules"
)

// seedSide mirrors rules.Side with yaml tags.
type seedSide struct {
	Wildcards []string `yaml:"wildcards"`
	VMs       []string `yaml:"vms"`
	Tags      []string `yaml:"tags"`
	IPs       []string `yaml:"ips"`
	Subnets   []string `yaml:"subnets"`
}

// seedRule mirrors rules.Rule with yaml tags.
type seedRule struct {
	UUID      string   `yaml:"uuid"`
	Enabled   bool     `yaml:"enabled"`
	Global    bool     `yaml:"global"`
	OwnerUUID string   `yaml:"owner_uuid"`
	Tags      []string `yaml:"tags"`
	From      seedSide `yaml:"from"`
	To        seedSide `yaml:"to"`
	Text      string   `yaml:"rule"`
}

type seedFile struct {
	Rules []seedRule `yaml:"rules"`
}

func (s seedSide) toSide() rules.Side {
	return rules.Side{
		Wildcards: s.Wildcards,
		VMs:       s.VMs,
		Tags:      s.Tags,
		IPs:       s.IPs,
		Subnets:   s.Subnets,
	}
}

// LoadSeed reads a YAML seed file and inserts its rules into the store.
// Standalone deployments use this to boot with an initial rule set.
// Returns the number of rules loaded.
func LoadSeed(ctx context.Context, store Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	return LoadSeedBytes(ctx, store, data)
}

// LoadSeedBytes is LoadSeed over already-read bytes.
func LoadSeedBytes(ctx context.Context, store Store, data []byte) (int, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, sr := range f.Rules {
		r := &rules.Rule{
			UUID:      sr.UUID,
			Enabled:   sr.Enabled,
			Global:    sr.Global,
			OwnerUUID: sr.OwnerUUID,
			Tags:      sr.Tags,
			From:      sr.From.toSide(),
			To:        sr.To.toSide(),
			Text:      sr.Text,
		}
		if err := store.Add(ctx, r); err != nil {
			return i, fmt.Errorf("seed rule %d: %w", i, err)
		}
	}
	return len(f.Rules), nil
}
