// Package config loads a campaign's JSON configuration file, grounded on
// the original runner's fij_config.cpp: a base path, worker count,
// default injection policy, and a list of targets each with argument
// variants.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// Load reads and validates a campaign config file.
func Load(path string) (domain.CampaignConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CampaignConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg domain.CampaignConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.CampaignConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.BasePath == "" {
		return domain.CampaignConfig{}, fmt.Errorf("config: base_path is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if len(cfg.Targets) == 0 {
		return domain.CampaignConfig{}, fmt.Errorf("config: at least one target is required")
	}
	for i, t := range cfg.Targets {
		if t.Path == "" {
			return domain.CampaignConfig{}, fmt.Errorf("config: target %d missing path", i)
		}
		if _, err := os.Stat(t.Path); err != nil {
			return domain.CampaignConfig{}, fmt.Errorf("config: target %q: %w", t.Label, err)
		}
	}

	return cfg, nil
}

// ExpandPath substitutes {base_path}, {campaign}, {run} placeholders in a
// directory-layout template.
func ExpandPath(template, basePath, campaign, run string) string {
	replacer := strings.NewReplacer(
		"{base_path}", basePath,
		"{campaign}", campaign,
		"{run}", run,
	)
	return replacer.Replace(template)
}
