// Package config holds the engine and campaign daemons' own settings —
// distinct from a campaign's JSON configuration file (internal/core/domain
// CampaignConfig) — following a flag-plus-environment hybrid, env as fallback, flags as override.
package config

import (
	"flag"
	"os"
)

// EngineConfig configures the fij-engine process.
type EngineConfig struct {
	ListenAddr    string
	MetricsAddr   string
	Arch          string
	DashboardPath string
}

// LoadEngineConfig parses flags, falling back to environment variables and
// then defaults, in that precedence order.
func LoadEngineConfig() EngineConfig {
	cfg := EngineConfig{
		ListenAddr:    envOr("FIJ_ENGINE_LISTEN", ":9090"),
		MetricsAddr:   envOr("FIJ_ENGINE_METRICS", ":9091"),
		Arch:          envOr("FIJ_ENGINE_ARCH", ""),
		DashboardPath: envOr("FIJ_ENGINE_DASHBOARD", "/dashboard"),
	}

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "control channel listen address")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "prometheus metrics listen address")
	flag.StringVar(&cfg.Arch, "arch", cfg.Arch, "target architecture (amd64, arm64, riscv64); empty means host arch")
	flag.StringVar(&cfg.DashboardPath, "dashboard-path", cfg.DashboardPath, "websocket dashboard route")
	flag.Parse()

	return cfg
}

// CampaignCLIConfig configures the fij-campaign process.
type CampaignCLIConfig struct {
	ConfigPath string
	AuditDB    string
}

func LoadCampaignConfig() CampaignCLIConfig {
	cfg := CampaignCLIConfig{
		ConfigPath: envOr("FIJ_CAMPAIGN_CONFIG", "campaign.json"),
		AuditDB:    envOr("FIJ_CAMPAIGN_AUDIT_DB", "fij_audit.db"),
	}

	flag.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "path to campaign JSON configuration")
	flag.StringVar(&cfg.AuditDB, "audit-db", cfg.AuditDB, "path to the campaign audit sqlite database")
	flag.Parse()

	return cfg
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
