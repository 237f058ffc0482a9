package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that set them.
// The variables are flat, unprefixed names; the gateway is configured purely
// from the environment.
var envBindings = map[string]string{
	"upstream_mcp_command": "UPSTREAM_MCP_COMMAND",
	"upstream_mcp_args":    "UPSTREAM_MCP_ARGS",
	"upstream_mcp_url":     "UPSTREAM_MCP_URL",
	"compliance_profile":   "COMPLIANCE_PROFILE",
	"audit_enabled":        "AUDIT_ENABLED",
	"comprehend_enabled":   "COMPREHEND_ENABLED",
	"aws_region":           "AWS_REGION",
	"audit_output":         "AUDIT_OUTPUT",
	"metrics_addr":         "METRICS_ADDR",
	"log_level":            "LOG_LEVEL",
}

// Load reads the environment, applies defaults, and validates the result.
func Load() (*Config, error) {
	v := viper.New()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetDefault("compliance_profile", "GDPR")
	v.SetDefault("audit_enabled", true)
	v.SetDefault("comprehend_enabled", false)
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("audit_output", "stderr")
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
