// Package config loads and validates the gateway configuration from the
// environment.
package config

import "strings"

// Config is the complete runtime configuration. Exactly one upstream target
// (Command or URL) must be set.
type Config struct {
	// UpstreamCommand launches the upstream MCP server as a stdio
	// subprocess.
	UpstreamCommand string `mapstructure:"upstream_mcp_command"`

	// UpstreamArgs is the whitespace-split argument list for
	// UpstreamCommand.
	UpstreamArgs string `mapstructure:"upstream_mcp_args"`

	// UpstreamURL connects to a remote upstream over streamable HTTP.
	UpstreamURL string `mapstructure:"upstream_mcp_url" validate:"omitempty,url"`

	// ComplianceProfile selects the redaction posture. Unknown names fall
	// back to GDPR at lookup time with a warning, not here.
	ComplianceProfile string `mapstructure:"compliance_profile"`

	// AuditEnabled gates audit emission.
	AuditEnabled bool `mapstructure:"audit_enabled"`

	// ComprehendEnabled gates stage-2 contextual redaction.
	ComprehendEnabled bool `mapstructure:"comprehend_enabled"`

	// AWSRegion is the region for the NER client.
	AWSRegion string `mapstructure:"aws_region" validate:"required"`

	// AuditOutput selects the audit sink: "stderr" for the diagnostics
	// stream, or "file://<dir>" for rotated JSONL files.
	AuditOutput string `mapstructure:"audit_output" validate:"required"`

	// MetricsAddr, when set, exposes Prometheus metrics on host:port.
	MetricsAddr string `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`

	// LogLevel controls the slog handler level.
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// ArgsList returns the upstream arguments split on whitespace.
func (c *Config) ArgsList() []string {
	return strings.Fields(c.UpstreamArgs)
}

// UsesStdioUpstream reports whether the upstream is a spawned subprocess.
func (c *Config) UsesStdioUpstream() bool {
	return c.UpstreamCommand != ""
}

// AuditFileDir returns the directory of a file:// audit output and whether
// the file sink is selected.
func (c *Config) AuditFileDir() (string, bool) {
	dir, ok := strings.CutPrefix(c.AuditOutput, "file://")
	if !ok {
		return "", false
	}
	return dir, true
}
