// Package cmd provides the CLI commands for MCP Shield.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcpshield",
	Short: "MCP Shield - PII Redaction Proxy for MCP servers",
	Long: `MCP Shield is a transparent proxy for Model Context Protocol (MCP) servers.

It sits between an MCP client and an upstream MCP server, redacts PII from
tool-call and resource-read responses, and writes an audit trail of every
proxied call. The upstream server and the client need no changes: the proxy
mirrors the upstream tool catalog one-to-one.

Configuration is environment-only:
  UPSTREAM_MCP_COMMAND  spawn the upstream as a stdio subprocess
  UPSTREAM_MCP_ARGS     arguments for the spawned command
  UPSTREAM_MCP_URL      or connect to a remote upstream over HTTP
  COMPLIANCE_PROFILE    GDPR (default), DORA, PCI_DSS, or full
  AUDIT_ENABLED         write audit records (default true)
  COMPREHEND_ENABLED    enable AWS Comprehend contextual redaction
  AWS_REGION            region for Comprehend (default us-east-1)
  AUDIT_OUTPUT          audit sink: stderr (default) or file://<dir>
  METRICS_ADDR          optional host:port for Prometheus metrics
  LOG_LEVEL             debug, info (default), warn, or error

Exactly one of UPSTREAM_MCP_COMMAND and UPSTREAM_MCP_URL must be set.

Example:
  UPSTREAM_MCP_COMMAND=npx \
  UPSTREAM_MCP_ARGS="@modelcontextprotocol/server-filesystem /tmp" \
  mcpshield start`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
