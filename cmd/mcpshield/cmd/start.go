package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mcpshield/mcpshield/internal/adapter/inbound/mcpserver"
	"github.com/mcpshield/mcpshield/internal/adapter/outbound/auditlog"
	"github.com/mcpshield/mcpshield/internal/adapter/outbound/comprehend"
	"github.com/mcpshield/mcpshield/internal/adapter/outbound/upstream"
	"github.com/mcpshield/mcpshield/internal/config"
	"github.com/mcpshield/mcpshield/internal/domain/audit"
	"github.com/mcpshield/mcpshield/internal/domain/ner"
	"github.com/mcpshield/mcpshield/internal/domain/profile"
	"github.com/mcpshield/mcpshield/internal/domain/proxy"
	"github.com/mcpshield/mcpshield/internal/port/outbound"
	"github.com/mcpshield/mcpshield/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the redaction proxy",
	Long: `Start the MCP Shield proxy.

The proxy connects to the configured upstream MCP server, mirrors its tool
catalog, and serves MCP over stdio. Every tool-call and resource-read
response is redacted according to the compliance profile before it reaches
the client, and an audit record is written after redaction.

Examples:
  # Proxy a spawned stdio upstream
  UPSTREAM_MCP_COMMAND=npx \
  UPSTREAM_MCP_ARGS="@modelcontextprotocol/server-filesystem /tmp" \
  mcpshield start

  # Proxy a remote upstream with contextual redaction
  UPSTREAM_MCP_URL=https://mcp.example.com/mcp \
  COMPREHEND_ENABLED=true AWS_REGION=eu-central-1 \
  mcpshield start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Logger goes to stderr: stdout is the MCP stream.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// Restore default handling so a second signal kills immediately.
		stop()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("mcpshield stopped")
	return nil
}

// run wires all components together and serves until ctx is done.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	p := profile.Lookup(cfg.ComplianceProfile, logger)
	logger.Info("starting mcpshield",
		"version", Version,
		"profile", p.Name,
		"stdio_upstream", cfg.UsesStdioUpstream(),
		"audit_enabled", cfg.AuditEnabled,
		"comprehend_enabled", cfg.ComprehendEnabled,
	)

	reg := prometheus.NewRegistry()
	metrics := mcpserver.NewMetrics(reg)

	// Stage-2 contextual redaction is opt-in and profile-gated.
	var stage2 *ner.Redactor
	if cfg.ComprehendEnabled && p.Stage2 {
		detector, err := comprehend.New(ctx, cfg.AWSRegion, logger)
		if err != nil {
			return fmt.Errorf("failed to create comprehend client: %w", err)
		}
		stage2 = ner.NewRedactor(detector, p.EntityTypes, logger)
	}

	var emitter audit.Emitter = audit.NopEmitter{}
	if cfg.AuditEnabled {
		store, err := auditStore(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer store.Close()

		auditSvc := service.NewAuditService(store, logger,
			service.WithDropHook(metrics.AuditDropsTotal.Inc))
		auditSvc.Start(ctx)
		defer auditSvc.Stop()
		emitter = auditSvc
	}
	emitter = mcpserver.ObserveEmitter(emitter, metrics)

	backend, err := upstream.Connect(ctx, upstream.Config{
		Command:       cfg.UpstreamCommand,
		Args:          cfg.ArgsList(),
		URL:           cfg.UpstreamURL,
		ClientName:    "mcpshield",
		ClientVersion: Version,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect upstream: %w", err)
	}
	defer backend.Close()

	svc := service.NewProxyService(
		backend,
		proxy.NewAuditor(emitter, p.Name, logger),
		proxy.NewToolRedaction(p, stage2, logger),
		proxy.NewResourceRedaction(p, stage2, logger),
		logger,
	)

	gw, err := mcpserver.New(ctx, mcpserver.Config{
		Name:    "mcpshield",
		Version: Version,
	}, svc, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := mcpserver.ServeMetrics(ctx, cfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	logger.Info("gateway serving on stdio")
	if err := gw.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("gateway stopped: %w", err)
	}
	return nil
}

// auditStore picks the sink named by AUDIT_OUTPUT: rotated JSONL files for
// file:// values, the stderr stream otherwise.
func auditStore(cfg *config.Config, logger *slog.Logger) (outbound.AuditStore, error) {
	if dir, ok := cfg.AuditFileDir(); ok {
		return auditlog.NewFileStore(auditlog.Config{Dir: dir}, logger)
	}
	return auditlog.NewStreamStore(os.Stderr), nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
