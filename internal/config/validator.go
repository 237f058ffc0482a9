package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the upstream target cross-field rule.
// A failure here is terminal: the entrypoint exits non-zero.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	if err := c.validateUpstreamTarget(); err != nil {
		return err
	}
	return c.validateAuditOutput()
}

// validateUpstreamTarget enforces exactly one upstream target.
func (c *Config) validateUpstreamTarget() error {
	hasCommand := c.UpstreamCommand != ""
	hasURL := c.UpstreamURL != ""

	switch {
	case hasCommand && hasURL:
		return errors.New("upstream: set UPSTREAM_MCP_COMMAND or UPSTREAM_MCP_URL, not both")
	case !hasCommand && !hasURL:
		return errors.New("upstream: one of UPSTREAM_MCP_COMMAND or UPSTREAM_MCP_URL is required")
	}
	return nil
}

// validateAuditOutput accepts the stderr stream or a non-empty file:// dir.
func (c *Config) validateAuditOutput() error {
	if c.AuditOutput == "stderr" {
		return nil
	}
	if dir, ok := c.AuditFileDir(); ok && dir != "" {
		return nil
	}
	return errors.New(`audit: AUDIT_OUTPUT must be "stderr" or "file://<dir>"`)
}

// formatValidationErrors converts validator.ValidationErrors to actionable messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
