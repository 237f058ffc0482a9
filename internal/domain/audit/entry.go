// Package audit defines the audit record written for every proxied call and
// the context plumbing that carries redaction results from the inner
// middleware layers out to the audit layer.
package audit

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Entry statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MaxInputParamsBytes caps the serialized input parameters stored per entry.
const MaxInputParamsBytes = 500

// truncationMarker is appended when input parameters exceed the cap.
const truncationMarker = "...[truncated]"

// timestampLayout is millisecond-precision UTC with a literal Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp marshals as millisecond-precision UTC ("2026-02-15T10:30:00.000Z").
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("audit: timestamp is not a JSON string: %s", data)
	}
	parsed, err := time.Parse(timestampLayout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("audit: parse timestamp: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// Entry is one audit record. Field order matches the serialized line; the
// record describes the response after redaction and never carries raw
// upstream content.
type Entry struct {
	Timestamp         Timestamp `json:"timestamp"`
	UpstreamTool      string    `json:"upstream_tool"`
	ComplianceProfile string    `json:"compliance_profile"`
	InputParameters   string    `json:"input_parameters"`
	OutputSizeBytes   int       `json:"output_size_bytes"`
	RedactionCount    int       `json:"redaction_count"`
	RedactedTypes     []string  `json:"redacted_types"`
	ExecutionTimeMS   int64     `json:"execution_time_ms"`
	Status            string    `json:"status"`
	Error             string    `json:"error,omitempty"`
}

// TruncateParams enforces the input-parameter cap. Oversized values are cut
// at the largest rune-safe position within the cap and marked.
func TruncateParams(s string) string {
	if len(s) <= MaxInputParamsBytes {
		return s
	}
	cut := MaxInputParamsBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
