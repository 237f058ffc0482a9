// Package ner implements the contextual stage-2 redaction wrapper around an
// abstract named-entity-recognition client: chunking, a cheap pre-filter,
// and span-based replacement.
package ner

import "context"

// Entity is one PII span located by the provider. Offsets are positions in
// the chunk string as reported by the provider; the wrapper treats them as
// opaque indices and only validates that they address the chunk.
type Entity struct {
	Type        string
	BeginOffset int
	EndOffset   int
}

// Client is the abstract NER provider handle. Implementations must be safe
// for concurrent use; the wrapper is shared across requests.
type Client interface {
	// ContainsPII is the cheap probe: returns the PII labels present in
	// text, or an empty slice when the text is clean.
	ContainsPII(ctx context.Context, text, language string) ([]string, error)

	// DetectPII locates PII entity spans in text.
	DetectPII(ctx context.Context, text, language string) ([]Entity, error)
}

// DefaultLanguage is the language code sent to the provider.
const DefaultLanguage = "en"

// DefaultEntityTypes is the stage-2 allowlist used when a profile does not
// restrict entity types. Categories already covered by the stage-1 patterns
// (cards, SSNs, emails, phones) are excluded.
var DefaultEntityTypes = []string{
	"NAME",
	"ADDRESS",
	"DATE_TIME",
	"AGE",
	"USERNAME",
	"PASSWORD",
	"IP_ADDRESS",
	"BANK_ACCOUNT_NUMBER",
	"PASSPORT_NUMBER",
	"DRIVER_ID",
	"AWS_ACCESS_KEY",
	"MAC_ADDRESS",
}
