// Package profile defines the compliance profiles that select which
// redaction stages run and which entity types stage 2 may replace.
package profile

import "log/slog"

// Profile names accepted by the registry.
const (
	NameGDPR   = "GDPR"
	NameDORA   = "DORA"
	NamePCIDSS = "PCI_DSS"
	NameFull   = "full"
)

// DefaultName is the fallback profile applied when configuration names an
// unknown profile.
const DefaultName = NameGDPR

// Profile is one compliance posture. Stage1 gates the pattern engine,
// Stage2 gates the NER wrapper; EntityTypes restricts stage 2 and an empty
// list means the redactor's default set.
type Profile struct {
	Name        string
	Stage1      bool
	Stage2      bool
	EntityTypes []string
}

var registry = map[string]Profile{
	NameGDPR: {
		Name:   NameGDPR,
		Stage1: true,
		Stage2: true,
		EntityTypes: []string{
			"NAME",
			"ADDRESS",
			"DATE_TIME",
			"PASSPORT_NUMBER",
			"DRIVER_ID",
		},
	},
	NameDORA: {
		Name:   NameDORA,
		Stage1: true,
		Stage2: false,
	},
	NamePCIDSS: {
		Name:   NamePCIDSS,
		Stage1: true,
		Stage2: false,
	},
	NameFull: {
		Name:   NameFull,
		Stage1: true,
		Stage2: true,
	},
}

// Lookup resolves name to a profile. Unknown names log a warning and fall
// back to GDPR so a typo in configuration fails toward more redaction, not
// less.
func Lookup(name string, logger *slog.Logger) Profile {
	if p, ok := registry[name]; ok {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Unknown compliance profile, falling back to GDPR",
		"requested", name,
		"fallback", DefaultName)
	return registry[DefaultName]
}

// Names lists the registered profile names, for config validation messages.
func Names() []string {
	return []string{NameGDPR, NameDORA, NamePCIDSS, NameFull}
}
