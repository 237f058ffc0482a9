package redact

import (
	"regexp"
	"strings"
)

// Category tags produced by the stage-1 patterns.
const (
	TagCreditCard = "credit_card"
	TagIBAN       = "iban"
	TagSSN        = "ssn"
	TagEmail      = "email"
	TagPhone      = "phone"
)

// pattern pairs a compiled regex with its mask rule. A mask function that
// returns its input unchanged rejects the match: no count, no tag.
type pattern struct {
	tag  string
	re   *regexp.Regexp
	mask func(match string) string
}

// patternTable is the fixed stage-1 pattern set, applied in this order.
// The order is observable: later patterns see the output of earlier ones.
// Process-wide constant, defined once at init; never mutate.
var patternTable = []pattern{
	{
		tag:  TagCreditCard,
		re:   regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{4}\b`),
		mask: maskCreditCard,
	},
	{
		tag:  TagIBAN,
		re:   regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{4,30}\b`),
		mask: maskIBAN,
	},
	{
		tag:  TagSSN,
		re:   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		mask: func(string) string { return "***-**-****" },
	},
	{
		tag:  TagEmail,
		re:   regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		mask: maskEmail,
	},
	{
		tag:  TagPhone,
		re:   regexp.MustCompile(`\+\d{1,3}(?:[- .]?\d){8,}\b`),
		mask: maskPhone,
	},
}

// RedactString applies every stage-1 pattern to s in table order, replacing
// each accepted match with its mask. It never fails: patterns are bounded,
// linear-time regexes.
func RedactString(s string) (string, *Summary) {
	sum := NewSummary()
	for _, p := range patternTable {
		replaced := 0
		s = p.re.ReplaceAllStringFunc(s, func(match string) string {
			masked := p.mask(match)
			if masked != match {
				replaced++
			}
			return masked
		})
		sum.Record(p.tag, replaced)
	}
	return s, sum
}

// maskCreditCard accepts only 16-digit, Luhn-valid card numbers. The mask
// keeps the original group separator ("-" over space over none) and the
// last four digits.
func maskCreditCard(match string) string {
	digits := stripNonDigits(match)
	if len(digits) != 16 || !luhnValid(digits) {
		return match
	}
	sep := ""
	switch {
	case strings.Contains(match, "-"):
		sep = "-"
	case strings.Contains(match, " "):
		sep = " "
	}
	return "****" + sep + "****" + sep + "****" + sep + digits[12:]
}

// maskIBAN keeps the first and last four characters. Matches shorter than
// 15 characters are left untouched: too short to be a real IBAN.
func maskIBAN(match string) string {
	if len(match) < 15 {
		return match
	}
	return match[:4] + "****" + match[len(match)-4:]
}

// maskEmail keeps the first character of the local part and the full domain.
func maskEmail(match string) string {
	at := strings.IndexByte(match, '@')
	if at <= 0 {
		return match
	}
	return match[:1] + "***@" + match[at+1:]
}

// maskPhone keeps the first two and last two digits. Fewer than eight
// digits total is left untouched.
func maskPhone(match string) string {
	digits := stripNonDigits(match)
	if len(digits) < 8 {
		return match
	}
	return "+" + digits[:2] + "***" + digits[len(digits)-2:]
}

// luhnValid runs the standard mod-10 checksum over a digit string.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
