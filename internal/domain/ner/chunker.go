package ner

import (
	"strings"
	"unicode/utf8"
)

// MaxChunkBytes is the largest UTF-8 payload sent to the provider in a
// single detect call. Probe calls use the same bound.
const MaxChunkBytes = 4500

// SplitChunks splits text into chunks of at most MaxChunkBytes bytes.
// Splits happen on newline boundaries whenever the lines allow it; a single
// line longer than the bound is cut at the largest rune-safe position.
// Chunks are rejoined with "\n" after redaction, so line structure inside a
// chunk is preserved exactly.
func SplitChunks(text string) []string {
	if len(text) <= MaxChunkBytes {
		return []string{text}
	}

	var (
		chunks   []string
		cur      strings.Builder
		curLines int
	)
	flush := func() {
		chunks = append(chunks, cur.String())
		cur.Reset()
		curLines = 0
	}

	for _, line := range strings.Split(text, "\n") {
		didCut := false
		for len(line) > MaxChunkBytes {
			if curLines > 0 {
				flush()
			}
			cut := runeSafeCut(line, MaxChunkBytes)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
			didCut = true
		}
		if didCut && line == "" {
			// The line was consumed whole by the cuts; an empty
			// remainder chunk would double the join separator.
			continue
		}

		need := len(line)
		if curLines > 0 {
			need++ // the joining newline
		}
		if curLines > 0 && cur.Len()+need > MaxChunkBytes {
			flush()
		}
		if curLines > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curLines++
	}
	if curLines > 0 {
		flush()
	}
	return chunks
}

// ProbePrefix returns the rune-safe prefix of text that fits the provider
// bound, for the cheap contains-PII pre-filter.
func ProbePrefix(text string) string {
	if len(text) <= MaxChunkBytes {
		return text
	}
	return text[:runeSafeCut(text, MaxChunkBytes)]
}

// runeSafeCut returns the largest cut <= max that does not split a rune.
// s must be longer than max.
func runeSafeCut(s string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		// Degenerate input (not valid UTF-8); cut at the bound.
		return max
	}
	return cut
}
