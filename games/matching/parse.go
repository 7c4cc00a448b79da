/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matching

import (
	"regexp"
	"strings"
)

// separators matches " — ", " - ", ": " and ", ". A dash or colon only counts
// when followed by whitespace, so "hard-working" stays a single term.
var separators = regexp.MustCompile(`\s*[—:-]\s+|,\s+`)

// Pair is one term and its definition.
type Pair struct {
	Term string `json:"term"`
	Def  string `json:"def"`
}

// ParsePairs reads one pair per line. Lines without a separator, or with an
// empty term or definition, are skipped.
func ParsePairs(text string) []Pair {
	var out []Pair

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := separators.Split(line, -1)
		if len(parts) < 2 {
			continue
		}

		term := strings.TrimSpace(parts[0])
		def := strings.TrimSpace(strings.Join(parts[1:], " "))
		if term == "" || def == "" {
			continue
		}

		out = append(out, Pair{Term: term, Def: def})
	}

	return out
}
