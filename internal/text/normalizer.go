// Package text normalizes free-form expense descriptions for the ML pipeline.
package text

import (
	"regexp"
	"strings"
)

// synonym rewrites a whole word to its canonical domain term.
type synonym struct {
	re          *regexp.Regexp
	replacement string
}

// The table collapses everyday phrasing into the canonical terms the
// classifier vocabulary is built on. Whole-word matches only.
var synonyms = []synonym{
	{regexp.MustCompile(`\bbus\b`), "transporte_publico"},
	{regexp.MustCompile(`\bmetro\b`), "transporte_publico"},
	{regexp.MustCompile(`\buber\b`), "taxi"},
	{regexp.MustCompile(`\bcabify\b`), "taxi"},
	{regexp.MustCompile(`\btaxi\b`), "taxi"},
	{regexp.MustCompile(`\bcomida\b`), "alimentacion"},
	{regexp.MustCompile(`\bdesayuno\b`), "alimentacion"},
	{regexp.MustCompile(`\balmuerzo\b`), "alimentacion"},
	{regexp.MustCompile(`\bcena\b`), "alimentacion"},
	{regexp.MustCompile(`\brestaurante?\b`), "alimentacion"},
	{regexp.MustCompile(`\bcine\b`), "entretenimiento"},
	{regexp.MustCompile(`\bregalo\b`), "regalo"},
	{regexp.MustCompile(`\bgasolina\b`), "combustible"},
	{regexp.MustCompile(`\bparkings?\b`), "estacionamiento"},
}

var (
	nonWordRE    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Normalize lowercases a description, applies the domain synonym table with
// whole-word substitution, strips punctuation (keeping underscores) and
// collapses whitespace. It is a pure function and idempotent; empty input
// yields an empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	for _, syn := range synonyms {
		s = syn.re.ReplaceAllString(s, syn.replacement)
	}

	s = nonWordRE.ReplaceAllString(s, "")
	s = whitespaceRE.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
