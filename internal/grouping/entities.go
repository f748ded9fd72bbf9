// Package grouping clusters semantically-equivalent market listings from
// different venues into groups, combining a lexical shortlist, embedding
// nearest-neighbor intersection, and explicit human overrides, and computes
// the liquidity-weighted consensus per group.
package grouping

import (
	"regexp"
	"strings"
)

// Curated high-signal entities plus a generic uppercase ticker pattern.
// Extraction is only ever used as a cheap negative filter: two titles that
// both name entities with zero overlap cannot be the same event. It is never
// a positive signal on its own.
var (
	entityRe = regexp.MustCompile(`(?i)\b(donald trump|joe biden|trump|biden|harris|btc|eth)\b`)
	tickerRe = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
)

// ExtractEntities pulls lower-cased entity and ticker tokens out of free
// text. Pure function, no external calls.
func ExtractEntities(text string) map[string]struct{} {
	ents := make(map[string]struct{})
	for _, m := range entityRe.FindAllString(text, -1) {
		ents[strings.ToLower(m)] = struct{}{}
	}
	for _, m := range tickerRe.FindAllString(text, -1) {
		ents[strings.ToLower(m)] = struct{}{}
	}
	return ents
}

func entitiesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
