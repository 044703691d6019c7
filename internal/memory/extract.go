package memory

import (
	"regexp"
	"strings"
)

// ExtractedRelation is a relationship candidate mined from fact text.
type ExtractedRelation struct {
	Target string
	Type   string
}

// DefaultExtractedStrength is assigned to edges derived from text rather
// than asserted explicitly.
const DefaultExtractedStrength = 0.6

// target matches a run of capitalized words, allowing Portuguese
// connectives ("da", "de", "dos") inside multi-word names.
const targetPattern = `([A-ZÀ-Ú][\wÀ-ú&.-]*(?:\s+(?:d[aeo]s?\s+)?[A-ZÀ-Ú][\wÀ-ú&.-]*)*)`

var relationPatterns = []struct {
	relType string
	re      *regexp.Regexp
}{
	{"works_at", regexp.MustCompile(`(?:(?i:works (?:at|for)|trabalha (?:n[ao]|para|em)))\s+` + targetPattern)},
	{"lives_in", regexp.MustCompile(`(?:(?i:lives in|mora (?:em|n[ao])|vive em))\s+` + targetPattern)},
	{"married_to", regexp.MustCompile(`(?:(?i:married to|casad[oa] com))\s+` + targetPattern)},
	{"friend_of", regexp.MustCompile(`(?:(?i:friend of|amig[oa] d[aeo]))\s+` + targetPattern)},
	{"owns", regexp.MustCompile(`(?:(?i:owns|don[oa] d[aeo]))\s+` + targetPattern)},
}

// ExtractRelationships scans fact content for relationship phrases in
// Portuguese and English. The subject itself is never a target, and
// duplicate (target, type) pairs collapse to one.
func ExtractRelationships(content, subject string) []ExtractedRelation {
	var out []ExtractedRelation
	seen := map[string]bool{}
	for _, p := range relationPatterns {
		for _, m := range p.re.FindAllStringSubmatch(content, -1) {
			target := strings.Trim(m[1], " .,;:!?")
			if target == "" || strings.EqualFold(target, subject) {
				continue
			}
			key := p.relType + "\x00" + target
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ExtractedRelation{Target: target, Type: p.relType})
		}
	}
	return out
}
