// Package reference parses scripture reference labels like "Luke 2:1-20".
package reference

import (
	"regexp"
	"strings"

	"github.com/dtnitsch/verse-scraper/models"
)

// book name (greedy, up to the last space before chapter:verse), chapter, from, optional to.
// The separator may be a no-break space.
var pattern = regexp.MustCompile(`^(.*)[\s\p{Z}](\d+):(\d+)(?:-(\d+))?$`)

// Parse parses "<book> <chapter>:<from>[-<to>]". It reports false when the label
// does not have that shape.
func Parse(label string) (models.Reference, bool) {
	m := pattern.FindStringSubmatch(label)
	if m == nil {
		return models.Reference{}, false
	}
	return models.Reference{
		Book:    strings.TrimSpace(m[1]),
		Chapter: m[2],
		From:    m[3],
		To:      m[4],
	}, true
}

// ParseAll parses every label in order. Labels that do not parse are returned
// separately so callers can report them.
func ParseAll(labels []string) (refs []models.Reference, rejected []string) {
	for _, label := range labels {
		if ref, ok := Parse(label); ok {
			refs = append(refs, ref)
		} else {
			rejected = append(rejected, label)
		}
	}
	return refs, rejected
}
