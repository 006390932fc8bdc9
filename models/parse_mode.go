package models

import (
	"fmt"
	"strings"
)

// ExtractMode selects how a chapter page is turned into content items.
type ExtractMode string

const (
	// ExtractModeFlat yields every verse line under the container (verse-text jobs).
	ExtractModeFlat ExtractMode = "flat"
	// ExtractModeTagged walks the container's direct children, tracking inline theme headings.
	ExtractModeTagged ExtractMode = "tagged"
	// ExtractModeLinked is tagged extraction where themes are resolved through linked pages.
	ExtractModeLinked ExtractMode = "linked"
)

// ParseExtractMode validates a mode name from configuration.
func ParseExtractMode(s string) (ExtractMode, error) {
	switch m := ExtractMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ExtractModeFlat, ExtractModeTagged, ExtractModeLinked:
		return m, nil
	default:
		return "", fmt.Errorf("unknown extract mode %q (want flat, tagged or linked)", s)
	}
}

// Tagged reports whether the mode walks direct children of the verse container.
func (m ExtractMode) Tagged() bool {
	return m == ExtractModeTagged || m == ExtractModeLinked
}
