package compress

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearsPattern  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*y(?:(?:ea)?rs?)?\b`)
	monthsPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*m(?:onths?|os?)?\b`)
)

// ParseExperienceYears converts raw duration text into years rounded to one
// decimal. Accepted forms are "<n>Y <m>M" (any casing, either part
// optional) and bare numbers. The secondary field is used when the primary
// is blank or parses to zero.
func ParseExperienceYears(primary, secondary string) float64 {
	if years := parseDuration(primary); years > 0 {
		return years
	}
	return parseDuration(secondary)
}

func parseDuration(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	// Bare numeric means years
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return round1(v)
	}

	var years float64
	if m := yearsPattern.FindStringSubmatch(raw); m != nil {
		years, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := monthsPattern.FindStringSubmatch(raw); m != nil {
		months, _ := strconv.ParseFloat(m[1], 64)
		years += months / 12
	}
	return round1(years)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
