// Package county canonicalizes Irish county names against the fixed reference list.
//
// Canonical names carry a "Co. " prefix. Input with or without the prefix is treated
// as the same county everywhere a county is compared or displayed.
package county

import (
	"strings"
)

const Prefix = "Co. "

var counties = []string{
	"Co. Antrim", "Co. Armagh", "Co. Carlow", "Co. Cavan", "Co. Clare", "Co. Cork",
	"Co. Derry", "Co. Donegal", "Co. Down", "Co. Dublin", "Co. Fermanagh", "Co. Galway",
	"Co. Kerry", "Co. Kildare", "Co. Kilkenny", "Co. Laois", "Co. Leitrim", "Co. Limerick",
	"Co. Longford", "Co. Louth", "Co. Mayo", "Co. Meath", "Co. Monaghan", "Co. Offaly",
	"Co. Roscommon", "Co. Sligo", "Co. Tipperary", "Co. Tyrone", "Co. Waterford",
	"Co. Westmeath", "Co. Wexford", "Co. Wicklow",
}

var index = func() map[string]string {
	m := make(map[string]string, len(counties))
	for _, c := range counties {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// All returns a copy of the reference list in alphabetical order.
func All() []string {
	out := make([]string, len(counties))
	copy(out, counties)
	return out
}

// Display returns the prefixed form of input without checking it against the list.
// Empty input stays empty.
func Display(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if hasPrefix(trimmed) {
		return trimmed
	}
	return Prefix + trimmed
}

// Normalize returns the canonical spelling of input and whether it is a known county.
func Normalize(input string) (string, bool) {
	display := Display(input)
	if display == "" {
		return "", false
	}
	canonical, ok := index[strings.ToLower(display)]
	return canonical, ok
}

// IsValid reports whether input names one of the 32 counties. No fuzzy matching.
func IsValid(input string) bool {
	_, ok := Normalize(input)
	return ok
}

// Equal reports whether two county strings refer to the same county after prefix normalization.
func Equal(a, b string) bool {
	return strings.EqualFold(Display(a), Display(b))
}

func hasPrefix(s string) bool {
	return len(s) >= len(Prefix) && strings.EqualFold(s[:len(Prefix)], Prefix)
}
