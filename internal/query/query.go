// Package query is the filtering, sorting and aggregation layer behind every
// list view: tasks, budgets, budget transactions and journal entries.
//
// Every function here is pure. Inputs are never mutated, "now" is always a
// parameter, and missing fields fail predicates instead of raising errors.
package query

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrUnknownMode is returned by the Parse* functions for names outside the enum.
var ErrUnknownMode = errors.New("unknown mode")

// parseEnum maps user input onto one of valid. Blank input yields def;
// underscores are accepted in place of dashes.
func parseEnum[T ~string](kind, s string, def T, valid ...T) (T, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	if s == "" {
		return def, nil
	}
	for _, v := range valid {
		if string(v) == s {
			return v, nil
		}
	}
	return def, fmt.Errorf("%w: %s %q", ErrUnknownMode, kind, s)
}

// matchesSearch reports whether any field contains term, ignoring case.
// A blank term matches everything; an empty field never matches a real term.
func matchesSearch(term string, fields ...string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	folder := cases.Fold()
	needle := folder.String(term)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(folder.String(f), needle) {
			return true
		}
	}
	return false
}

// newTextComparer returns a locale-aware string comparison. Collators keep
// internal buffers, so each sort call gets its own.
func newTextComparer() func(a, b string) int {
	c := collate.New(language.Und)
	return c.CompareString
}

// inSet reports whether v is one of set. An empty set selects everything.
func inSet(v string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// percent returns part/whole*100, or 0 when whole is not positive.
func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
