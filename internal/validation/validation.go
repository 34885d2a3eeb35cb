// Package validation checks user-supplied names, labels and nav type rows
// before they reach the store.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/arthur-debert/navtree/types"
)

const (
	// MaxTreeNameLength bounds Tree.Name
	MaxTreeNameLength = 100
	// MaxLabelLength bounds Node.Label
	MaxLabelLength = 200
)

// TreeName checks a tree name
func TreeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return types.Invalid("tree name cannot be empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxTreeNameLength {
		return types.Invalid("tree name is too long: %d characters (maximum %d)", n, MaxTreeNameLength)
	}
	return nil
}

// Label checks a node label
func Label(label string) error {
	if strings.TrimSpace(label) == "" {
		return types.Invalid("The node name can not be empty")
	}
	if n := utf8.RuneCountInString(label); n > MaxLabelLength {
		return types.Invalid("The node name is too long: %d characters (maximum %d)", n, MaxLabelLength)
	}
	return nil
}

// Kind checks an "app.model" content kind tag
func Kind(kind string) error {
	app, model, ok := strings.Cut(kind, ".")
	if !ok || !IsValidIdentifier(app) || !IsValidIdentifier(model) {
		return types.Invalid("invalid content type %q (expected app.model)", kind)
	}
	return nil
}

// NavType checks a nav type row. The search field is required by the
// search-field rule and must look like an attribute name.
func NavType(nt types.NavType) error {
	if err := Kind(nt.Kind); err != nil {
		return err
	}
	if !nt.LabelRule.Valid() {
		return types.Invalid("nav type %s: unknown label rule %s", nt.Kind, nt.LabelRule)
	}
	if nt.LabelRule == types.LabelUseSearchField && nt.SearchField == "" {
		return types.Invalid("nav type %s: %s requires a search field", nt.Kind, nt.LabelRule)
	}
	if nt.SearchField != "" && !IsValidIdentifier(nt.SearchField) {
		return types.Invalid("nav type %s: search field %q contains invalid characters", nt.Kind, nt.SearchField)
	}
	return nil
}

// TreeTypes checks the allowed kinds of a tree
func TreeTypes(kinds []string) error {
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if err := Kind(k); err != nil {
			return err
		}
		if seen[k] {
			return types.Invalid("duplicate content type %q", k)
		}
		seen[k] = true
	}
	return nil
}

// IsValidIdentifier reports whether s is a lowercase identifier:
// letters, digits and underscores, not starting with a digit.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
