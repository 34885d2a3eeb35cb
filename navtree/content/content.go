// Package content describes the externally-owned objects navigation nodes
// point to. Objects expose a small capability set through optional
// interfaces; sources are looked up by kind in an explicit Registry.
package content

import (
	"context"

	"github.com/arthur-debert/navtree/types"
)

// Viewer is whoever the navigation is rendered for. It replaces any
// ambient "current request" lookup.
type Viewer struct {
	// Site is the site being served; empty matches every site
	Site  string
	Staff bool
}

// Object is the minimum every content object provides
type Object interface {
	ObjectID() string
	// String is the default textual representation
	String() string
}

// AccessChecker decides accessibility for a viewer
type AccessChecker interface {
	IsAccessible(v Viewer) bool
}

// AccessFlag exposes a plain accessibility flag
type AccessFlag interface {
	Accessible() bool
}

// Externaler reports whether the object lives on another site
type Externaler interface {
	IsExternal() bool
}

// Labeler provides a dedicated navigation label
type Labeler interface {
	Label() string
}

// FieldReader exposes named attributes for the search-field label rule
type FieldReader interface {
	Field(name string) (string, bool)
}

// Linker provides the URL navigation links point to
type Linker interface {
	URL() string
}

// Source serves the objects of one kind
type Source interface {
	Kind() string
	VerboseName() string
	Get(ctx context.Context, id string) (Object, error)
	List(ctx context.Context) ([]Object, error)
}

// EmptyLabel is the label of nodes without content
const EmptyLabel = "Node"

// Label derives the navigation label of obj according to nt's rule. Missing
// capabilities fall back to the default string.
func Label(obj Object, nt types.NavType) string {
	if obj == nil {
		return EmptyLabel
	}
	switch nt.LabelRule {
	case types.LabelUseSearchField:
		if fr, ok := obj.(FieldReader); ok {
			if v, ok := fr.Field(nt.SearchField); ok {
				return v
			}
		}
	case types.LabelUseGetLabel:
		if l, ok := obj.(Labeler); ok {
			return l.Label()
		}
	}
	return obj.String()
}

// IsAccessible applies the capability lookup for a single object:
// AccessChecker, then AccessFlag, then true.
func IsAccessible(obj Object, v Viewer) bool {
	switch o := obj.(type) {
	case AccessChecker:
		return o.IsAccessible(v)
	case AccessFlag:
		return o.Accessible()
	default:
		return true
	}
}

// IsExternal reports the object's Externaler capability, false without it
func IsExternal(obj Object) bool {
	if e, ok := obj.(Externaler); ok {
		return e.IsExternal()
	}
	return false
}

// URL returns the object's link target, "" without the Linker capability
func URL(obj Object) string {
	if l, ok := obj.(Linker); ok {
		return l.URL()
	}
	return ""
}

// Matches reports whether term occurs in the text the label rule would
// search, case-insensitively.
func Matches(obj Object, nt types.NavType, term string) bool {
	return containsFold(Label(obj, nt), term)
}
