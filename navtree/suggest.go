package navtree

import (
	"context"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// Suggestion is a candidate for the editor's add command
type Suggestion struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// EmptySuggestion is always offered last so an empty folder node can be added
var EmptySuggestion = Suggestion{
	Label:    content.EmptyLabel,
	Value:    "",
	Category: "Empty node",
	Type:     "",
}

var titleCaser = cases.Title(language.English)

// Suggest lists content objects matching term that are not yet in the
// tree. Kinds come from the tree's types, or every nav type when the tree
// sets none. Objects bound in other trees are still offered.
func (s *Service) Suggest(ctx context.Context, treeID, term string) ([]Suggestion, error) {
	var navTypes []types.NavType
	bound := make(map[types.ContentRef]bool)

	err := s.store.View(ctx, func(tx store.Tx) error {
		tree, err := tx.GetTree(treeID)
		if err != nil {
			return err
		}
		all, err := tx.ListNavTypes()
		if err != nil {
			return err
		}
		for _, nt := range all {
			if len(tree.Types) == 0 || tree.AllowsKind(nt.Kind) {
				navTypes = append(navTypes, nt)
			}
		}
		nodes, err := tx.TreeNodes(treeID)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if n.HasContent() {
				bound[n.Content] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Suggestion
	for _, nt := range navTypes {
		src, ok := s.contents.Source(nt.Kind)
		if !ok {
			s.logger.Warn("nav type without content source", "kind", nt.Kind)
			continue
		}
		objects, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		category := titleCaser.String(src.VerboseName())
		for _, obj := range objects {
			if bound[types.ContentRef{Kind: nt.Kind, ID: obj.ObjectID()}] {
				continue
			}
			if !content.Matches(obj, nt, term) {
				continue
			}
			out = append(out, Suggestion{
				Label:    content.Label(obj, nt),
				Value:    obj.ObjectID(),
				Category: category,
				Type:     nt.Kind,
			})
		}
	}
	return append(out, EmptySuggestion), nil
}
