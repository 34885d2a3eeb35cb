package navtree

import (
	"context"
	"fmt"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// Config describes a service backed by a store and the built-in catalogs
type Config struct {
	Store store.Config
	// Catalog is an optional YAML file with articles and links
	Catalog string
}

// DefaultNavTypes are installed for the built-in kinds when no row exists
var DefaultNavTypes = []types.NavType{
	{Kind: content.ArticleKind, SearchField: "title", LabelRule: types.LabelUseSearchField},
	{Kind: content.LinkKind, LabelRule: types.LabelUseGetLabel},
}

// Open opens the store, loads the catalog and wires content deletion to
// navigation cleanup. The returned Builtins are the catalogs the service
// resolves content from.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Service, *content.Builtins, error) {
	builtins := content.NewBuiltins()
	if cfg.Catalog != "" {
		if err := builtins.LoadFile(cfg.Catalog); err != nil {
			return nil, nil, err
		}
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	svc := New(st, builtins.Registry(), opts...)
	builtins.OnDelete(svc.ContentDeleteHook())

	if err := svc.EnsureNavTypes(ctx, DefaultNavTypes); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to install nav types: %w", err)
	}
	return svc, builtins, nil
}
