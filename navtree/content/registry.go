package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/navtree/types"
)

// Registry maps a kind tag to the Source serving it. It is filled at
// startup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry returns a registry holding sources
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source)}
	for _, src := range sources {
		if err := r.Register(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds src under its kind. Registering a kind twice is an error.
func (r *Registry) Register(src Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := src.Kind()
	if _, exists := r.sources[kind]; exists {
		return fmt.Errorf("content kind %q already registered", kind)
	}
	r.sources[kind] = src
	return nil
}

// Source returns the source registered for kind
func (r *Registry) Source(kind string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[kind]
	return src, ok
}

// Kinds returns the registered kinds, sorted
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.sources))
	for k := range r.sources {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Resolve returns the object ref points to. Unknown kinds and missing
// objects are both reported as not found.
func (r *Registry) Resolve(ctx context.Context, ref types.ContentRef) (Object, error) {
	src, ok := r.Source(ref.Kind)
	if !ok {
		return nil, types.NotFound("content type", ref.Kind)
	}
	return src.Get(ctx, ref.ID)
}

func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}
