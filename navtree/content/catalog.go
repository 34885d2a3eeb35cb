package content

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/arthur-debert/navtree/types"
)

// DeleteHook runs before an object is removed from a catalog. Returning an
// error aborts the removal.
type DeleteHook func(ctx context.Context, ref types.ContentRef) error

// Catalog is an in-memory Source
type Catalog struct {
	kind        string
	verboseName string

	mu      sync.RWMutex
	objects map[string]Object
	hooks   []DeleteHook
}

// NewCatalog creates an empty catalog for kind
func NewCatalog(kind, verboseName string) *Catalog {
	return &Catalog{
		kind:        kind,
		verboseName: verboseName,
		objects:     make(map[string]Object),
	}
}

func (c *Catalog) Kind() string        { return c.kind }
func (c *Catalog) VerboseName() string { return c.verboseName }

// Get returns the object with the given id
func (c *Catalog) Get(_ context.Context, id string) (Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	obj, ok := c.objects[id]
	if !ok {
		return nil, types.NotFound(c.kind, id)
	}
	return obj, nil
}

// List returns every object sorted by id
func (c *Catalog) List(context.Context) ([]Object, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Object, 0, len(c.objects))
	for _, obj := range c.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectID() < out[j].ObjectID() })
	return out, nil
}

// Len returns the number of objects
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objects)
}

// Put adds or replaces an object
func (c *Catalog) Put(obj Object) error {
	if obj.ObjectID() == "" {
		return fmt.Errorf("%s object without an id", c.kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[obj.ObjectID()] = obj
	return nil
}

// OnDelete registers a hook run before every Delete
func (c *Catalog) OnDelete(hook DeleteHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Delete runs the delete hooks and then removes the object
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.RLock()
	_, ok := c.objects[id]
	hooks := append([]DeleteHook(nil), c.hooks...)
	c.mu.RUnlock()

	if !ok {
		return types.NotFound(c.kind, id)
	}

	ref := types.ContentRef{Kind: c.kind, ID: id}
	for _, hook := range hooks {
		if err := hook(ctx, ref); err != nil {
			return fmt.Errorf("failed to delete %s: %w", ref, err)
		}
	}

	c.mu.Lock()
	delete(c.objects, id)
	c.mu.Unlock()
	return nil
}
