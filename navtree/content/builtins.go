package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the YAML layout of a content file
type CatalogFile struct {
	Articles []*Article `yaml:"articles,omitempty"`
	Links    []*Link    `yaml:"links,omitempty"`
}

// Builtins holds the catalogs of the built-in kinds
type Builtins struct {
	Articles *Catalog
	Links    *Catalog
}

// NewBuiltins creates empty article and link catalogs
func NewBuiltins() *Builtins {
	return &Builtins{
		Articles: NewCatalog(ArticleKind, "article"),
		Links:    NewCatalog(LinkKind, "link"),
	}
}

// Registry returns a registry serving both catalogs
func (b *Builtins) Registry() *Registry {
	r, _ := NewRegistry(b.Articles, b.Links)
	return r
}

// OnDelete registers hook on both catalogs
func (b *Builtins) OnDelete(hook DeleteHook) {
	b.Articles.OnDelete(hook)
	b.Links.OnDelete(hook)
}

// Load reads a YAML catalog file and adds its objects
func (b *Builtins) Load(r io.Reader) error {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	for _, a := range file.Articles {
		if err := a.validate(); err != nil {
			return err
		}
		if err := b.Articles.Put(a); err != nil {
			return err
		}
	}
	for _, l := range file.Links {
		if err := l.validate(); err != nil {
			return err
		}
		if err := b.Links.Put(l); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads a YAML catalog from path
func (b *Builtins) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	return b.Load(bytes.NewReader(raw))
}

// Dump returns the catalogs' contents in file layout
func (b *Builtins) Dump(ctx context.Context) (CatalogFile, error) {
	var file CatalogFile
	articles, err := b.Articles.List(ctx)
	if err != nil {
		return file, err
	}
	for _, obj := range articles {
		if a, ok := obj.(*Article); ok {
			file.Articles = append(file.Articles, a)
		}
	}
	links, err := b.Links.List(ctx)
	if err != nil {
		return file, err
	}
	for _, obj := range links {
		if l, ok := obj.(*Link); ok {
			file.Links = append(file.Links, l)
		}
	}
	return file, nil
}
