// Package storage defines the persisted shape of a navigation store and the
// in-process locking used by file-backed stores.
package storage

import (
	"time"

	"github.com/arthur-debert/navtree/types"
)

// CurrentVersion is written into every saved document
const CurrentVersion = "1.0"

// StoreData is the complete dataset held by a file-backed store
type StoreData struct {
	Trees    []types.Tree    `json:"trees"`
	NavTypes []types.NavType `json:"nav_types"`
	Nodes    []types.Node    `json:"nodes"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata contains storage metadata
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStoreData returns an empty dataset stamped with now
func NewStoreData(now time.Time) *StoreData {
	return &StoreData{
		Trees:    []types.Tree{},
		NavTypes: []types.NavType{},
		Nodes:    []types.Node{},
		Metadata: Metadata{
			Version:   CurrentVersion,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Clone returns a deep copy. Transactions work on a clone so a failed
// command never leaves a partial change visible.
func (d *StoreData) Clone() *StoreData {
	out := &StoreData{
		Trees:    make([]types.Tree, len(d.Trees)),
		NavTypes: make([]types.NavType, len(d.NavTypes)),
		Nodes:    make([]types.Node, len(d.Nodes)),
		Metadata: d.Metadata,
	}
	for i, t := range d.Trees {
		if t.Types != nil {
			t.Types = append([]string(nil), t.Types...)
		}
		out.Trees[i] = t
	}
	copy(out.NavTypes, d.NavTypes)
	copy(out.Nodes, d.Nodes)
	return out
}
