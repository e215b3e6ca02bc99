// Package registry holds the models loaded at startup in a fixed order.
package registry

import (
	"errors"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ErrUnknownFamily is returned when a loaded model is not a configured family.
var ErrUnknownFamily = errors.New("unknown model family")

// Family names a model and the artifact file it is loaded from.
type Family struct {
	Name string
	File string
}

// Families is the configured set of models, in the order they are served.
var Families = []Family{
	{Name: "Random Forest", File: "test20rf.json"},
	{Name: "CatBoost", File: "test20cb.json"},
	{Name: "XG Boost", File: "test20xgnoscale.json"},
	{Name: "LightGBM", File: "test20lgbm.json"},
	{Name: "Lasso", File: "test20lasso.json"},
}

// Entry is one loaded model. Model is whatever the artifact decoded to and
// may or may not be able to predict.
type Entry struct {
	Name  string
	Model any
}

// Registry is an insertion-ordered, read-only set of entries.
type Registry struct {
	entries *linkedhashmap.Map
}

// Empty returns a registry with no models.
func Empty() *Registry {
	return &Registry{entries: linkedhashmap.New()}
}

// Len returns the number of loaded models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.entries.Size()
}

// Get returns the model loaded under name.
func (r *Registry) Get(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	return r.entries.Get(name)
}

// Names returns the loaded model names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, 0, r.Len())
	for _, e := range r.Entries() {
		out = append(out, e.Name)
	}
	return out
}

// Entries returns the loaded models in registry order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, r.entries.Size())
	it := r.entries.Iterator()
	for it.Next() {
		out = append(out, Entry{Name: it.Key().(string), Model: it.Value()})
	}
	return out
}

// Builder collects entries from concurrent loaders. Build orders them by
// the family list it was created with, regardless of arrival order.
type Builder struct {
	mu       sync.Mutex
	families []Family
	loaded   map[string]any
}

// NewBuilder returns a builder for families.
func NewBuilder(families []Family) *Builder {
	return &Builder{families: families, loaded: make(map[string]any, len(families))}
}

// Add records a loaded model.
func (b *Builder) Add(name string, m any) error {
	known := false
	for _, f := range b.families {
		if f.Name == name {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownFamily
	}
	b.mu.Lock()
	b.loaded[name] = m
	b.mu.Unlock()
	return nil
}

// Build freezes the collected entries into a Registry.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := linkedhashmap.New()
	for _, f := range b.families {
		if v, ok := b.loaded[f.Name]; ok {
			m.Put(f.Name, v)
		}
	}
	return &Registry{entries: m}
}

// FromEntries builds a registry in the order given.
func FromEntries(entries ...Entry) *Registry {
	m := linkedhashmap.New()
	for _, e := range entries {
		m.Put(e.Name, e.Model)
	}
	return &Registry{entries: m}
}
