package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/pluginmanager/internal/catalog"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/pluginid"
)

// ErrNotFound is returned for lookups of plugins that are not in the snapshot.
var ErrNotFound = errors.New("plugin not found")

// DuplicatePluginError reports a second definition for an identity that was
// already taken earlier in the pass.
type DuplicatePluginError struct {
	ID       pluginid.Identity
	Existing string
	Rejected string
}

func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("plugin %s from %s ignored: already defined by %s", e.ID, e.Rejected, e.Existing)
}

// Snapshot is an immutable set of finished plugin definitions.
type Snapshot struct {
	catalog *catalog.Catalog
	plugins map[pluginid.Identity]*plugin.Final
	byType  map[pluginid.TypeKey][]*plugin.Final
	all     []*plugin.Final
}

// Catalog returns the frozen catalog the snapshot was built against.
func (s *Snapshot) Catalog() *catalog.Catalog { return s.catalog }

// Len returns the number of plugins.
func (s *Snapshot) Len() int { return len(s.all) }

// Lookup returns the plugin with the given identity.
func (s *Snapshot) Lookup(id pluginid.Identity) (*plugin.Final, error) {
	f, ok := s.plugins[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return f, nil
}

// Get is Lookup by separate owner, type and name.
func (s *Snapshot) Get(owner, pluginType, name string) (*plugin.Final, error) {
	return s.Lookup(pluginid.New(owner, pluginType, name))
}

// Plugins returns the plugins of one type, sorted by name. An unknown type
// yields an empty result.
func (s *Snapshot) Plugins(key pluginid.TypeKey) []*plugin.Final {
	return append([]*plugin.Final(nil), s.byType[key]...)
}

// All returns every plugin sorted by identity.
func (s *Snapshot) All() []*plugin.Final {
	return append([]*plugin.Final(nil), s.all...)
}

type typeJSON struct {
	Options map[string]any           `json:"options"`
	Plugins map[string]*plugin.Final `json:"plugins"`
}

// MarshalJSON encodes the snapshot as an object keyed by `owner:type`. Keys
// at every level are sorted, so equal snapshots encode to identical bytes.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]typeJSON)
	for _, pt := range s.catalog.Types() {
		opts := make(map[string]any)
		for k, v := range pt.Options() {
			gv, err := ctyconv.ToGo(v)
			if err != nil {
				return nil, fmt.Errorf("type %s option %q: %w", pt.Key(), k, err)
			}
			opts[k] = gv
		}
		plugins := make(map[string]*plugin.Final)
		for _, f := range s.byType[pt.Key()] {
			plugins[f.Name()] = f
		}
		out[pt.Key().String()] = typeJSON{Options: opts, Plugins: plugins}
	}
	return json.Marshal(out)
}

// Builder accumulates finished definitions for one pass. It is not safe for
// concurrent use.
type Builder struct {
	catalog *catalog.Catalog
	plugins map[pluginid.Identity]*plugin.Final
}

// NewBuilder starts a snapshot for the given frozen catalog.
func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{
		catalog: cat,
		plugins: make(map[pluginid.Identity]*plugin.Final),
	}
}

// Has reports whether id is already taken.
func (b *Builder) Has(id pluginid.Identity) bool {
	_, ok := b.plugins[id]
	return ok
}

// Add stores f. The first definition of an identity wins.
func (b *Builder) Add(f *plugin.Final) error {
	if existing, ok := b.plugins[f.ID()]; ok {
		return &DuplicatePluginError{ID: f.ID(), Existing: describe(existing), Rejected: describe(f)}
	}
	b.plugins[f.ID()] = f
	return nil
}

func describe(f *plugin.Final) string {
	if src := f.Source(); src != nil && src.FilePath != "" {
		return src.FilePath
	}
	return "an unknown source"
}

// Build freezes the accumulated definitions.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		catalog: b.catalog,
		plugins: make(map[pluginid.Identity]*plugin.Final, len(b.plugins)),
		byType:  make(map[pluginid.TypeKey][]*plugin.Final),
		all:     make([]*plugin.Final, 0, len(b.plugins)),
	}
	for id, f := range b.plugins {
		s.plugins[id] = f
		s.byType[id.TypeKey()] = append(s.byType[id.TypeKey()], f)
		s.all = append(s.all, f)
	}
	for _, list := range s.byType {
		sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	}
	sort.Slice(s.all, func(i, j int) bool { return s.all[i].ID().Less(s.all[j].ID()) })
	return s
}
