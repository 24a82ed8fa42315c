// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package plugin

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

// Final is a finished plugin definition. It is immutable and safe for
// concurrent reads.
type Final struct {
	id     pluginid.Identity
	attrs  map[string]cty.Value
	source *FSInfo
}

// ID returns the identity triple.
func (f *Final) ID() pluginid.Identity { return f.id }

// Name returns the plugin name.
func (f *Final) Name() string { return f.id.Name }

// Source returns where the definition was loaded from, if known.
func (f *Final) Source() *FSInfo {
	if f.source == nil {
		return nil
	}
	src := *f.source
	return &src
}

// Get returns the named attribute.
func (f *Final) Get(attr string) (cty.Value, bool) {
	v, ok := f.attrs[attr]
	return v, ok
}

// Keys returns the attribute names in lexicographic order.
func (f *Final) Keys() []string {
	return ctyconv.SortedKeys(f.attrs)
}

// Attributes returns a copy of the attributes.
func (f *Final) Attributes() map[string]cty.Value {
	return maps.Clone(f.attrs)
}

// GoAttributes returns the attributes converted to plain Go values.
func (f *Final) GoAttributes() (map[string]any, error) {
	out := make(map[string]any, len(f.attrs))
	for _, k := range f.Keys() {
		v, err := ctyconv.ToGo(f.attrs[k])
		if err != nil {
			return nil, fmt.Errorf("plugin %s attribute %q: %w", f.id, k, err)
		}
		out[k] = v
	}
	return out, nil
}

// MarshalJSON encodes the attributes as a JSON object with sorted keys.
func (f *Final) MarshalJSON() ([]byte, error) {
	attrs, err := f.GoAttributes()
	if err != nil {
		return nil, err
	}
	return json.Marshal(attrs)
}
