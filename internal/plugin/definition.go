// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package plugin

import (
	"fmt"
	"maps"

	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

// Reserved attribute names that mirror the identity triple.
const (
	AttrOwner = "owner"
	AttrType  = "type"
	AttrName  = "name"
)

// Provenance attributes recorded during normalization.
const (
	AttrModule = "module"
	AttrPath   = "path"
	AttrFile   = "file"
)

// IsReserved reports whether attr mirrors the identity triple.
func IsReserved(attr string) bool {
	return attr == AttrOwner || attr == AttrType || attr == AttrName
}

// Definition is a plugin definition that is still being built. It is not safe
// for concurrent use; a discovery pass owns it exclusively.
type Definition struct {
	id     pluginid.Identity
	attrs  map[string]cty.Value
	source *FSInfo
}

// NewDefinition creates a definition with the given identity and attributes.
// Reserved attributes present in attrs must agree with id.
func NewDefinition(id pluginid.Identity, attrs map[string]cty.Value, source *FSInfo) (*Definition, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	d := &Definition{
		id:     id,
		attrs:  make(map[string]cty.Value, len(attrs)+3),
		source: source,
	}
	for k, v := range attrs {
		d.attrs[k] = v
	}

	for attr, want := range d.identityAttrs() {
		got, ok := d.attrs[attr]
		if !ok || got.IsNull() {
			d.attrs[attr] = want
			continue
		}
		if !got.RawEquals(want) {
			return nil, fmt.Errorf("definition %s declares %s = %s, which conflicts with its location", id, attr, got.GoString())
		}
	}
	return d, nil
}

func (d *Definition) identityAttrs() map[string]cty.Value {
	return map[string]cty.Value{
		AttrOwner: cty.StringVal(d.id.Owner),
		AttrType:  cty.StringVal(d.id.Type),
		AttrName:  cty.StringVal(d.id.Name),
	}
}

// ID returns the identity the definition was created with.
func (d *Definition) ID() pluginid.Identity { return d.id }

// Name returns the plugin name.
func (d *Definition) Name() string { return d.id.Name }

// Source returns where the definition was loaded from, if known.
func (d *Definition) Source() *FSInfo { return d.source }

// Get returns the named attribute.
func (d *Definition) Get(attr string) (cty.Value, bool) {
	v, ok := d.attrs[attr]
	return v, ok
}

// Has reports whether the named attribute is set.
func (d *Definition) Has(attr string) bool {
	_, ok := d.attrs[attr]
	return ok
}

// Set converts v with ctyconv.FromGo and stores it under attr.
func (d *Definition) Set(attr string, v any) error {
	cv, err := ctyconv.FromGo(v)
	if err != nil {
		return fmt.Errorf("set %q on %s: %w", attr, d.id, err)
	}
	d.attrs[attr] = cv
	return nil
}

// SetValue stores a cty value under attr.
func (d *Definition) SetValue(attr string, v cty.Value) {
	d.attrs[attr] = v
}

// Delete removes attr.
func (d *Definition) Delete(attr string) {
	delete(d.attrs, attr)
}

// Keys returns the attribute names in lexicographic order.
func (d *Definition) Keys() []string {
	return ctyconv.SortedKeys(d.attrs)
}

// Attributes returns a copy of the current attributes.
func (d *Definition) Attributes() map[string]cty.Value {
	return maps.Clone(d.attrs)
}

// IdentityIntact reports whether the reserved attributes still match the
// identity. It names the first offending attribute otherwise.
func (d *Definition) IdentityIntact() (string, bool) {
	for _, attr := range []string{AttrOwner, AttrType, AttrName} {
		got, ok := d.attrs[attr]
		if !ok || !ctyconv.Equal(got, d.identityAttrs()[attr]) {
			return attr, false
		}
	}
	return "", true
}

// Finalize freezes the definition into a Final.
func (d *Definition) Finalize() *Final {
	return &Final{
		id:     d.id,
		attrs:  maps.Clone(d.attrs),
		source: d.source,
	}
}
