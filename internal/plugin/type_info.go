// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package plugin

import (
	"maps"

	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

// Well-known type option names.
const (
	OptionLoadThemes = "load_themes"
	OptionDefaults   = "defaults"
)

// TypeInfo describes the plugin type of a definition. Alter callbacks receive
// a private copy; changing Owner or Type is treated as an identity change.
type TypeInfo struct {
	Owner   string
	Type    string
	Options map[string]cty.Value
}

// NewTypeInfo creates a TypeInfo holding a copy of options.
func NewTypeInfo(key pluginid.TypeKey, options map[string]cty.Value) *TypeInfo {
	return &TypeInfo{
		Owner:   key.Owner,
		Type:    key.Type,
		Options: maps.Clone(options),
	}
}

// Key returns the catalog key of the type.
func (i *TypeInfo) Key() pluginid.TypeKey {
	return pluginid.NewTypeKey(i.Owner, i.Type)
}

// Clone returns a deep enough copy for handing to a single callback.
func (i *TypeInfo) Clone() *TypeInfo {
	return NewTypeInfo(i.Key(), i.Options)
}

// Option returns the named option, if set.
func (i *TypeInfo) Option(name string) (cty.Value, bool) {
	v, ok := i.Options[name]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// BoolOption returns the named option as a bool. Missing or non-bool options
// read as false.
func (i *TypeInfo) BoolOption(name string) bool {
	v, ok := i.Option(name)
	if !ok || !v.IsKnown() || v.Type() != cty.Bool {
		return false
	}
	return v.True()
}
