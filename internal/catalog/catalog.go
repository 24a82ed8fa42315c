package catalog

import (
	"fmt"
	"maps"
	"sync"

	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

// PluginType is a registered plugin type. It is immutable after registration.
type PluginType struct {
	key     pluginid.TypeKey
	options map[string]cty.Value
}

// Key returns the (owner, type) key.
func (t *PluginType) Key() pluginid.TypeKey { return t.key }

// Owner returns the module that declared the type.
func (t *PluginType) Owner() string { return t.key.Owner }

// Name returns the type name.
func (t *PluginType) Name() string { return t.key.Type }

// Options returns a copy of the type options.
func (t *PluginType) Options() map[string]cty.Value { return maps.Clone(t.options) }

// LoadThemes reports whether plugins of this type may carry theme
// implementations.
func (t *PluginType) LoadThemes() bool {
	return t.Info().BoolOption(plugin.OptionLoadThemes)
}

// Info returns a fresh TypeInfo for handing to alter callbacks.
func (t *PluginType) Info() *plugin.TypeInfo {
	return plugin.NewTypeInfo(t.key, t.options)
}

// Catalog stores plugin types in registration order.
type Catalog struct {
	mu     sync.RWMutex
	types  map[pluginid.TypeKey]*PluginType
	order  []pluginid.TypeKey
	frozen bool
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		types: make(map[pluginid.TypeKey]*PluginType),
	}
}

// Register declares a plugin type owned by owner. Options are converted with
// ctyconv.FromGo.
func (c *Catalog) Register(owner, name string, options map[string]any) (*PluginType, error) {
	converted, err := ctyconv.MapFromGo(options)
	if err != nil {
		return nil, fmt.Errorf("plugin type %s:%s options: %w", owner, name, err)
	}
	return c.RegisterValues(owner, name, converted)
}

// RegisterValues is Register for options that are already cty values.
func (c *Catalog) RegisterValues(owner, name string, options map[string]cty.Value) (*PluginType, error) {
	key := pluginid.NewTypeKey(owner, name)
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plugin type: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return nil, fmt.Errorf("register %s: %w", key, ErrFrozen)
	}
	if _, exists := c.types[key]; exists {
		return nil, &DuplicateTypeError{Key: key}
	}

	pt := &PluginType{key: key, options: maps.Clone(options)}
	if pt.options == nil {
		pt.options = make(map[string]cty.Value)
	}
	c.types[key] = pt
	c.order = append(c.order, key)
	return pt, nil
}

// Get returns the type registered by owner under name.
func (c *Catalog) Get(owner, name string) (*PluginType, error) {
	return c.Lookup(pluginid.NewTypeKey(owner, name))
}

// Lookup returns the type registered under key.
func (c *Catalog) Lookup(key pluginid.TypeKey) (*PluginType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pt, ok := c.types[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return pt, nil
}

// Types returns every registered type in registration order.
func (c *Catalog) Types() []*PluginType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*PluginType, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.types[key])
	}
	return out
}

// Len returns the number of registered types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Freeze ends the population phase.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}
