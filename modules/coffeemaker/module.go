// Package coffeemaker is a compiled-in module that owns the brewer and
// grinder plugin types and ships plugins for both.
package coffeemaker

import (
	"math/big"

	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Name is the module's system name and the owner of its plugin types.
const Name = "coffeemaker"

// Plugin types owned by the module.
const (
	BrewerTypes  = "brewer_types"
	GrinderTypes = "grinder_types"
)

// MaxStrength caps the strength attribute of brewer plugins.
const MaxStrength = 10

// Module implements the registry interfaces for this package.
type Module struct {
	root string
}

// New creates the module rooted at root.
func New(root string) *Module {
	return &Module{root: root}
}

var (
	_ registry.TypeDeclarer     = (*Module)(nil)
	_ registry.DirectoryLocator = (*Module)(nil)
	_ registry.PreAlterer       = (*Module)(nil)
	_ registry.PostAlterer      = (*Module)(nil)
)

// Name implements registry.Module.
func (m *Module) Name() string { return Name }

// Root implements registry.Module.
func (m *Module) Root() string { return m.root }

// DeclarePluginTypes implements registry.TypeDeclarer.
func (m *Module) DeclarePluginTypes() map[string]map[string]any {
	return map[string]map[string]any{
		BrewerTypes: {
			plugin.OptionLoadThemes: true,
			plugin.OptionDefaults: map[string]any{
				"cup":      "small",
				"strength": 5,
			},
		},
		GrinderTypes: nil,
	}
}

// LocateDirectory implements registry.DirectoryLocator. Every type the module
// owns lives under plugins/<type>, whether or not it ships any.
func (m *Module) LocateDirectory(owner, pluginType string) string {
	if owner != Name {
		return ""
	}
	return "plugins/" + pluginType
}

// PreAlter implements registry.PreAlterer. Brewers are caffeinated unless
// they say otherwise.
func (m *Module) PreAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	if info.Owner != Name || info.Type != BrewerTypes {
		return nil
	}
	if !def.Has("caffeinated") {
		def.SetValue("caffeinated", cty.True)
	}
	return nil
}

// PostAlter implements registry.PostAlterer. It caps strength after defaults
// have been applied.
func (m *Module) PostAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	if info.Owner != Name || info.Type != BrewerTypes {
		return nil
	}
	v, ok := def.Get("strength")
	if !ok || v.IsNull() || !v.IsKnown() || !v.Type().Equals(cty.Number) {
		return nil
	}
	if v.AsBigFloat().Cmp(big.NewFloat(MaxStrength)) > 0 {
		def.SetValue("strength", cty.NumberIntVal(MaxStrength))
	}
	return nil
}
