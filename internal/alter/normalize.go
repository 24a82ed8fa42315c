package alter

import (
	"fmt"

	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/zclconf/go-cty/cty"
)

// Normalizer fills in domain defaults between the two alter phases.
type Normalizer interface {
	Normalize(def *plugin.Definition, info *plugin.TypeInfo) error
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(def *plugin.Definition, info *plugin.TypeInfo) error

// Normalize implements Normalizer.
func (f NormalizerFunc) Normalize(def *plugin.Definition, info *plugin.TypeInfo) error {
	return f(def, info)
}

// DefaultNormalizer applies the type's `defaults` option and records
// provenance attributes. Neither overwrites an attribute that is already set.
type DefaultNormalizer struct{}

// Normalize implements Normalizer.
func (DefaultNormalizer) Normalize(def *plugin.Definition, info *plugin.TypeInfo) error {
	if defaults, ok := info.Option(plugin.OptionDefaults); ok {
		if err := applyDefaults(def, defaults); err != nil {
			return err
		}
	}

	if src := def.Source(); src != nil {
		setIfMissing(def, plugin.AttrModule, cty.StringVal(src.Provider))
		setIfMissing(def, plugin.AttrPath, cty.StringVal(src.Dir))
		setIfMissing(def, plugin.AttrFile, cty.StringVal(src.FileName()))
	}
	return nil
}

func applyDefaults(def *plugin.Definition, defaults cty.Value) error {
	ty := defaults.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return fmt.Errorf("type option %q must be an object, got %s", plugin.OptionDefaults, ty.FriendlyName())
	}
	if !defaults.IsWhollyKnown() {
		return fmt.Errorf("type option %q is not known", plugin.OptionDefaults)
	}
	for it := defaults.ElementIterator(); it.Next(); {
		k, v := it.Element()
		attr := k.AsString()
		if plugin.IsReserved(attr) {
			continue
		}
		setIfMissing(def, attr, v)
	}
	return nil
}

func setIfMissing(def *plugin.Definition, attr string, v cty.Value) {
	if !def.Has(attr) {
		def.SetValue(attr, v)
	}
}
