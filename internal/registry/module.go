package registry

import "github.com/vk/pluginmanager/internal/plugin"

// Module is the interface that every participating module must implement.
type Module interface {
	// Name is the module's system name. It is the owner of any plugin type
	// the module declares.
	Name() string
	// Root is the module's root directory. Located plugin paths are relative
	// to it.
	Root() string
}

// TypeDeclarer is implemented by modules that own plugin types. The returned
// map is keyed by type name; each value holds the type's options, for
// example {"load_themes": true}.
type TypeDeclarer interface {
	DeclarePluginTypes() map[string]map[string]any
}

// DirectoryLocator is implemented by modules that ship plugin files. It is
// called once per (owner, type) pair known to the catalog and returns a path
// relative to Root without leading or trailing slashes, conventionally
// "plugins/<type>". An empty string means the module has no plugins for the
// pair. Returning a path that does not exist is allowed and yields no plugins.
type DirectoryLocator interface {
	LocateDirectory(owner, pluginType string) string
}

// PreAlterer is implemented by modules that adjust definitions before
// normalization. The callback must check info.Type itself and leave the
// identity attributes untouched.
type PreAlterer interface {
	PreAlter(def *plugin.Definition, info *plugin.TypeInfo) error
}

// PostAlterer is implemented by modules that override final values after
// normalization.
type PostAlterer interface {
	PostAlter(def *plugin.Definition, info *plugin.TypeInfo) error
}
