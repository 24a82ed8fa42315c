package pluginid

// Separator joins the segments of a canonical identifier.
const Separator = ":"

// TypeKey is the compound key of a plugin type within the catalog.
type TypeKey struct {
	Owner string
	Type  string
}

// NewTypeKey creates a type key for the given owner module and type name.
func NewTypeKey(owner, pluginType string) TypeKey {
	return TypeKey{Owner: owner, Type: pluginType}
}

// Identity is the immutable identity triple of a single plugin.
type Identity struct {
	Owner string
	Type  string
	Name  string
}

// New creates a plugin identity.
func New(owner, pluginType, name string) Identity {
	return Identity{Owner: owner, Type: pluginType, Name: name}
}

// TypeKey returns the key of the plugin type this identity belongs to.
func (id Identity) TypeKey() TypeKey {
	return TypeKey{Owner: id.Owner, Type: id.Type}
}

// Plugin returns the identity of the named plugin of this type.
func (k TypeKey) Plugin(name string) Identity {
	return Identity{Owner: k.Owner, Type: k.Type, Name: name}
}
