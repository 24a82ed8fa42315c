package pluginid

import "strings"

// String serializes the type key into its canonical `owner:type` form.
func (k TypeKey) String() string {
	return k.Owner + Separator + k.Type
}

// String serializes the identity into its canonical `owner:type:name` form.
func (id Identity) String() string {
	var sb strings.Builder
	sb.Grow(len(id.Owner) + len(id.Type) + len(id.Name) + 2)
	sb.WriteString(id.Owner)
	sb.WriteString(Separator)
	sb.WriteString(id.Type)
	sb.WriteString(Separator)
	sb.WriteString(id.Name)
	return sb.String()
}

// Less orders identities by owner, then type, then name.
func (id Identity) Less(other Identity) bool {
	if id.Owner != other.Owner {
		return id.Owner < other.Owner
	}
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	return id.Name < other.Name
}

// Compare returns -1, 0 or +1 following the ordering of Less.
func Compare(a, b Identity) int {
	switch {
	case a == b:
		return 0
	case a.Less(b):
		return -1
	default:
		return 1
	}
}
