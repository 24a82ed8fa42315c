package pluginid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single identifier segment, e.g. `brewer_types`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// ValidateSegment reports whether s may be used as an owner, type or plugin name.
func ValidateSegment(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !segmentRegex.MatchString(s) {
		return fmt.Errorf("invalid %s format: %q", kind, s)
	}
	if !isValidSegmentName(s) {
		return fmt.Errorf("invalid %s: %q", kind, s)
	}
	return nil
}

// Validate checks every segment of the identity.
func (id Identity) Validate() error {
	if err := ValidateSegment("owner", id.Owner); err != nil {
		return err
	}
	if err := ValidateSegment("type", id.Type); err != nil {
		return err
	}
	return ValidateSegment("name", id.Name)
}

// Validate checks both segments of the type key.
func (k TypeKey) Validate() error {
	if err := ValidateSegment("owner", k.Owner); err != nil {
		return err
	}
	return ValidateSegment("type", k.Type)
}

// Parse creates an Identity by parsing its canonical `owner:type:name` form.
func Parse(rawID string) (Identity, error) {
	if rawID == "" {
		return Identity{}, fmt.Errorf("identifier cannot be empty")
	}

	parts := strings.Split(rawID, Separator)
	if len(parts) != 3 {
		return Identity{}, fmt.Errorf("identifier %q must have exactly three segments, got %d", rawID, len(parts))
	}

	id := New(parts[0], parts[1], parts[2])
	if err := id.Validate(); err != nil {
		return Identity{}, fmt.Errorf("identifier %q: %w", rawID, err)
	}
	return id, nil
}

// ParseTypeKey creates a TypeKey by parsing its canonical `owner:type` form.
func ParseTypeKey(raw string) (TypeKey, error) {
	owner, pluginType, ok := strings.Cut(raw, Separator)
	if !ok || strings.Contains(pluginType, Separator) {
		return TypeKey{}, fmt.Errorf("type key %q must have the form owner:type", raw)
	}

	k := NewTypeKey(owner, pluginType)
	if err := k.Validate(); err != nil {
		return TypeKey{}, fmt.Errorf("type key %q: %w", raw, err)
	}
	return k, nil
}
