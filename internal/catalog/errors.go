package catalog

import (
	"errors"
	"fmt"

	"github.com/vk/pluginmanager/internal/pluginid"
)

var (
	// ErrNotFound is returned for lookups of types that were never registered.
	ErrNotFound = errors.New("plugin type not found")
	// ErrDuplicateType is returned when an owner registers the same type twice.
	ErrDuplicateType = errors.New("duplicate plugin type")
	// ErrFrozen is returned when registering into a frozen catalog.
	ErrFrozen = errors.New("catalog is frozen")
)

// DuplicateTypeError names the type that was registered twice.
type DuplicateTypeError struct {
	Key pluginid.TypeKey
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("plugin type %q already registered by module %q", e.Key.Type, e.Key.Owner)
}

// Unwrap lets errors.Is match ErrDuplicateType.
func (e *DuplicateTypeError) Unwrap() error { return ErrDuplicateType }
