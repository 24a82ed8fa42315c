package locator

import (
	"fmt"

	"github.com/vk/pluginmanager/internal/pluginid"
)

// LocatorError reports a location that could not be resolved or scanned.
type LocatorError struct {
	Provider string
	Key      pluginid.TypeKey
	Path     string
	Err      error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("locate %s in module %q: %s: %v", e.Key, e.Provider, e.Path, e.Err)
}

func (e *LocatorError) Unwrap() error { return e.Err }
