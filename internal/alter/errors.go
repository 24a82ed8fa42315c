package alter

import (
	"errors"
	"fmt"

	"github.com/vk/pluginmanager/internal/pluginid"
)

// ErrIdentityChanged is matched by every *ValidationError.
var ErrIdentityChanged = errors.New("identity changed during alteration")

// Phase names a step of the pipeline.
type Phase string

const (
	PhasePreAlter  Phase = "pre_alter"
	PhaseNormalize Phase = "normalize"
	PhasePostAlter Phase = "post_alter"
)

// ValidationError reports a callback that tried to change a definition's
// identity.
type ValidationError struct {
	ID     pluginid.Identity
	Phase  Phase
	Module string
	// Field is the identity attribute or type info field that changed.
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plugin %s: %s callback of module %q changed %q", e.ID, e.Phase, e.Module, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrIdentityChanged }

// CallbackError reports a callback that failed or panicked.
type CallbackError struct {
	ID     pluginid.Identity
	Phase  Phase
	Module string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("plugin %s: %s callback of module %q failed: %v", e.ID, e.Phase, e.Module, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
