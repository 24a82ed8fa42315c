package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/pluginmanager/internal/pluginid"
)

// ErrDuplicateModule is returned when two modules share a name.
var ErrDuplicateModule = errors.New("module already registered")

// Registry holds the participating modules of a single application instance
// in registration order.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// New creates a registry and registers the given modules in order.
func New(modules ...Module) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Module),
	}
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a module.
func (r *Registry) Register(m Module) error {
	name := m.Name()
	if err := pluginid.ValidateSegment("module name", name); err != nil {
		return err
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("module %q: %w", name, ErrDuplicateModule)
	}
	slog.Debug("Registering module.", "module", name, "root", m.Root())
	r.modules = append(r.modules, m)
	r.byName[name] = m
	return nil
}

// MustRegister is Register for compiled-in modules, where a clash is a
// programmer error.
func (r *Registry) MustRegister(m Module) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Module returns the named module.
func (r *Registry) Module(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Modules returns all modules in registration order.
func (r *Registry) Modules() []Module {
	return append([]Module(nil), r.modules...)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.modules) }
