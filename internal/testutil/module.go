package testutil

import (
	"sync"

	"github.com/vk/pluginmanager/internal/plugin"
)

// StubModule is a configurable module for tests. It records every alter call
// as "<phase>:<module>:<plugin>".
type StubModule struct {
	ModuleName string
	ModuleRoot string
	Types      map[string]map[string]any
	Locate     func(owner, pluginType string) string
	Pre        func(def *plugin.Definition, info *plugin.TypeInfo) error
	Post       func(def *plugin.Definition, info *plugin.TypeInfo) error

	mu    sync.Mutex
	calls []string
}

// Name implements registry.Module.
func (m *StubModule) Name() string { return m.ModuleName }

// Root implements registry.Module.
func (m *StubModule) Root() string { return m.ModuleRoot }

// DeclarePluginTypes implements registry.TypeDeclarer.
func (m *StubModule) DeclarePluginTypes() map[string]map[string]any { return m.Types }

// LocateDirectory implements registry.DirectoryLocator.
func (m *StubModule) LocateDirectory(owner, pluginType string) string {
	if m.Locate == nil {
		return ""
	}
	return m.Locate(owner, pluginType)
}

// PreAlter implements registry.PreAlterer.
func (m *StubModule) PreAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	m.record("pre", def)
	if m.Pre == nil {
		return nil
	}
	return m.Pre(def, info)
}

// PostAlter implements registry.PostAlterer.
func (m *StubModule) PostAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	m.record("post", def)
	if m.Post == nil {
		return nil
	}
	return m.Post(def, info)
}

// Calls returns the recorded alter calls in order.
func (m *StubModule) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *StubModule) record(phase string, def *plugin.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, phase+":"+m.ModuleName+":"+def.ID().String())
}

// Conventional locates every type owned by owner under plugins/<type>.
func Conventional(owner string) func(string, string) string {
	return func(o, pluginType string) string {
		if o != owner {
			return ""
		}
		return "plugins/" + pluginType
	}
}
