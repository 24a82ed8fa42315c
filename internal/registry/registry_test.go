package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/plugin"
)

type bareModule struct{ name string }

func (m bareModule) Name() string { return m.name }
func (m bareModule) Root() string { return "/modules/" + m.name }

type fullModule struct{ bareModule }

func (fullModule) DeclarePluginTypes() map[string]map[string]any { return nil }
func (fullModule) LocateDirectory(owner, pluginType string) string {
	return "plugins/" + pluginType
}
func (fullModule) PreAlter(*plugin.Definition, *plugin.TypeInfo) error  { return nil }
func (fullModule) PostAlter(*plugin.Definition, *plugin.TypeInfo) error { return nil }

func TestNew_KeepsRegistrationOrder(t *testing.T) {
	r, err := New(bareModule{"b"}, fullModule{bareModule{"a"}}, bareModule{"c"})
	require.NoError(t, err)

	var names []string
	for _, m := range r.Modules() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, 3, r.Len())
}

func TestRegister_Duplicate(t *testing.T) {
	r, err := New(bareModule{"a"})
	require.NoError(t, err)

	err = r.Register(bareModule{"a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateModule))
	assert.Panics(t, func() { r.MustRegister(bareModule{"a"}) })
}

func TestRegister_InvalidName(t *testing.T) {
	_, err := New(bareModule{""})
	require.Error(t, err)
}

func TestModule_LookupByName(t *testing.T) {
	r, err := New(bareModule{"bare"}, fullModule{bareModule{"full"}})
	require.NoError(t, err)

	m, ok := r.Module("bare")
	require.True(t, ok)
	assert.Equal(t, "/modules/bare", m.Root())

	full, ok := r.Module("full")
	require.True(t, ok)
	_, isLocator := full.(DirectoryLocator)
	assert.True(t, isLocator)

	_, ok = r.Module("missing")
	assert.False(t, ok)
}
