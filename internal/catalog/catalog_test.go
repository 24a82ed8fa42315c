package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

func TestRegister_AndGet(t *testing.T) {
	c := New()
	pt, err := c.Register("coffeemaker", "brewer_types", map[string]any{"load_themes": true})
	require.NoError(t, err)

	got, err := c.Get("coffeemaker", "brewer_types")
	require.NoError(t, err)
	assert.Same(t, pt, got)
	assert.True(t, got.LoadThemes())
	assert.Equal(t, "coffeemaker", got.Owner())
	assert.Equal(t, "brewer_types", got.Name())
}

func TestRegister_DuplicateSameOwner(t *testing.T) {
	c := New()
	_, err := c.Register("coffeemaker", "brewer_types", nil)
	require.NoError(t, err)

	_, err = c.Register("coffeemaker", "brewer_types", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateType))

	var dupErr *DuplicateTypeError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, pluginid.NewTypeKey("coffeemaker", "brewer_types"), dupErr.Key)
}

func TestRegister_SameNameDifferentOwners(t *testing.T) {
	c := New()
	a, err := c.Register("ownerA", "x", map[string]any{"label": "a"})
	require.NoError(t, err)
	b, err := c.Register("ownerB", "x", map[string]any{"label": "b"})
	require.NoError(t, err)

	gotA, err := c.Get("ownerA", "x")
	require.NoError(t, err)
	gotB, err := c.Get("ownerB", "x")
	require.NoError(t, err)

	assert.Same(t, a, gotA)
	assert.Same(t, b, gotB)
	assert.NotSame(t, gotA, gotB)
	assert.True(t, gotA.Options()["label"].RawEquals(cty.StringVal("a")))
	assert.True(t, gotB.Options()["label"].RawEquals(cty.StringVal("b")))
}

func TestGet_NotFound(t *testing.T) {
	c := New()
	_, err := c.Register("ownerA", "x", nil)
	require.NoError(t, err)

	_, err = c.Get("ownerB", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegister_InvalidKey(t *testing.T) {
	c := New()
	_, err := c.Register("", "x", nil)
	require.Error(t, err)
	_, err = c.Register("owner", "", nil)
	require.Error(t, err)
	_, err = c.Register("owner", "bad/type", nil)
	require.Error(t, err)
}

func TestRegister_BadOptions(t *testing.T) {
	c := New()
	_, err := c.Register("owner", "x", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestTypes_RegistrationOrder(t *testing.T) {
	c := New()
	for _, k := range []pluginid.TypeKey{
		pluginid.NewTypeKey("z", "b"),
		pluginid.NewTypeKey("a", "c"),
		pluginid.NewTypeKey("m", "a"),
	} {
		_, err := c.Register(k.Owner, k.Type, nil)
		require.NoError(t, err)
	}

	var keys []string
	for _, pt := range c.Types() {
		keys = append(keys, pt.Key().String())
	}
	assert.Equal(t, []string{"z:b", "a:c", "m:a"}, keys)
}

func TestFreeze(t *testing.T) {
	c := New()
	_, err := c.Register("owner", "x", nil)
	require.NoError(t, err)

	c.Freeze()
	assert.True(t, c.Frozen())

	_, err = c.Register("owner", "y", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrozen))

	_, err = c.Get("owner", "x")
	require.NoError(t, err)
}

func TestPluginType_OptionsAreCopied(t *testing.T) {
	c := New()
	opts := map[string]cty.Value{"label": cty.StringVal("a")}
	pt, err := c.RegisterValues("owner", "x", opts)
	require.NoError(t, err)

	opts["label"] = cty.StringVal("mutated")
	got := pt.Options()
	got["label"] = cty.StringVal("mutated again")

	assert.True(t, pt.Options()["label"].RawEquals(cty.StringVal("a")))
}
