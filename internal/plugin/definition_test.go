package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

func newTestDefinition(t *testing.T, attrs map[string]cty.Value) *Definition {
	t.Helper()
	def, err := NewDefinition(pluginid.New("coffeemaker", "brewer_types", "espresso"), attrs, NewFSInfo("coffeemaker", "/m/plugins/brewer_types", "/m/plugins/brewer_types/espresso.hcl"))
	require.NoError(t, err)
	return def
}

func TestNewDefinition_SeedsIdentityAttributes(t *testing.T) {
	def := newTestDefinition(t, map[string]cty.Value{"strength": cty.NumberIntVal(9)})

	name, ok := def.Get(AttrName)
	require.True(t, ok)
	assert.Equal(t, "espresso", name.AsString())
	owner, _ := def.Get(AttrOwner)
	assert.Equal(t, "coffeemaker", owner.AsString())
	assert.Equal(t, []string{"name", "owner", "strength", "type"}, def.Keys())

	_, intact := def.IdentityIntact()
	assert.True(t, intact)
}

func TestNewDefinition_RejectsConflictingName(t *testing.T) {
	_, err := NewDefinition(
		pluginid.New("coffeemaker", "brewer_types", "espresso"),
		map[string]cty.Value{"name": cty.StringVal("latte")},
		nil,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts with its location")
}

func TestNewDefinition_RejectsInvalidIdentity(t *testing.T) {
	_, err := NewDefinition(pluginid.New("", "brewer_types", "espresso"), nil, nil)
	require.Error(t, err)
}

func TestDefinition_IdentityIntact(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(d *Definition)
		badAttr  string
		expectOK bool
	}{
		{name: "ordinary attribute", mutate: func(d *Definition) { _ = d.Set("strength", 10) }, expectOK: true},
		{name: "renamed", mutate: func(d *Definition) { _ = d.Set(AttrName, "latte") }, badAttr: AttrName},
		{name: "retyped", mutate: func(d *Definition) { _ = d.Set(AttrType, "grinder_types") }, badAttr: AttrType},
		{name: "owner deleted", mutate: func(d *Definition) { d.Delete(AttrOwner) }, badAttr: AttrOwner},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def := newTestDefinition(t, nil)
			tc.mutate(def)
			attr, ok := def.IdentityIntact()
			assert.Equal(t, tc.expectOK, ok)
			assert.Equal(t, tc.badAttr, attr)
		})
	}
}

func TestFinal_IsDetachedFromDefinition(t *testing.T) {
	def := newTestDefinition(t, map[string]cty.Value{"strength": cty.NumberIntVal(9)})
	final := def.Finalize()

	def.SetValue("strength", cty.NumberIntVal(1))
	attrs := final.Attributes()
	attrs["strength"] = cty.NumberIntVal(2)

	v, ok := final.Get("strength")
	require.True(t, ok)
	assert.True(t, v.RawEquals(cty.NumberIntVal(9)))
	assert.Equal(t, "espresso.hcl", final.Source().FileName())
}

func TestFinal_MarshalJSON(t *testing.T) {
	def := newTestDefinition(t, map[string]cty.Value{
		"strength": cty.NumberIntVal(9),
		"notes":    cty.TupleVal([]cty.Value{cty.StringVal("crema")}),
	})

	data, err := json.Marshal(def.Finalize())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"espresso","owner":"coffeemaker","type":"brewer_types","strength":9,"notes":["crema"]}`, string(data))
	assert.Equal(t, `{"name":"espresso","notes":["crema"],"owner":"coffeemaker","strength":9,"type":"brewer_types"}`, string(data))
}

func TestTypeInfo_Options(t *testing.T) {
	info := NewTypeInfo(pluginid.NewTypeKey("plugin", "my_type"), map[string]cty.Value{
		OptionLoadThemes: cty.True,
		"label":          cty.StringVal("x"),
	})

	assert.True(t, info.BoolOption(OptionLoadThemes))
	assert.False(t, info.BoolOption("label"))
	assert.False(t, info.BoolOption("missing"))

	clone := info.Clone()
	clone.Options["label"] = cty.StringVal("y")
	v, _ := info.Option("label")
	assert.Equal(t, "x", v.AsString())
}
