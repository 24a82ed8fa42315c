package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/alter"
	"github.com/vk/pluginmanager/internal/catalog"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/metrics"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/vk/pluginmanager/internal/registry"
	"github.com/vk/pluginmanager/internal/snapshot"
	"github.com/zclconf/go-cty/cty"
)

type testModule struct {
	name   string
	root   string
	types  map[string]map[string]any
	locate func(owner, pluginType string) string
	pre    func(*plugin.Definition, *plugin.TypeInfo) error
	post   func(*plugin.Definition, *plugin.TypeInfo) error
}

func (m *testModule) Name() string { return m.name }
func (m *testModule) Root() string { return m.root }

func (m *testModule) DeclarePluginTypes() map[string]map[string]any { return m.types }

func (m *testModule) LocateDirectory(owner, pluginType string) string {
	if m.locate == nil {
		return ""
	}
	return m.locate(owner, pluginType)
}

func (m *testModule) PreAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	if m.pre == nil {
		return nil
	}
	return m.pre(def, info)
}

func (m *testModule) PostAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	if m.post == nil {
		return nil
	}
	return m.post(def, info)
}

func conventional(owner, pluginType string) string { return "plugins/" + pluginType }

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newDiscoverer(t *testing.T, modules ...registry.Module) *Discoverer {
	t.Helper()
	reg, err := registry.New(modules...)
	require.NoError(t, err)
	return New(reg)
}

func intAttr(t *testing.T, f *plugin.Final, attr string) int64 {
	t.Helper()
	v, ok := f.Get(attr)
	require.True(t, ok, "attribute %q missing", attr)
	bf := v.AsBigFloat()
	n, _ := bf.Int64()
	return n
}

func TestDiscover_CoffeemakerExample(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugins/brewer_types/espresso.def": "name = \"espresso\"\nstrength = 9\n",
	})
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Report.Err())

	all := res.Snapshot.All()
	require.Len(t, all, 1)
	assert.Equal(t, "coffeemaker:brewer_types:espresso", all[0].ID().String())
	assert.Equal(t, int64(9), intAttr(t, all[0], "strength"))

	file, _ := all[0].Get(plugin.AttrFile)
	assert.Equal(t, "espresso.def", file.AsString())
	assert.Same(t, res.Snapshot, d.Current())
	assert.Equal(t, uint64(1), res.Generation)
}

func TestDiscover_MissingDirectoryYieldsNothing(t *testing.T) {
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   t.TempDir(),
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Report.Errors)
	assert.Equal(t, 0, res.Snapshot.Len())
	assert.Len(t, res.Locations, 1)
}

func TestDiscover_SameTypeNameFromTwoOwners(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	writeFiles(t, rootA, map[string]string{"plugins/x/one.hcl": "v = 1\n"})
	writeFiles(t, rootB, map[string]string{"plugins/x/one.hcl": "v = 2\n"})

	d := newDiscoverer(t,
		&testModule{name: "alpha", root: rootA, types: map[string]map[string]any{"x": nil}, locate: func(owner, pluginType string) string {
			if owner != "alpha" {
				return ""
			}
			return "plugins/" + pluginType
		}},
		&testModule{name: "beta", root: rootB, types: map[string]map[string]any{"x": {"load_themes": true}}, locate: func(owner, pluginType string) string {
			if owner != "beta" {
				return ""
			}
			return "plugins/" + pluginType
		}},
	)

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Report.Err())

	cat := res.Snapshot.Catalog()
	a, err := cat.Get("alpha", "x")
	require.NoError(t, err)
	b, err := cat.Get("beta", "x")
	require.NoError(t, err)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.False(t, a.LoadThemes())
	assert.True(t, b.LoadThemes())

	fa, err := res.Snapshot.Get("alpha", "x", "one")
	require.NoError(t, err)
	fb, err := res.Snapshot.Get("beta", "x", "one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), intAttr(t, fa, "v"))
	assert.Equal(t, int64(2), intAttr(t, fb, "v"))
}

func TestDiscover_PostAlterOverridesPreAlter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"plugins/brewer_types/espresso.hcl": "strength = 9\n"})

	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
		pre: func(def *plugin.Definition, info *plugin.TypeInfo) error {
			return def.Set("a", 1)
		},
		post: func(def *plugin.Definition, info *plugin.TypeInfo) error {
			return def.Set("a", 2)
		},
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	f, err := res.Snapshot.Get("coffeemaker", "brewer_types", "espresso")
	require.NoError(t, err)
	assert.Equal(t, int64(2), intAttr(t, f, "a"))
}

func TestDiscover_IdentityChangeDropsOnlyThatPlugin(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugins/brewer_types/espresso.hcl":  "strength = 9\n",
		"plugins/brewer_types/lungo.hcl":     "strength = 5\n",
		"plugins/brewer_types/ristretto.hcl": "strength = 11\n",
	})

	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
		pre: func(def *plugin.Definition, info *plugin.TypeInfo) error {
			switch def.Name() {
			case "lungo":
				def.SetValue(plugin.AttrName, cty.StringVal("americano"))
			case "ristretto":
				info.Type = "grinder_types"
			}
			return nil
		},
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Snapshot.Len())
	_, err = res.Snapshot.Get("coffeemaker", "brewer_types", "espresso")
	assert.NoError(t, err)
	_, err = res.Snapshot.Get("coffeemaker", "brewer_types", "lungo")
	assert.True(t, errors.Is(err, snapshot.ErrNotFound))

	assert.Equal(t, 2, res.Report.Count(metrics.KindValidation))
	assert.True(t, errors.Is(res.Report.Err(), alter.ErrIdentityChanged))
}

func TestDiscover_InvalidTypeDeclarationIsFatal(t *testing.T) {
	d := newDiscoverer(t, &testModule{
		name:  "coffeemaker",
		root:  t.TempDir(),
		types: map[string]map[string]any{"brewer_types": nil, "bad name": nil},
	})

	_, err := d.Discover(context.Background())
	require.Error(t, err)
	assert.Nil(t, d.Current())
}

type panickingDeclarer struct{ testModule }

func (panickingDeclarer) DeclarePluginTypes() map[string]map[string]any { panic("boom") }

func TestBuildCatalog_RecoversPanickingDeclarer(t *testing.T) {
	reg, err := registry.New(&panickingDeclarer{testModule{name: "coffeemaker", root: "/c"}})
	require.NoError(t, err)

	_, err = BuildCatalog(context.Background(), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBuildCatalog_DeclarationOrder(t *testing.T) {
	reg, err := registry.New(
		&testModule{name: "zeta", root: "/z", types: map[string]map[string]any{"b": nil, "a": nil}},
		&testModule{name: "alpha", root: "/a", types: map[string]map[string]any{"c": nil}},
	)
	require.NoError(t, err)

	cat, err := BuildCatalog(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, cat.Frozen())

	var keys []string
	for _, pt := range cat.Types() {
		keys = append(keys, pt.Key().String())
	}
	assert.Equal(t, []string{"zeta:a", "zeta:b", "alpha:c"}, keys)

	_, err = cat.Register("late", "x", nil)
	assert.True(t, errors.Is(err, catalog.ErrFrozen))
}

func TestDiscover_DuplicateIdentityFirstProviderWins(t *testing.T) {
	ownerRoot, otherRoot := t.TempDir(), t.TempDir()
	writeFiles(t, ownerRoot, map[string]string{"plugins/brewer_types/espresso.hcl": "strength = 9\n"})
	writeFiles(t, otherRoot, map[string]string{"extra/espresso.hcl": "strength = 1\n"})

	d := newDiscoverer(t,
		&testModule{name: "coffeemaker", root: ownerRoot, types: map[string]map[string]any{"brewer_types": nil}, locate: conventional},
		&testModule{name: "barista", root: otherRoot, locate: func(owner, pluginType string) string { return "extra" }},
	)

	res, err := d.Discover(context.Background())
	require.NoError(t, err)

	f, err := res.Snapshot.Get("coffeemaker", "brewer_types", "espresso")
	require.NoError(t, err)
	assert.Equal(t, int64(9), intAttr(t, f, "strength"))
	module, _ := f.Get(plugin.AttrModule)
	assert.Equal(t, "coffeemaker", module.AsString())

	var dupErr *snapshot.DuplicatePluginError
	require.True(t, errors.As(res.Report.Err(), &dupErr))
	assert.Equal(t, pluginid.New("coffeemaker", "brewer_types", "espresso"), dupErr.ID)
}

func TestDiscover_BadFilesAreReportedAndSkipped(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugins/brewer_types/broken.hcl":   "strength = \n",
		"plugins/brewer_types/bad name.hcl": "strength = 1\n",
		"plugins/brewer_types/espresso.hcl": "strength = 9\n",
		"plugins/brewer_types/notes.txt":    "not a definition",
	})
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Snapshot.Len())
	assert.Equal(t, 3, res.Report.Files)
	assert.Equal(t, 1, res.Report.Count(metrics.KindParse))
	assert.Equal(t, 1, res.Report.Count(metrics.KindDefinition))
}

func TestDiscover_DefaultsFromTypeOptions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugins/brewer_types/espresso.hcl": "strength = 9\n",
		"plugins/brewer_types/lungo.hcl":    "strength = 5\ncup = \"large\"\n",
	})
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": {"defaults": map[string]any{"cup": "small", "strength": 1}}},
		locate: conventional,
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)

	espresso, err := res.Snapshot.Get("coffeemaker", "brewer_types", "espresso")
	require.NoError(t, err)
	cup, _ := espresso.Get("cup")
	assert.Equal(t, "small", cup.AsString())
	assert.Equal(t, int64(9), intAttr(t, espresso, "strength"))

	lungo, err := res.Snapshot.Get("coffeemaker", "brewer_types", "lungo")
	require.NoError(t, err)
	cup, _ = lungo.Get("cup")
	assert.Equal(t, "large", cup.AsString())
}

func TestDiscover_CancelledPassPublishesNothing(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"plugins/brewer_types/espresso.hcl": "strength = 9\n"})

	m := metrics.New(nil)
	reg, err := registry.New(&testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})
	require.NoError(t, err)
	d := New(reg, WithMetrics(m))

	first, err := d.Discover(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Discover(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Same(t, first.Snapshot, d.Current())
	assert.Equal(t, uint64(1), d.Store().Generation())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PassesTotal.WithLabelValues("cancelled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PluginsTotal.WithLabelValues("coffeemaker", "brewer_types")))
}

func TestDiscover_UnreadableDirectoryIsReported(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"plugins/brewer_types": "a file, not a directory"})
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})

	res, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Snapshot.Len())
	assert.Equal(t, 1, res.Report.Count(metrics.KindLocator))
}

func TestDiscover_CancelledDuringLastCallbackPublishesNothing(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"plugins/brewer_types/espresso.hcl": "strength = 9\n"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
		post: func(*plugin.Definition, *plugin.TypeInfo) error {
			cancel()
			return nil
		},
	})

	res, err := d.Discover(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, res)
	assert.Nil(t, d.Current())
	assert.Equal(t, uint64(0), d.Store().Generation())
}

func TestDiscover_NonFiniteNumbersAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"plugins/brewer_types/espresso.hcl": "strength = 9\n",
		"plugins/brewer_types/nan.yaml":     "strength: .nan\n",
		"plugins/brewer_types/inf.yaml":     "weight: .inf\n",
		"plugins/brewer_types/big.hcl":      "weight = 1e400\n",
	})
	d := newDiscoverer(t, &testModule{
		name:   "coffeemaker",
		root:   root,
		types:  map[string]map[string]any{"brewer_types": nil},
		locate: conventional,
	})

	var res *Result
	var err error
	require.NotPanics(t, func() {
		res, err = d.Discover(context.Background())
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Snapshot.Len())
	assert.Equal(t, 3, res.Report.Count(metrics.KindParse))
	assert.ErrorIs(t, res.Report.Err(), ctyconv.ErrNotFinite)

	_, err = json.Marshal(res.Snapshot)
	require.NoError(t, err)
}
