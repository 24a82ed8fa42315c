package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/pluginmanager/internal/metrics"
	"github.com/vk/pluginmanager/internal/registry"
	"github.com/vk/pluginmanager/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

func coffeemaker(root string) []registry.Module {
	return []registry.Module{&testutil.StubModule{
		ModuleName: "coffeemaker",
		ModuleRoot: root + "/coffeemaker",
		Types:      map[string]map[string]any{"brewer_types": nil},
		Locate:     testutil.Conventional("coffeemaker"),
	}}
}

func TestDefinitionFormats_AllParsersContribute(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"coffeemaker/plugins/brewer_types/espresso.def": "name = \"espresso\"\nstrength = 9\n",
		"coffeemaker/plugins/brewer_types/house.hcl": `
			plugin "americano" {
			  strength = 6
			  label    = format("%s-%d", "americano", 6)
			}
			plugin "cortado" {
			  strength = 7
			  tags     = concat(["milk"], ["small"])
			}
		`,
		"coffeemaker/plugins/brewer_types/nested/mocha.yml": "strength: 5\ntopping: cream\n",
		"coffeemaker/plugins/brewer_types/flat_white.json":  `{"strength": 8}`,
	}

	// --- Act ---
	result := testutil.RunDiscoveryTest(t, files, coffeemaker)

	// --- Assert ---
	for _, name := range []string{"espresso", "americano", "cortado", "mocha", "flat_white"} {
		testutil.AssertPluginPublished(t, result, "coffeemaker", "brewer_types", name)
	}
	assert.Equal(t, 5, result.Result.Snapshot.Len())

	americano := testutil.AssertPluginPublished(t, result, "coffeemaker", "brewer_types", "americano")
	label, _ := americano.Get("label")
	assert.Equal(t, "americano-6", label.AsString())

	cortado := testutil.AssertPluginPublished(t, result, "coffeemaker", "brewer_types", "cortado")
	tags, _ := cortado.Get("tags")
	assert.Equal(t, 2, tags.LengthInt())

	mocha := testutil.AssertPluginPublished(t, result, "coffeemaker", "brewer_types", "mocha")
	file, _ := mocha.Get("file")
	assert.True(t, file.RawEquals(cty.StringVal("mocha.yml")))
}

func TestDefinitionFormats_NameConflictingWithFileIsDropped(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"coffeemaker/plugins/brewer_types/espresso.hcl": "name = \"espresso\"\n",
		"coffeemaker/plugins/brewer_types/wrong.hcl":    "name = \"Not Valid\"\n",
	}

	// --- Act ---
	result := testutil.RunDiscoveryTest(t, files, coffeemaker)

	// --- Assert ---
	testutil.AssertPluginPublished(t, result, "coffeemaker", "brewer_types", "espresso")
	assert.Equal(t, 1, result.Result.Snapshot.Len())
	assert.Equal(t, 1, result.Result.Report.Count(metrics.KindDefinition))
}
