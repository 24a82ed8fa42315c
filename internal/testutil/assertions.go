package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/plugin"
)

// AssertPluginPublished checks that the pass published the plugin and
// returns it.
func AssertPluginPublished(t *testing.T, result *HarnessResult, owner, pluginType, name string) *plugin.Final {
	t.Helper()
	require.NoError(t, result.Err)
	require.NotNil(t, result.Result)

	f, err := result.Result.Snapshot.Get(owner, pluginType, name)
	require.NoError(t, err, "expected plugin %s:%s:%s to be published", owner, pluginType, name)
	return f
}

// AssertPluginAbsent checks that the pass did not publish the plugin.
func AssertPluginAbsent(t *testing.T, result *HarnessResult, owner, pluginType, name string) {
	t.Helper()
	require.NotNil(t, result.Result)

	_, err := result.Result.Snapshot.Get(owner, pluginType, name)
	require.Error(t, err, "expected plugin %s:%s:%s to be absent", owner, pluginType, name)
}

// AssertLogged checks that the captured log output contains substr.
func AssertLogged(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, substr),
		"expected log output to contain %q", substr,
	)
}
