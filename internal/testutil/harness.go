package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pluginmanager/internal/app"
	"github.com/vk/pluginmanager/internal/discovery"
	"github.com/vk/pluginmanager/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Root      string
	LogOutput string
	Err       error
	App       *app.App
	Result    *discovery.Result
}

// WriteFiles writes files, keyed by slash-separated paths relative to root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunDiscoveryTest writes files into a fresh root, builds an App over the
// modules returned by newModules and runs one discovery pass. A manifest
// written to "manifest.hcl" is picked up automatically.
func RunDiscoveryTest(t *testing.T, files map[string]string, newModules func(root string) []registry.Module) *HarnessResult {
	t.Helper()
	return RunDiscoveryTestWithContext(context.Background(), t, files, newModules)
}

// RunDiscoveryTestWithContext is RunDiscoveryTest with a caller-provided
// context.
func RunDiscoveryTestWithContext(ctx context.Context, t *testing.T, files map[string]string, newModules func(root string) []registry.Module) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	WriteFiles(t, root, files)

	cfg := &app.Config{
		ModulesPath: root,
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	if _, ok := files["manifest.hcl"]; ok {
		cfg.ManifestPath = filepath.Join(root, "manifest.hcl")
	}

	var modules []registry.Module
	if newModules != nil {
		modules = newModules(root)
	}

	logBuffer := &SafeBuffer{}
	res := &HarnessResult{Root: root}
	testApp, err := app.NewApp(ctx, logBuffer, cfg, modules...)
	if err != nil {
		res.Err = err
	} else {
		res.App = testApp
		res.Result, res.Err = testApp.Discover(ctx)
	}

	res.LogOutput = logBuffer.String()
	if os.Getenv("PLUGINMANAGER_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
	}
	return res
}
