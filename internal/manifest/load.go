package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/fsutil"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/zclconf/go-cty/cty"
)

// Extension marks manifest files when Load is given a directory.
const Extension = ".manifest.hcl"

// Load reads the manifest at path. A directory is searched recursively for
// files ending in Extension, in lexicographic order.
func Load(ctx context.Context, path string) ([]*Module, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, Extension)
		if err != nil {
			return nil, fmt.Errorf("failed to find manifests in %s: %w", path, err)
		}
		if len(files) == 0 {
			logger.Warn("No manifest files found.", "path", path)
		}
	}

	parser := hclparse.NewParser()
	var modules []*Module
	for _, f := range files {
		mods, err := loadFile(parser, f)
		if err != nil {
			return nil, err
		}
		logger.Debug("Manifest loaded.", "file", f, "modules", len(mods))
		modules = append(modules, mods...)
	}
	return modules, nil
}

func loadFile(parser *hclparse.Parser, path string) ([]*Module, error) {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var parsed file
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	baseDir := filepath.Dir(path)
	modules := make([]*Module, 0, len(parsed.Modules))
	for _, block := range parsed.Modules {
		m, err := newModule(block, baseDir)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: module %q: %w", path, block.Name, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func newModule(b *moduleBlock, baseDir string) (*Module, error) {
	if err := pluginid.ValidateSegment("module name", b.Name); err != nil {
		return nil, err
	}

	root := b.Root
	if root == "" {
		root = filepath.Join(baseDir, b.Name)
	} else if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}

	m := &Module{
		name:  b.Name,
		root:  root,
		types: make(map[string]map[string]any),
	}

	for _, pt := range b.PluginTypes {
		if _, dup := m.types[pt.Name]; dup {
			return nil, fmt.Errorf("plugin type %q declared twice", pt.Name)
		}
		opts, err := decodeOptions(pt.Options)
		if err != nil {
			return nil, fmt.Errorf("plugin type %q: %w", pt.Name, err)
		}
		m.types[pt.Name] = opts
	}

	for _, d := range b.Directories {
		// Catch bad references now rather than on every locate call.
		if _, err := evalPath(d.Path, "owner", "type"); err != nil {
			return nil, fmt.Errorf("directory path: %w", err)
		}
		m.dirs = append(m.dirs, directoryRule{owner: d.Owner, types: d.Types, path: d.Path})
	}

	for _, a := range b.Alters {
		rule, err := newAlterRule(a)
		if err != nil {
			return nil, err
		}
		switch a.Phase {
		case PhasePre:
			m.pre = append(m.pre, rule)
		case PhasePost:
			m.post = append(m.post, rule)
		default:
			return nil, fmt.Errorf("alter phase must be %q or %q, got %q", PhasePre, PhasePost, a.Phase)
		}
	}
	return m, nil
}

func decodeOptions(v *cty.Value) (map[string]any, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("options must be an object, got %s", v.Type().FriendlyName())
	}
	goVal, err := ctyconv.ToGo(*v)
	if err != nil {
		return nil, err
	}
	opts, ok := goVal.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("options must be an object")
	}
	return opts, nil
}

func newAlterRule(a *alterBlock) (alterRule, error) {
	rule := alterRule{owner: a.Owner, typ: a.Type, unset: a.Unset}
	if a.Set != nil && !a.Set.IsNull() {
		if !a.Set.Type().IsObjectType() && !a.Set.Type().IsMapType() {
			return alterRule{}, fmt.Errorf("alter set must be an object, got %s", a.Set.Type().FriendlyName())
		}
		rule.set = a.Set.AsValueMap()
	}
	for k := range rule.set {
		if plugin.IsReserved(k) {
			return alterRule{}, fmt.Errorf("alter may not set identity attribute %q", k)
		}
	}
	for _, k := range rule.unset {
		if plugin.IsReserved(k) {
			return alterRule{}, fmt.Errorf("alter may not unset identity attribute %q", k)
		}
	}
	return rule, nil
}
