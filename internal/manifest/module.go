package manifest

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Phase names accepted as the label of an alter block.
const (
	PhasePre  = "pre"
	PhasePost = "post"
)

// Module is a module declared in a manifest. It implements every optional
// module interface; parts the manifest leaves out are no-ops.
type Module struct {
	name  string
	root  string
	types map[string]map[string]any
	dirs  []directoryRule
	pre   []alterRule
	post  []alterRule
}

type directoryRule struct {
	owner string
	types []string
	path  hcl.Expression
}

type alterRule struct {
	owner string
	typ   string
	set   map[string]cty.Value
	unset []string
}

// Name implements registry.Module.
func (m *Module) Name() string { return m.name }

// Root implements registry.Module.
func (m *Module) Root() string { return m.root }

// DeclarePluginTypes implements registry.TypeDeclarer.
func (m *Module) DeclarePluginTypes() map[string]map[string]any {
	out := make(map[string]map[string]any, len(m.types))
	for name, opts := range m.types {
		out[name] = opts
	}
	return out
}

// LocateDirectory implements registry.DirectoryLocator. The first directory
// rule that matches the pair decides. A path expression that fails to
// evaluate panics; the locator reports it as a LocatorError.
func (m *Module) LocateDirectory(owner, pluginType string) string {
	for _, rule := range m.dirs {
		if !rule.matches(owner, pluginType) {
			continue
		}
		path, err := evalPath(rule.path, owner, pluginType)
		if err != nil {
			panic(fmt.Sprintf("module %s: %v", m.name, err))
		}
		return path
	}
	return ""
}

// PreAlter implements registry.PreAlterer.
func (m *Module) PreAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	return applyRules(m.pre, def, info)
}

// PostAlter implements registry.PostAlterer.
func (m *Module) PostAlter(def *plugin.Definition, info *plugin.TypeInfo) error {
	return applyRules(m.post, def, info)
}

func (r directoryRule) matches(owner, pluginType string) bool {
	if r.owner != "" && r.owner != owner {
		return false
	}
	return len(r.types) == 0 || slices.Contains(r.types, pluginType)
}

func evalPath(expr hcl.Expression, owner, pluginType string) (string, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"owner": cty.StringVal(owner),
			"type":  cty.StringVal(pluginType),
		},
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	if v.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("directory path: %w", err)
	}
	if !s.IsKnown() || s.IsNull() {
		return "", fmt.Errorf("directory path must be a known string")
	}
	return s.AsString(), nil
}

func applyRules(rules []alterRule, def *plugin.Definition, info *plugin.TypeInfo) error {
	for _, rule := range rules {
		if rule.typ != info.Type || (rule.owner != "" && rule.owner != info.Owner) {
			continue
		}
		for _, k := range ctyconv.SortedKeys(rule.set) {
			def.SetValue(k, rule.set[k])
		}
		for _, k := range rule.unset {
			def.Delete(k)
		}
	}
	return nil
}
