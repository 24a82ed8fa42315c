package definition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// pluginBlockSchema selects `plugin "<name>" { ... }` blocks from a body.
var pluginBlockSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "plugin", LabelNames: []string{"name"}},
	},
}

// HCLParser reads HCL native (.hcl, .def) and HCL JSON (.json) definition
// files.
type HCLParser struct {
	evalCtx *hcl.EvalContext
}

// NewHCLParser creates a parser whose expressions may call a small set of
// string and collection functions.
func NewHCLParser() *HCLParser {
	return &HCLParser{
		evalCtx: &hcl.EvalContext{
			Functions: map[string]function.Function{
				"upper":    stdlib.UpperFunc,
				"lower":    stdlib.LowerFunc,
				"join":     stdlib.JoinFunc,
				"concat":   stdlib.ConcatFunc,
				"format":   stdlib.FormatFunc,
				"coalesce": stdlib.CoalesceFunc,
				"merge":    stdlib.MergeFunc,
				"max":      stdlib.MaxFunc,
				"min":      stdlib.MinFunc,
			},
		},
	}
}

// Extensions implements Parser.
func (p *HCLParser) Extensions() []string { return []string{".hcl", ".def", ".json"} }

// Parse implements Parser.
func (p *HCLParser) Parse(ctx context.Context, path string) ([]Entry, error) {
	// A fresh parser per file: hclparse caches by filename, and watch mode
	// re-reads files that changed on disk.
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.EqualFold(filepath.Ext(path), ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	return p.decodeBody(ctx, file.Body, fsutil.TrimExtension(path))
}

func (p *HCLParser) decodeBody(ctx context.Context, body hcl.Body, fallbackName string) ([]Entry, error) {
	logger := ctxlog.FromContext(ctx)

	content, remain, diags := body.PartialContent(pluginBlockSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	topAttrs, diags := remain.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	if len(content.Blocks) > 0 && len(topAttrs) > 0 {
		return nil, fmt.Errorf("file mixes top-level attributes with plugin blocks")
	}

	if len(content.Blocks) == 0 {
		attrs, err := p.evalAttributes(topAttrs)
		if err != nil {
			return nil, err
		}
		logger.Debug("Decoded single plugin definition.", "attributes", len(attrs))
		return []Entry{{Name: entryName(attrs, fallbackName), Attributes: attrs}}, nil
	}

	entries := make([]Entry, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		blockAttrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		attrs, err := p.evalAttributes(blockAttrs)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", block.Labels[0], err)
		}
		entries = append(entries, Entry{Name: block.Labels[0], Attributes: attrs})
	}
	logger.Debug("Decoded plugin blocks.", "count", len(entries))
	return entries, nil
}

func (p *HCLParser) evalAttributes(attrs hcl.Attributes) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(p.evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		if !val.IsWhollyKnown() {
			return nil, fmt.Errorf("attribute %q has an unknown value", name)
		}
		if err := ctyconv.CheckFinite(val); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = val
	}
	return out, nil
}

// entryName prefers a string `name` attribute over the fallback.
func entryName(attrs map[string]cty.Value, fallback string) string {
	if v, ok := attrs["name"]; ok && !v.IsNull() && v.Type() == cty.String {
		return v.AsString()
	}
	return fallback
}
