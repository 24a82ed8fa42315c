package definition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/ctyconv"
	"github.com/vk/pluginmanager/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// YAMLParser reads .yaml and .yml definition files.
type YAMLParser struct{}

// NewYAMLParser creates a YAML definition parser.
func NewYAMLParser() *YAMLParser { return &YAMLParser{} }

// Extensions implements Parser.
func (p *YAMLParser) Extensions() []string { return []string{".yaml", ".yml"} }

// Parse implements Parser.
func (p *YAMLParser) Parse(ctx context.Context, path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.decode(ctx, data, fsutil.TrimExtension(path))
}

func (p *YAMLParser) decode(ctx context.Context, data []byte, fallbackName string) ([]Entry, error) {
	var doc map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			doc = map[string]any{}
		} else {
			return nil, err
		}
	}

	rawPlugins, multi := doc["plugins"]
	if !multi {
		attrs, err := ctyconv.MapFromGo(doc)
		if err != nil {
			return nil, err
		}
		return []Entry{{Name: entryName(attrs, fallbackName), Attributes: attrs}}, nil
	}
	if len(doc) > 1 {
		return nil, fmt.Errorf("file mixes top-level attributes with a plugins mapping")
	}

	plugins, ok := rawPlugins.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("plugins must be a mapping of plugin name to attributes, got %T", rawPlugins)
	}

	entries := make([]Entry, 0, len(plugins))
	for _, name := range ctyconv.SortedKeys(plugins) {
		body, ok := plugins[name].(map[string]any)
		if !ok && plugins[name] != nil {
			return nil, fmt.Errorf("plugin %q must be a mapping, got %T", name, plugins[name])
		}
		attrs, err := ctyconv.MapFromGo(body)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Attributes: attrs})
	}
	ctxlog.FromContext(ctx).Debug("Decoded YAML plugin definitions.", "count", len(entries))
	return entries, nil
}
