package definition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Entry is one raw plugin definition read from a file.
type Entry struct {
	Name       string
	Attributes map[string]cty.Value
}

// Parser reads definition files of a particular format.
type Parser interface {
	// Extensions lists the file extensions the parser handles, with the
	// leading dot.
	Extensions() []string
	// Parse reads every plugin definition in the file at path.
	Parse(ctx context.Context, path string) ([]Entry, error)
}

// ParseError reports a definition file that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse plugin definition file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Set dispatches files to parsers by extension.
type Set struct {
	byExt map[string]Parser
	exts  []string
}

// NewSet creates a dispatcher over the given parsers. Later parsers win
// when two claim the same extension.
func NewSet(parsers ...Parser) *Set {
	s := &Set{byExt: make(map[string]Parser)}
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			ext = strings.ToLower(ext)
			if _, exists := s.byExt[ext]; !exists {
				s.exts = append(s.exts, ext)
			}
			s.byExt[ext] = p
		}
	}
	return s
}

// DefaultSet handles HCL, HCL JSON and YAML files.
func DefaultSet() *Set {
	return NewSet(NewHCLParser(), NewYAMLParser())
}

// Extensions returns every handled extension in registration order.
func (s *Set) Extensions() []string {
	return append([]string(nil), s.exts...)
}

// Parse reads path with the parser registered for its extension. A parser
// panic is returned as a *ParseError.
func (s *Set) Parse(ctx context.Context, path string) (entries []Entry, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := s.byExt[ext]
	if !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("no parser for extension %q", ext)}
	}

	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = &ParseError{Path: path, Err: fmt.Errorf("parser panicked: %v", r)}
		}
	}()

	ctxlog.FromContext(ctx).Debug("Parsing plugin definition file.", "file", path)
	entries, err = p.Parse(ctx, path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return entries, nil
}
