package alter

import (
	"context"
	"fmt"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/registry"
)

// CallbackFunc is the signature shared by pre- and post-alter callbacks.
type CallbackFunc func(def *plugin.Definition, info *plugin.TypeInfo) error

// Callback is an alter callback tagged with the module that provided it.
type Callback struct {
	Module string
	Fn     CallbackFunc
}

// Pipeline applies the alter phases to definitions. It holds no per-pass
// state and may be reused.
type Pipeline struct {
	pre        []Callback
	post       []Callback
	normalizer Normalizer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNormalizer replaces DefaultNormalizer.
func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// NewPipeline builds a pipeline from explicit callback lists.
func NewPipeline(pre, post []Callback, opts ...Option) *Pipeline {
	p := &Pipeline{
		pre:        append([]Callback(nil), pre...),
		post:       append([]Callback(nil), post...),
		normalizer: DefaultNormalizer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromRegistry collects the alter callbacks of every module, in registration
// order.
func FromRegistry(reg *registry.Registry, opts ...Option) *Pipeline {
	var pre, post []Callback
	for _, m := range reg.Modules() {
		if a, ok := m.(registry.PreAlterer); ok {
			pre = append(pre, Callback{Module: m.Name(), Fn: a.PreAlter})
		}
		if a, ok := m.(registry.PostAlterer); ok {
			post = append(post, Callback{Module: m.Name(), Fn: a.PostAlter})
		}
	}
	return NewPipeline(pre, post, opts...)
}

// Run takes def through pre-alter, normalization and post-alter and returns
// the finished definition. def must not be used after Run returns.
func (p *Pipeline) Run(ctx context.Context, def *plugin.Definition, info *plugin.TypeInfo) (*plugin.Final, error) {
	logger := ctxlog.FromContext(ctx)

	for _, cb := range p.pre {
		if err := p.step(def, info, PhasePreAlter, cb.Module, cb.Fn); err != nil {
			return nil, err
		}
	}

	if p.normalizer != nil {
		if err := p.step(def, info, PhaseNormalize, "", p.normalizer.Normalize); err != nil {
			return nil, err
		}
	}

	for _, cb := range p.post {
		if err := p.step(def, info, PhasePostAlter, cb.Module, cb.Fn); err != nil {
			return nil, err
		}
	}

	logger.Debug("Plugin definition finalized.", "plugin", def.ID().String(), "attributes", len(def.Keys()))
	return def.Finalize(), nil
}

// step runs one callback against a private copy of info and verifies the
// identity afterwards.
func (p *Pipeline) step(def *plugin.Definition, info *plugin.TypeInfo, phase Phase, module string, fn CallbackFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{ID: def.ID(), Phase: phase, Module: module, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	scratch := info.Clone()
	if cbErr := fn(def, scratch); cbErr != nil {
		return &CallbackError{ID: def.ID(), Phase: phase, Module: module, Err: cbErr}
	}

	if scratch.Owner != info.Owner {
		return &ValidationError{ID: def.ID(), Phase: phase, Module: module, Field: "info.owner"}
	}
	if scratch.Type != info.Type {
		return &ValidationError{ID: def.ID(), Phase: phase, Module: module, Field: "info.type"}
	}
	if attr, ok := def.IdentityIntact(); !ok {
		return &ValidationError{ID: def.ID(), Phase: phase, Module: module, Field: attr}
	}
	return nil
}
