package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/discovery"
	"github.com/vk/pluginmanager/internal/manifest"
	"github.com/vk/pluginmanager/internal/metrics"
	"github.com/vk/pluginmanager/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Metrics
	discoverer *discovery.Discoverer
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Modules passed in
// replace the compiled-in set; manifest modules from cfg.ManifestPath are
// registered after them.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 && cfg.ModulesPath != "" {
		modules = coreModules(cfg.ModulesPath)
	}

	reg, err := registry.New(modules...)
	if err != nil {
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.ManifestPath != "" {
		declared, err := manifest.Load(ctx, cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		for _, m := range declared {
			if err := reg.Register(m); err != nil {
				return nil, fmt.Errorf("failed to register manifest module: %w", err)
			}
		}
	}
	logger.Debug("All modules registered.", "count", reg.Len())

	m := metrics.New(nil)
	return &App{
		ctx:        ctx,
		outW:       outW,
		logger:     logger,
		config:     cfg,
		registry:   reg,
		metrics:    m,
		discoverer: discovery.New(reg, discovery.WithMetrics(m)),
	}, nil
}

// Registry returns the application's module registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Discoverer returns the application's discoverer.
func (a *App) Discoverer() *discovery.Discoverer {
	return a.discoverer
}

// Context returns the application context carrying its logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// moduleRoots lists the root of every registered module.
func (a *App) moduleRoots() []string {
	var roots []string
	for _, m := range a.registry.Modules() {
		roots = append(roots, m.Root())
	}
	return roots
}
