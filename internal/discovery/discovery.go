package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vk/pluginmanager/internal/alter"
	"github.com/vk/pluginmanager/internal/catalog"
	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/definition"
	"github.com/vk/pluginmanager/internal/locator"
	"github.com/vk/pluginmanager/internal/metrics"
	"github.com/vk/pluginmanager/internal/plugin"
	"github.com/vk/pluginmanager/internal/pluginid"
	"github.com/vk/pluginmanager/internal/registry"
	"github.com/vk/pluginmanager/internal/snapshot"
)

// Discoverer runs discovery passes over a fixed set of modules and publishes
// their results to a Store. Passes must not overlap; Current may be called
// from any goroutine.
type Discoverer struct {
	registry *registry.Registry
	parsers  *definition.Set
	pipeline *alter.Pipeline
	store    *snapshot.Store
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithParsers replaces definition.DefaultSet.
func WithParsers(s *definition.Set) Option {
	return func(d *Discoverer) { d.parsers = s }
}

// WithStore publishes into an existing store.
func WithStore(s *snapshot.Store) Option {
	return func(d *Discoverer) { d.store = s }
}

// WithMetrics records pass outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Discoverer) { d.metrics = m }
}

// WithPipelineOptions is passed through to alter.FromRegistry.
func WithPipelineOptions(opts ...alter.Option) Option {
	return func(d *Discoverer) { d.pipeline = alter.FromRegistry(d.registry, opts...) }
}

// New creates a Discoverer for the modules in reg.
func New(reg *registry.Registry, opts ...Option) *Discoverer {
	d := &Discoverer{
		registry: reg,
		parsers:  definition.DefaultSet(),
		store:    snapshot.NewStore(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pipeline == nil {
		d.pipeline = alter.FromRegistry(reg)
	}
	return d
}

// Store returns the store passes publish into.
func (d *Discoverer) Store() *snapshot.Store { return d.store }

// Current returns the last published snapshot, or nil.
func (d *Discoverer) Current() *snapshot.Snapshot { return d.store.Current() }

// Result describes one completed pass.
type Result struct {
	Snapshot   *snapshot.Snapshot
	Locations  []locator.Location
	Report     *Report
	Generation uint64
}

// BuildCatalog asks every TypeDeclarer for its plugin types and returns the
// frozen catalog. Types of one module are registered in name order. A
// duplicate declaration is fatal.
func BuildCatalog(ctx context.Context, reg *registry.Registry) (*catalog.Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	cat := catalog.New()

	for _, m := range reg.Modules() {
		td, ok := m.(registry.TypeDeclarer)
		if !ok {
			continue
		}
		declared, err := declareTypes(td)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name(), err)
		}

		names := make([]string, 0, len(declared))
		for name := range declared {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, err := cat.Register(m.Name(), name, declared[name]); err != nil {
				return nil, fmt.Errorf("module %s: %w", m.Name(), err)
			}
			logger.Debug("Registered plugin type.", "owner", m.Name(), "type", name)
		}
	}

	cat.Freeze()
	logger.Debug("Type catalog frozen.", "types", cat.Len())
	return cat, nil
}

func declareTypes(td registry.TypeDeclarer) (declared map[string]map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("declaring plugin types panicked: %v", r)
		}
	}()
	return td.DeclarePluginTypes(), nil
}

// Locate builds the catalog and resolves plugin directories without scanning
// them.
func (d *Discoverer) Locate(ctx context.Context) (*catalog.Catalog, []locator.Location, []error, error) {
	cat, err := BuildCatalog(ctx, d.registry)
	if err != nil {
		return nil, nil, nil, err
	}
	locations, errs := locator.Resolve(ctx, d.registry.Modules(), typeKeys(cat))
	return cat, locations, errs, nil
}

func typeKeys(cat *catalog.Catalog) []pluginid.TypeKey {
	types := cat.Types()
	keys := make([]pluginid.TypeKey, len(types))
	for i, t := range types {
		keys[i] = t.Key()
	}
	return keys
}

// Discover runs one pass and publishes its snapshot. On error nothing is
// published and the previous snapshot stays current.
func (d *Discoverer) Discover(ctx context.Context) (*Result, error) {
	start := d.now()
	res, err := d.run(ctx)
	if err != nil {
		status := "failed"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		d.metrics.ObservePass(status, d.now().Sub(start))
		return nil, err
	}

	res.Generation = d.store.Publish(res.Snapshot)
	d.metrics.ObservePass("published", d.now().Sub(start))
	d.metrics.SetPublished(res.Snapshot.Catalog().Len(), pluginCounts(res.Snapshot), d.now())

	ctxlog.FromContext(ctx).Info("Plugin snapshot published.",
		"generation", res.Generation,
		"types", res.Snapshot.Catalog().Len(),
		"plugins", res.Snapshot.Len(),
		"errors", len(res.Report.Errors),
	)
	return res, nil
}

func pluginCounts(s *snapshot.Snapshot) map[pluginid.TypeKey]int {
	counts := make(map[pluginid.TypeKey]int)
	for _, t := range s.Catalog().Types() {
		counts[t.Key()] = len(s.Plugins(t.Key()))
	}
	return counts
}

func (d *Discoverer) run(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Discovery pass started.", "modules", d.registry.Len())

	cat, locations, locErrs, err := d.Locate(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Locations: len(locations)}
	for _, e := range locErrs {
		report.add(d.metrics, e)
	}

	builder := snapshot.NewBuilder(cat)
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}
		if err := d.scanLocation(ctx, cat, loc, builder, report); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discovery cancelled: %w", err)
	}
	snap := builder.Build()
	report.Published = snap.Len()
	logger.Debug("Discovery pass finished.", "plugins", snap.Len(), "errors", len(report.Errors))
	return &Result{Snapshot: snap, Locations: locations, Report: report}, nil
}

// scanLocation only returns an error on cancellation; everything else goes
// into the report.
func (d *Discoverer) scanLocation(ctx context.Context, cat *catalog.Catalog, loc locator.Location, builder *snapshot.Builder, report *Report) error {
	logger := ctxlog.FromContext(ctx)

	pt, err := cat.Lookup(loc.TypeKey())
	if err != nil {
		report.add(d.metrics, err)
		return nil
	}
	info := pt.Info()

	files, err := locator.Scan(ctx, loc, d.parsers.Extensions())
	if err != nil {
		logger.Warn("Skipping unreadable plugin directory.", "dir", loc.Dir, "error", err)
		report.add(d.metrics, err)
		return nil
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("discovery cancelled: %w", err)
		}
		report.Files++

		entries, err := d.parsers.Parse(ctx, file)
		if err != nil {
			logger.Warn("Skipping plugin definition file.", "file", file, "error", err)
			report.add(d.metrics, err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("discovery cancelled: %w", err)
			}
			report.Definitions++
			d.processEntry(ctx, loc, info, file, entry, builder, report)
		}
	}
	return nil
}

func (d *Discoverer) processEntry(ctx context.Context, loc locator.Location, info *plugin.TypeInfo, file string, entry definition.Entry, builder *snapshot.Builder, report *Report) {
	logger := ctxlog.FromContext(ctx)

	id := loc.TypeKey().Plugin(entry.Name)
	def, err := plugin.NewDefinition(id, entry.Attributes, plugin.NewFSInfo(loc.Provider, loc.Dir, file))
	if err != nil {
		logger.Warn("Dropping plugin definition.", "file", file, "name", entry.Name, "error", err)
		report.add(d.metrics, &EntryError{Path: file, Name: entry.Name, Err: err})
		return
	}

	final, err := d.pipeline.Run(ctx, def, info)
	if err != nil {
		logger.Warn("Dropping plugin definition.", "plugin", id.String(), "error", err)
		report.add(d.metrics, err)
		return
	}

	if err := builder.Add(final); err != nil {
		logger.Warn("Dropping duplicate plugin definition.", "plugin", id.String(), "error", err)
		report.add(d.metrics, err)
	}
}
