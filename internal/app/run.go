package app

import (
	"context"
	"fmt"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/discovery"
	"github.com/vk/pluginmanager/internal/watch"
)

// Discover runs a single discovery pass and publishes its snapshot.
func (a *App) Discover(ctx context.Context) (*discovery.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Discover method started.")

	res, err := a.discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	for _, e := range res.Report.Errors {
		a.logger.Warn("Discovery problem.", "kind", discovery.Kind(e), "error", e)
	}
	return res, nil
}

// Serve runs an initial pass, starts the health check server and, when
// configured, the watcher. It blocks until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Serve method started.")

	if _, err := a.Discover(ctx); err != nil {
		return err
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if a.config.Watch {
		var opts []watch.Option
		if a.config.WatchDebounce > 0 {
			opts = append(opts, watch.WithDebounce(a.config.WatchDebounce))
		}
		w := watch.New(a.discoverer, a.moduleRoots(), opts...)
		if err := w.Run(ctx); err != nil {
			return fmt.Errorf("watcher failed: %w", err)
		}
		return nil
	}

	<-ctx.Done()
	a.logger.Debug("App.Serve method finished.")
	return nil
}
