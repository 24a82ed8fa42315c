package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/pluginmanager/internal/ctxlog"
	"github.com/vk/pluginmanager/internal/pluginid"
)

// healthHandler reports OK once a snapshot has been published.
func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if app.discoverer.Current() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "NO SNAPSHOT")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// pluginsHandler serves the published snapshot as JSON. The optional `type`
// query parameter (`owner:type`) and `id` parameter (`owner:type:name`)
// narrow the response.
func (app *App) pluginsHandler(w http.ResponseWriter, r *http.Request) {
	snap := app.discoverer.Current()
	if snap == nil {
		http.Error(w, "no snapshot published", http.StatusServiceUnavailable)
		return
	}

	var body any = snap
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := pluginid.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := snap.Lookup(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		body = f
	} else if raw := r.URL.Query().Get("type"); raw != "" {
		key, err := pluginid.ParseTypeKey(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		byName := make(map[string]any)
		for _, f := range snap.Plugins(key) {
			byName[f.Name()] = f
		}
		body = byName
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.FromContext(app.ctx).Error("Failed to encode plugins response.", "error", err)
	}
}

// Handler returns the mux served by the health check server.
func (app *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", app.healthHandler)
	mux.HandleFunc("/plugins", app.pluginsHandler)
	mux.Handle("/metrics", app.metrics.Handler())
	return mux
}

// healthCheckServer initializes and runs the health check HTTP server.
func (app *App) healthCheckServer() {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring health check server.")
	if app.config.HealthcheckPort <= 0 {
		logger.Warn("Health check server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	app.httpServer = &http.Server{
		Addr:              addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (app *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing health check server...")

	if app.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	// app.ctx is already cancelled at this point.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}

	logger.Debug("Health check server shut down gracefully.")
	return nil
}
