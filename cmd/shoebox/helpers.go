package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Halewood/shoebox/internal/access"
	"github.com/Halewood/shoebox/internal/availability"
	"github.com/Halewood/shoebox/internal/config"
	"github.com/Halewood/shoebox/internal/engine"
	"github.com/Halewood/shoebox/internal/model"
	"github.com/Halewood/shoebox/internal/registry"
	"github.com/Halewood/shoebox/internal/scan"
	"github.com/Halewood/shoebox/internal/store"
)

// app wires the components together for one command invocation.
type app struct {
	settings *config.Settings
	registry *registry.Registry
	scope    *access.Scope
	tracker  *availability.Tracker
	engine   *engine.Engine
	store    *store.Store
}

// initApp builds the full component graph from configuration.
func initApp() (*app, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(settings.Root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", settings.Root, err)
	}

	reg, err := registry.Load(config.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load status registry: %w", err)
	}

	scope := access.NewScope(settings.Root)

	// The tracker's change callback feeds the engine, which does not
	// exist yet; route through the app so wiring order doesn't matter.
	a := &app{
		settings: settings,
		registry: reg,
		scope:    scope,
	}

	tracker, err := availability.NewTracker(
		availability.MarkerProber{},
		availability.OpenMaterializer{},
		func(path string, downloading bool) {
			if a.engine != nil {
				a.engine.SetDownloading(path, downloading)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	a.tracker = tracker
	a.engine = engine.New(scan.New(), reg, tracker, settings.Root)
	a.store = store.New(scope, reg, settings.Mode)
	return a, nil
}

// Close releases the filesystem watcher.
func (a *app) Close() {
	if a.tracker != nil {
		_ = a.tracker.Close()
	}
}

// reconcile runs a full catalog rebuild.
func (a *app) reconcile(ctx context.Context) (*model.Catalog, error) {
	catalog, err := a.engine.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild catalog: %w", err)
	}
	return catalog, nil
}

// findEntry reconciles and resolves a record by display name.
func (a *app) findEntry(ctx context.Context, name string) (*model.Entry, error) {
	catalog, err := a.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	entry := catalog.FindByName(name)
	if entry == nil {
		return nil, fmt.Errorf("no record named %q", name)
	}
	return entry, nil
}
