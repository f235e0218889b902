// Package app wires the pipeline loader, processor registry, and execution
// engine into a runnable application.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/hclpipe"
	"github.com/gatewai-dev/gatewai/internal/registry"
	"github.com/gatewai-dev/gatewai/modules/envvars"
	"github.com/gatewai-dev/gatewai/modules/httpfetch"
	"github.com/gatewai-dev/gatewai/modules/imagemeta"
	"github.com/gatewai-dev/gatewai/modules/text"
)

// coreModules are the builtin processor packages registered by default.
var coreModules = []registry.Module{
	&text.Module{},
	&httpfetch.Module{},
	&imagemeta.Module{},
	&envvars.Module{},
}

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	snapshot *graph.Snapshot
}

// NewApp loads the pipeline and prepares the registry. A failure to load
// the pipeline is a fatal startup error and returns before any execution
// happens. Passing modules overrides the builtin set, which tests use to
// inject stub processors.
func NewApp(cfg *Config, outW io.Writer, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All processor modules registered.", "count", len(modules))

	snap, err := hclpipe.LoadPath(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}

	// A static pipeline with a dependency cycle would stall forever in the
	// engine, so reject it up front.
	if err := graph.BuildTopology(snap).DetectCycles(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		snapshot: snap,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Snapshot returns the loaded pipeline snapshot. Primarily for testing.
func (a *App) Snapshot() *graph.Snapshot {
	return a.snapshot
}
