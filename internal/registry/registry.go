package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

// ProcessorFunc is the computation body bound to a node type. The context is
// the invocation's cancellation token: a processor doing long-running work is
// expected to check ctx at reasonable internal checkpoints. Inputs are keyed
// by the consuming node's input handle ids and are validated before the call.
// A nil result with a nil error is allowed and settles the node without
// producing outputs.
type ProcessorFunc func(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error)

// Module is the interface builtin processor packages implement to register
// themselves with an application's registry.
type Module interface {
	Register(r *Registry)
}

// Registry holds the processor bindings for a single application instance.
// Registration happens once at startup; lookups afterwards are read-only, so
// no locking is needed.
type Registry struct {
	processors map[string]ProcessorFunc
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		processors: make(map[string]ProcessorFunc),
	}
}

// RegisterProcessor binds a processor function to a node type. Binding the
// same type twice is a programmer error and panics.
func (r *Registry) RegisterProcessor(nodeType string, fn ProcessorFunc) {
	if _, exists := r.processors[nodeType]; exists {
		panic(fmt.Sprintf("processor for node type '%s' already registered", nodeType))
	}
	if fn == nil {
		panic(fmt.Sprintf("processor for node type '%s' must not be nil", nodeType))
	}
	slog.Debug("Registering processor.", "nodeType", nodeType)
	r.processors[nodeType] = fn
}

// Processor returns the function bound to the node type, if any.
func (r *Registry) Processor(nodeType string) (ProcessorFunc, bool) {
	fn, ok := r.processors[nodeType]
	return fn, ok
}

// Types returns the registered node types in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.processors))
	for t := range r.processors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
