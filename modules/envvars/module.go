// Package envvars provides the builtin node type that reads environment
// variables into the pipeline.
package envvars

import (
	"context"
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the env.read node type to its processor.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("env.read", onRead)
}

func onRead(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	name, ok := graph.ConfigString(node.Config, "name")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'name' must be a string", node.ID)
	}

	value, found := os.LookupEnv(name)
	if !found {
		fallback, ok := graph.ConfigString(node.Config, "fallback")
		if !ok {
			return nil, fmt.Errorf("node '%s': environment variable '%s' is not set and no fallback is configured", node.ID, name)
		}
		value = fallback
	}

	return &graph.Result{Outputs: []graph.OutputItem{{
		HandleID: graph.HandleID(node.ID, "value"),
		Type:     graph.TypeText,
		Value:    cty.StringVal(value),
	}}}, nil
}
