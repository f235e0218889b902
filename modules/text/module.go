// Package text provides the builtin text-processing node types.
package text

import (
	"context"
	"fmt"
	"sort"
	"strings"
	texttemplate "text/template"

	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the text node types to their processors.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("text.constant", onConstant)
	r.RegisterProcessor("text.template", onTemplate)
	r.RegisterProcessor("text.concat", onConcat)
}

// onConstant emits the configured string on the node's "text" output.
func onConstant(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	value, ok := graph.ConfigString(node.Config, "value")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'value' must be a string", node.ID)
	}
	return textResult(node.ID, value), nil
}

// onTemplate renders the configured text/template with one field per input
// handle, named by the handle's local name.
func onTemplate(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	tmplText, ok := graph.ConfigString(node.Config, "template")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'template' must be a string", node.ID)
	}

	tmpl, err := texttemplate.New(node.ID).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("node '%s': invalid template: %w", node.ID, err)
	}

	data := make(map[string]string, len(inputs))
	for handleID, in := range inputs {
		data[localName(node.ID, handleID)] = inputText(in)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("node '%s': template execution failed: %w", node.ID, err)
	}
	return textResult(node.ID, b.String()), nil
}

// onConcat joins all input values, ordered by handle id, with the
// configured separator.
func onConcat(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	separator, _ := graph.ConfigString(node.Config, "separator")

	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, inputText(inputs[id]))
	}
	return textResult(node.ID, strings.Join(parts, separator)), nil
}

func textResult(nodeID, value string) *graph.Result {
	return &graph.Result{Outputs: []graph.OutputItem{{
		HandleID: graph.HandleID(nodeID, "text"),
		Type:     graph.TypeText,
		Value:    cty.StringVal(value),
	}}}
}

func localName(nodeID, handleID string) string {
	return strings.TrimPrefix(handleID, nodeID+".")
}

func inputText(in graph.ResolvedInput) string {
	if in.Value == nil {
		return ""
	}
	v := in.Value.Value
	if v.Type() == cty.String && !v.IsNull() {
		return v.AsString()
	}
	return v.GoString()
}
