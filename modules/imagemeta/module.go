// Package imagemeta provides builtin node types that work with image
// descriptors. Pixel processing itself happens outside the engine; these
// nodes carry and transform the structured metadata that flows between
// image stages.
package imagemeta

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the image node types to their processors.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("image.source", onSource)
	r.RegisterProcessor("image.resize", onResize)
}

// onSource emits an image descriptor built from the node configuration.
func onSource(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	width, ok := graph.ConfigInt(node.Config, "width")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'width' must be a number", node.ID)
	}
	height, ok := graph.ConfigInt(node.Config, "height")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'height' must be a number", node.ID)
	}
	format, ok := graph.ConfigString(node.Config, "format")
	if !ok {
		format = "png"
	}
	uri, _ := graph.ConfigString(node.Config, "uri")

	return imageResult(node.ID, width, height, format, uri), nil
}

// onResize rewrites the dimensions of the incoming image descriptor.
func onResize(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	in, ok := inputs[graph.HandleID(node.ID, "image")]
	if !ok || in.Value == nil {
		return nil, fmt.Errorf("node '%s': missing 'image' input", node.ID)
	}
	desc := in.Value.Value
	if !desc.Type().IsObjectType() {
		return nil, fmt.Errorf("node '%s': 'image' input is not an image descriptor", node.ID)
	}

	width, ok := graph.ConfigInt(node.Config, "width")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'width' must be a number", node.ID)
	}
	height, ok := graph.ConfigInt(node.Config, "height")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'height' must be a number", node.ID)
	}

	format := "png"
	if desc.Type().HasAttribute("format") {
		if v := desc.GetAttr("format"); v.Type() == cty.String && !v.IsNull() {
			format = v.AsString()
		}
	}
	uri := ""
	if desc.Type().HasAttribute("uri") {
		if v := desc.GetAttr("uri"); v.Type() == cty.String && !v.IsNull() {
			uri = v.AsString()
		}
	}

	return imageResult(node.ID, width, height, format, uri), nil
}

func imageResult(nodeID string, width, height int, format, uri string) *graph.Result {
	return &graph.Result{Outputs: []graph.OutputItem{{
		HandleID: graph.HandleID(nodeID, "image"),
		Type:     graph.TypeImage,
		Value: cty.ObjectVal(map[string]cty.Value{
			"width":  cty.NumberIntVal(int64(width)),
			"height": cty.NumberIntVal(int64(height)),
			"format": cty.StringVal(format),
			"uri":    cty.StringVal(uri),
		}),
	}}}
}
