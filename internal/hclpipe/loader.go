package hclpipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/fsutil"
	"github.com/gatewai-dev/gatewai/internal/graph"
)

// Extension is the file suffix pipeline definitions are discovered by.
const Extension = ".hcl"

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"name"}},
		{Type: "edge"},
	},
}

var nodeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "config"},
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

var edgeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
	},
}

var handleSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "types", Required: true},
	},
}

// LoadPath loads a pipeline snapshot from a single file or from every
// pipeline file under a directory.
func LoadPath(ctx context.Context, path string) (*graph.Snapshot, error) {
	files, err := fsutil.CollectFiles(path, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no pipeline files found under '%s'", path)
	}
	return LoadFiles(ctx, files)
}

// LoadFiles parses the given files into one combined snapshot and validates
// edge references against the declared nodes and handles.
func LoadFiles(ctx context.Context, files []string) (*graph.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	snap := &graph.Snapshot{}
	var diags hcl.Diagnostics
	for _, file := range files {
		logger.Debug("Parsing pipeline file.", "file", file)
		f, parseDiags := parser.ParseHCLFile(file)
		diags = append(diags, parseDiags...)
		if f == nil {
			continue
		}
		diags = append(diags, decodeFile(f.Body, snap)...)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	if err := validateEdges(snap); err != nil {
		return nil, err
	}
	logger.Debug("Pipeline loaded.", "nodes", len(snap.Nodes), "edges", len(snap.Edges), "handles", len(snap.Handles))
	return snap, nil
}

func decodeFile(body hcl.Body, snap *graph.Snapshot) hcl.Diagnostics {
	content, diags := body.Content(rootSchema)
	for _, block := range content.Blocks {
		switch block.Type {
		case "node":
			diags = append(diags, decodeNode(block, snap)...)
		case "edge":
			diags = append(diags, decodeEdge(block, snap)...)
		}
	}
	return diags
}

func decodeNode(block *hcl.Block, snap *graph.Snapshot) hcl.Diagnostics {
	name := block.Labels[0]
	var diags hcl.Diagnostics
	if strings.Contains(name, ".") {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid node name",
			Detail:   fmt.Sprintf("Node name %q must not contain '.'; the dot separates node and handle in edge references.", name),
			Subject:  block.DefRange.Ptr(),
		})
	}

	content, contentDiags := block.Body.Content(nodeSchema)
	diags = append(diags, contentDiags...)

	node := graph.Node{ID: name, Config: cty.EmptyObjectVal}
	if attr, ok := content.Attributes["type"]; ok {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if val.Type() == cty.String && !val.IsNull() {
			node.Type = val.AsString()
		} else if !valDiags.HasErrors() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid node type",
				Detail:   "The 'type' attribute must be a string.",
				Subject:  attr.Range.Ptr(),
			})
		}
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "config":
			cfg, cfgDiags := decodeConfig(inner.Body)
			diags = append(diags, cfgDiags...)
			node.Config = cfg
		case "input", "output":
			handle, handleDiags := decodeHandle(inner, name)
			diags = append(diags, handleDiags...)
			if handle != nil {
				snap.Handles = append(snap.Handles, *handle)
			}
		}
	}

	snap.Nodes = append(snap.Nodes, node)
	return diags
}

func decodeConfig(body hcl.Body) (cty.Value, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		vals[name] = val
	}
	if len(vals) == 0 {
		return cty.EmptyObjectVal, diags
	}
	return cty.ObjectVal(vals), diags
}

func decodeHandle(block *hcl.Block, nodeID string) (*graph.Handle, hcl.Diagnostics) {
	content, diags := block.Body.Content(handleSchema)

	handle := &graph.Handle{
		ID:     graph.HandleID(nodeID, block.Labels[0]),
		NodeID: nodeID,
	}
	if block.Type == "output" {
		handle.Direction = graph.Output
	} else {
		handle.Direction = graph.Input
	}

	attr, ok := content.Attributes["types"]
	if !ok {
		return nil, diags
	}
	val, valDiags := attr.Expr.Value(nil)
	diags = append(diags, valDiags...)
	if valDiags.HasErrors() {
		return nil, diags
	}
	if !val.CanIterateElements() {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid handle types",
			Detail:   "The 'types' attribute must be a list of data type names.",
			Subject:  attr.Range.Ptr(),
		})
	}
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.String || elem.IsNull() {
			return nil, append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid handle types",
				Detail:   "Each entry of 'types' must be a string.",
				Subject:  attr.Range.Ptr(),
			})
		}
		handle.Types = append(handle.Types, graph.DataType(elem.AsString()))
	}
	if len(handle.Types) == 0 {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid handle types",
			Detail:   fmt.Sprintf("Handle %q must declare at least one data type.", handle.ID),
			Subject:  attr.Range.Ptr(),
		})
	}
	return handle, diags
}

func decodeEdge(block *hcl.Block, snap *graph.Snapshot) hcl.Diagnostics {
	content, diags := block.Body.Content(edgeSchema)

	ref := func(name string) (node, handle string) {
		attr, ok := content.Attributes[name]
		if !ok {
			return "", ""
		}
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() || val.Type() != cty.String || val.IsNull() {
			return "", ""
		}
		s := val.AsString()
		idx := strings.Index(s, ".")
		if idx <= 0 || idx == len(s)-1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid edge reference",
				Detail:   fmt.Sprintf("Edge reference %q must use the 'node.handle' form.", s),
				Subject:  attr.Range.Ptr(),
			})
			return "", ""
		}
		return s[:idx], s
	}

	srcNode, srcHandle := ref("from")
	dstNode, dstHandle := ref("to")
	if diags.HasErrors() || srcNode == "" || dstNode == "" {
		return diags
	}

	snap.Edges = append(snap.Edges, graph.Edge{
		Source:       srcNode,
		SourceHandle: srcHandle,
		Target:       dstNode,
		TargetHandle: dstHandle,
	})
	return diags
}

// validateEdges checks every edge endpoint against the declared nodes and
// handles. The engine would silently drop dangling edges; a static pipeline
// file with one is almost certainly a typo, so the loader rejects it.
func validateEdges(snap *graph.Snapshot) error {
	topo := graph.BuildTopology(snap)
	for _, e := range snap.Edges {
		if !topo.HasNode(e.Source) {
			return fmt.Errorf("edge %s: unknown source node '%s'", e, e.Source)
		}
		if !topo.HasNode(e.Target) {
			return fmt.Errorf("edge %s: unknown target node '%s'", e, e.Target)
		}
		if topo.OutputHandle(e.SourceHandle) == nil {
			return fmt.Errorf("edge %s: '%s' is not an output handle", e, e.SourceHandle)
		}
		if topo.InputHandle(e.TargetHandle) == nil {
			return fmt.Errorf("edge %s: '%s' is not an input handle", e, e.TargetHandle)
		}
	}
	return nil
}
