package engine

import (
	"fmt"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

// resolveInputsLocked gathers, for every input handle of the node, the
// upstream output item it is connected to, and validates the item's type
// tag against the handle's declared accepted set. Failures are recorded per
// handle as {ConnectionValid: false, Value: nil} together with a
// human-readable validation message.
func (e *Engine) resolveInputsLocked(n *graph.Node) (map[string]graph.ResolvedInput, map[string]string) {
	resolved := make(map[string]graph.ResolvedInput)
	validation := make(map[string]string)

	for _, h := range e.topo.NodeHandles(n.ID, graph.Input) {
		item, msg := e.resolveHandleLocked(n.ID, h)
		if msg != "" {
			resolved[h.ID] = graph.ResolvedInput{}
			validation[h.ID] = msg
			continue
		}
		resolved[h.ID] = graph.ResolvedInput{ConnectionValid: true, Value: item}
	}
	return resolved, validation
}

// resolveHandleLocked resolves one input handle. It returns either the
// upstream output item or a non-empty validation message.
func (e *Engine) resolveHandleLocked(nodeID string, h *graph.Handle) (*graph.OutputItem, string) {
	edges := e.topo.IncomingEdgesTo(nodeID, h.ID)
	if len(edges) == 0 {
		return nil, "input is not connected"
	}
	edge := edges[0]

	srcState, ok := e.states[edge.Source]
	if !ok || srcState.result == nil {
		return nil, fmt.Sprintf("upstream node '%s' has no result", edge.Source)
	}

	srcHandle := e.topo.OutputHandle(edge.SourceHandle)
	if srcHandle == nil || srcHandle.NodeID != edge.Source {
		return nil, fmt.Sprintf("output slot '%s' does not exist", edge.SourceHandle)
	}

	item := srcState.result.Output(edge.SourceHandle)
	if item == nil {
		return nil, fmt.Sprintf("upstream result has no output for '%s'", edge.SourceHandle)
	}

	if !h.Accepts(item.Type) {
		return nil, fmt.Sprintf("type mismatch: upstream produces '%s', handle accepts %v", item.Type, h.Types)
	}
	return item, ""
}
