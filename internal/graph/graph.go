package graph

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// DataType is a tag describing the kind of data an output produces or an
// input accepts. Tags are compared for exact equality during connection
// validation and never influence execution ordering.
type DataType string

// Well-known data types used by the builtin modules. Node types are free to
// introduce their own tags; the engine treats them as opaque.
const (
	TypeText  DataType = "Text"
	TypeImage DataType = "Image"
	TypeVideo DataType = "Video"
)

// HandleDirection distinguishes input ports from output ports on a node.
type HandleDirection int

const (
	// Input marks a handle that accepts data from an upstream node.
	Input HandleDirection = iota
	// Output marks a handle that produces data for downstream nodes.
	Output
)

// Handle is a named, typed port on a node. Its Types set is the list of data
// types the port accepts (for inputs) or may produce (for outputs).
type Handle struct {
	ID        string
	NodeID    string
	Direction HandleDirection
	Types     []DataType
}

// Accepts reports whether the handle's declared type set contains dt.
func (h *Handle) Accepts(dt DataType) bool {
	for _, t := range h.Types {
		if t == dt {
			return true
		}
	}
	return false
}

// HandleID builds the canonical global identifier for a handle from its
// owning node id and its local port name.
func HandleID(nodeID, local string) string {
	return nodeID + "." + local
}

// Node is a single unit of computation in the graph. Config is opaque to the
// engine and only feeds structural signatures and the node's processor.
// Result optionally carries a previously persisted result from an earlier
// session; on the initial snapshot such nodes are treated as already
// satisfied instead of being recomputed.
type Node struct {
	ID     string
	Type   string
	Config cty.Value
	Result *Result
}

// Edge is a directed data dependency from an output handle on the source
// node to an input handle on the target node.
type Edge struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

// String renders the edge in "source.handle -> target.handle" form for logs
// and error messages.
func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.SourceHandle, e.TargetHandle)
}

// OutputItem is one produced value of a node execution, bound to the output
// handle that exposes it.
type OutputItem struct {
	HandleID string
	Type     DataType
	Value    cty.Value
}

// Result is the outcome of one node execution.
type Result struct {
	Outputs []OutputItem
}

// Output returns the item bound to the given output handle id, or nil when
// the result carries no such item.
func (r *Result) Output(handleID string) *OutputItem {
	if r == nil {
		return nil
	}
	for i := range r.Outputs {
		if r.Outputs[i].HandleID == handleID {
			return &r.Outputs[i]
		}
	}
	return nil
}

// ResolvedInput is the snapshot of what a single input handle currently
// sees: the upstream output item it is connected to, or an invalid
// connection marker when the upstream value is missing or mistyped.
type ResolvedInput struct {
	ConnectionValid bool
	Value           *OutputItem
}

// Snapshot is a full copy of the graph as pushed by the external owner.
// Callers must not mutate a snapshot after handing it to the engine.
type Snapshot struct {
	Nodes   []Node
	Edges   []Edge
	Handles []Handle
}
