package engine

import (
	"context"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

// nodeState is the engine-private execution record for one node. It is
// created lazily the first time a node id is seen, survives graph updates
// for nodes that still exist, and is deleted (with its cancellation fired)
// when the node disappears from a snapshot. All fields are guarded by the
// engine mutex.
type nodeState struct {
	stale    bool
	inFlight bool

	result *graph.Result
	err    error

	// cancel is the active invocation's cancellation token. At most one is
	// live per node at any time.
	cancel context.CancelFunc
	// seq identifies the active invocation. The commit path re-checks it so
	// a superseded invocation can never write its result back.
	seq uint64

	// sig is the structural signature of the config and outputs that
	// produced the current result. hasSig distinguishes "no signature yet"
	// from a genuine zero hash.
	sig    uint64
	hasSig bool

	resolved   map[string]graph.ResolvedInput
	validation map[string]string
}

// settled reports whether the node has reached a terminal state for the
// current graph: it is neither stale nor in flight and carries either a
// result or a terminal error. Settled ancestors unblock their dependents;
// an error-settled ancestor lets the dependent record its own invalid-input
// condition instead of inheriting the upstream error.
func (st *nodeState) settled() bool {
	return !st.stale && !st.inFlight && (st.result != nil || st.err != nil)
}

// NodeState is the externally visible copy of a node's execution record.
type NodeState struct {
	Stale          bool
	InFlight       bool
	Result         *graph.Result
	Err            error
	ResolvedInputs map[string]graph.ResolvedInput
}

// NodeState returns a copy of the node's current execution state, or nil if
// the node has never been seen.
func (e *Engine) NodeState(id string) *NodeState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[id]
	if !ok {
		return nil
	}
	out := &NodeState{
		Stale:    st.stale,
		InFlight: st.inFlight,
		Result:   st.result,
		Err:      st.err,
	}
	if st.resolved != nil {
		out.ResolvedInputs = make(map[string]graph.ResolvedInput, len(st.resolved))
		for k, v := range st.resolved {
			out.ResolvedInputs[k] = v
		}
	}
	return out
}

// NodeResult returns the node's last stored result, or nil. The result is
// only authoritative while the node is not stale; callers that care should
// consult NodeState.
func (e *Engine) NodeResult(id string) *graph.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.states[id]; ok {
		return st.result
	}
	return nil
}

// NodeValidation returns the per-handle validation messages recorded by the
// node's most recent input resolution. An empty map means every connection
// was valid.
func (e *Engine) NodeValidation(id string) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[id]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(st.validation))
	for k, v := range st.validation {
		out[k] = v
	}
	return out
}

// ensureStateLocked returns the state record for id, creating it lazily.
func (e *Engine) ensureStateLocked(id string) *nodeState {
	st, ok := e.states[id]
	if !ok {
		st = &nodeState{}
		e.states[id] = st
	}
	return st
}
