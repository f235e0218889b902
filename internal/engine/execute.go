package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// invocation is one execution attempt of one node, prepared under the
// engine lock and carried into an executor goroutine.
type invocation struct {
	node   *graph.Node
	ctx    context.Context
	seq    uint64
	inputs map[string]graph.ResolvedInput

	// fn is the processor to run; nil means the node type is unregistered.
	fn registry.ProcessorFunc
	// invalid is set when input validation failed; the processor is then
	// never called.
	invalid *InvalidConnectionError
}

// beginInvocationLocked transitions a ready node into flight: inputs are
// resolved and attached to the state record, the error is cleared, and a
// fresh cancellation token is created.
func (e *Engine) beginInvocationLocked(id string, st *nodeState) *invocation {
	n := e.topo.Node(id)

	resolved, validation := e.resolveInputsLocked(n)
	st.resolved = resolved
	st.validation = validation
	st.err = nil
	st.inFlight = true
	st.seq = e.nextSeqLocked()

	ctx, cancel := context.WithCancel(ctxlog.WithLogger(e.rootCtx, e.logger))
	st.cancel = cancel

	inv := &invocation{
		node:   n,
		ctx:    ctx,
		seq:    st.seq,
		inputs: resolved,
	}
	if len(validation) > 0 {
		inv.invalid = &InvalidConnectionError{NodeID: id, Handles: validation}
	} else if fn, ok := e.reg.Processor(n.Type); ok {
		inv.fn = fn
	}
	return inv
}

// execute runs one invocation to a terminal state and commits the outcome.
func (e *Engine) execute(inv *invocation) {
	e.emitStart(NodeStartEvent{NodeID: inv.node.ID, Inputs: inv.inputs})

	var (
		res *graph.Result
		err error
	)
	switch {
	case inv.invalid != nil:
		err = inv.invalid
	case inv.fn == nil:
		err = fmt.Errorf("%w for node type '%s'", ErrMissingProcessor, inv.node.Type)
	default:
		res, err = e.callProcessor(inv)
	}
	e.commit(inv, res, err)
}

func (e *Engine) callProcessor(inv *invocation) (res *graph.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor for node '%s' panicked: %v", inv.node.ID, r)
		}
	}()
	return inv.fn(inv.ctx, inv.node, inv.inputs)
}

// commit writes an invocation's outcome back into the state store. The
// write path re-checks that this is still the active invocation, so a
// result is never written back for a node whose state moved on in the
// meantime.
func (e *Engine) commit(inv *invocation, res *graph.Result, err error) {
	canceled := inv.ctx.Err() != nil || errors.Is(err, context.Canceled)

	e.mu.Lock()
	st, ok := e.states[inv.node.ID]
	if !ok || st.seq != inv.seq {
		// Superseded or orphaned while running; the outcome is discarded.
		e.mu.Unlock()
		return
	}

	st.inFlight = false
	if st.cancel != nil {
		st.cancel()
		st.cancel = nil
	}

	var emit func()
	switch {
	case canceled:
		// Cancellation is normal control flow, not a failure: the node
		// stays stale and the next scheduling pass retries it.
		st.stale = true
	case err != nil:
		st.err = err
		st.result = nil
		st.stale = false
		// Settle the signature so an identical re-submission does not
		// retry the failure; only a config change (or RetryNode) does.
		st.sig = signatureOf(inv.node.Config, nil)
		st.hasSig = true
		emit = func() { e.emitError(NodeErrorEvent{NodeID: inv.node.ID, Err: err}) }
	default:
		st.result = res
		st.err = nil
		st.stale = false
		st.sig = signatureOf(inv.node.Config, res)
		st.hasSig = true
		emit = func() { e.emitProcessed(NodeProcessedEvent{NodeID: inv.node.ID, Result: res}) }
	}
	e.mu.Unlock()

	if emit != nil {
		emit()
	}
}
