package engine

import (
	"github.com/google/uuid"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

// NodeStartEvent is emitted after a node's inputs have been resolved and
// validated, immediately before its processor runs (or before the node
// settles with an invalid-input error).
type NodeStartEvent struct {
	NodeID string
	Inputs map[string]graph.ResolvedInput
}

// NodeProcessedEvent is emitted when a node execution commits successfully.
type NodeProcessedEvent struct {
	NodeID string
	Result *graph.Result
}

// NodeErrorEvent is emitted when a node settles in a failed state.
// Cancellation of superseded work is normal control flow and never produces
// this event.
type NodeErrorEvent struct {
	NodeID string
	Err    error
}

// Observer receives per-node lifecycle transitions. Callbacks are invoked
// synchronously from executor goroutines and must not block; no event
// history is retained, so late subscribers should query NodeState for the
// current picture.
type Observer interface {
	OnNodeStart(NodeStartEvent)
	OnNodeProcessed(NodeProcessedEvent)
	OnNodeError(NodeErrorEvent)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil
// fields are skipped.
type ObserverFuncs struct {
	Start     func(NodeStartEvent)
	Processed func(NodeProcessedEvent)
	Error     func(NodeErrorEvent)
}

func (o ObserverFuncs) OnNodeStart(ev NodeStartEvent) {
	if o.Start != nil {
		o.Start(ev)
	}
}

func (o ObserverFuncs) OnNodeProcessed(ev NodeProcessedEvent) {
	if o.Processed != nil {
		o.Processed(ev)
	}
}

func (o ObserverFuncs) OnNodeError(ev NodeErrorEvent) {
	if o.Error != nil {
		o.Error(ev)
	}
}

// Subscribe registers an observer and returns a token for Unsubscribe.
func (e *Engine) Subscribe(obs Observer) uuid.UUID {
	token := uuid.New()
	e.obsMu.Lock()
	e.observers[token] = obs
	e.obsMu.Unlock()
	return token
}

// Unsubscribe removes a previously registered observer. Unknown tokens are
// ignored.
func (e *Engine) Unsubscribe(token uuid.UUID) {
	e.obsMu.Lock()
	delete(e.observers, token)
	e.obsMu.Unlock()
}

func (e *Engine) snapshotObservers() []Observer {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	out := make([]Observer, 0, len(e.observers))
	for _, obs := range e.observers {
		out = append(out, obs)
	}
	return out
}

func (e *Engine) emitStart(ev NodeStartEvent) {
	for _, obs := range e.snapshotObservers() {
		obs.OnNodeStart(ev)
	}
}

func (e *Engine) emitProcessed(ev NodeProcessedEvent) {
	for _, obs := range e.snapshotObservers() {
		obs.OnNodeProcessed(ev)
	}
}

func (e *Engine) emitError(ev NodeErrorEvent) {
	for _, obs := range e.snapshotObservers() {
		obs.OnNodeError(ev)
	}
}
