// Package testutil provides shared helpers for engine and integration
// tests: snapshot builders, stub processors, and a recording observer.
package testutil

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/engine"
	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// QuiesceTimeout bounds how long tests wait for the graph to settle.
const QuiesceTimeout = 5 * time.Second

// NewEngine creates an engine bound to reg and registers its teardown.
func NewEngine(t *testing.T, reg *registry.Registry, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng := engine.New(reg, opts...)
	t.Cleanup(eng.Destroy)
	return eng
}

// Quiesce drains the engine and fails the test on timeout.
func Quiesce(t *testing.T, eng *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), QuiesceTimeout)
	defer cancel()
	require.NoError(t, eng.Quiesce(ctx), "engine did not reach quiescence")
}

// Node builds a snapshot node with the given opaque config.
func Node(id, nodeType string, config cty.Value) graph.Node {
	return graph.Node{ID: id, Type: nodeType, Config: config}
}

// NodeWithResult builds a snapshot node carrying a previously persisted
// result.
func NodeWithResult(id, nodeType string, config cty.Value, res *graph.Result) graph.Node {
	return graph.Node{ID: id, Type: nodeType, Config: config, Result: res}
}

// InHandle builds an input handle named local on the given node.
func InHandle(nodeID, local string, types ...graph.DataType) graph.Handle {
	return graph.Handle{
		ID:        graph.HandleID(nodeID, local),
		NodeID:    nodeID,
		Direction: graph.Input,
		Types:     types,
	}
}

// OutHandle builds an output handle named local on the given node.
func OutHandle(nodeID, local string, types ...graph.DataType) graph.Handle {
	return graph.Handle{
		ID:        graph.HandleID(nodeID, local),
		NodeID:    nodeID,
		Direction: graph.Output,
		Types:     types,
	}
}

// Wire builds an edge between two "node, local handle" pairs.
func Wire(srcNode, srcLocal, dstNode, dstLocal string) graph.Edge {
	return graph.Edge{
		Source:       srcNode,
		SourceHandle: graph.HandleID(srcNode, srcLocal),
		Target:       dstNode,
		TargetHandle: graph.HandleID(dstNode, dstLocal),
	}
}

// TextResult builds a single-output text result bound to the node's local
// output handle.
func TextResult(nodeID, local, value string) *graph.Result {
	return &graph.Result{Outputs: []graph.OutputItem{{
		HandleID: graph.HandleID(nodeID, local),
		Type:     graph.TypeText,
		Value:    cty.StringVal(value),
	}}}
}

// StaticProcessor returns a processor that always succeeds with res.
func StaticProcessor(res *graph.Result) registry.ProcessorFunc {
	return func(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
		return res, nil
	}
}

// FailingProcessor returns a processor that always fails with err.
func FailingProcessor(err error) registry.ProcessorFunc {
	return func(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
		return nil, err
	}
}

// BlockingProcessor returns a processor that signals started (if non-nil)
// and then blocks until release is closed or the invocation is cancelled.
// On release it succeeds with res.
func BlockingProcessor(started chan<- string, release <-chan struct{}, res *graph.Result) registry.ProcessorFunc {
	return func(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
		if started != nil {
			started <- node.ID
		}
		select {
		case <-release:
			return res, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Recorder is a thread-safe engine.Observer that collects every event.
type Recorder struct {
	mu        sync.Mutex
	starts    []engine.NodeStartEvent
	processed []engine.NodeProcessedEvent
	errors    []engine.NodeErrorEvent
}

var _ engine.Observer = (*Recorder)(nil)

func (r *Recorder) OnNodeStart(ev engine.NodeStartEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, ev)
}

func (r *Recorder) OnNodeProcessed(ev engine.NodeProcessedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, ev)
}

func (r *Recorder) OnNodeError(ev engine.NodeErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, ev)
}

// Starts returns a copy of the recorded node:start events.
func (r *Recorder) Starts() []engine.NodeStartEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.NodeStartEvent(nil), r.starts...)
}

// Processed returns a copy of the recorded node:processed events.
func (r *Recorder) Processed() []engine.NodeProcessedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.NodeProcessedEvent(nil), r.processed...)
}

// Errors returns a copy of the recorded node:error events.
func (r *Recorder) Errors() []engine.NodeErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.NodeErrorEvent(nil), r.errors...)
}

// ProcessedIDs returns the node ids of processed events in emission order.
func (r *Recorder) ProcessedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.processed))
	for _, ev := range r.processed {
		ids = append(ids, ev.NodeID)
	}
	return ids
}

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}
