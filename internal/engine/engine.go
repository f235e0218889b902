package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

// DefaultMaxConcurrency bounds how many nodes of one readiness batch run at
// the same time. Wide graphs fan out aggressively, so the batch width is an
// explicit design parameter rather than unbounded.
const DefaultMaxConcurrency = 8

// Option customizes Engine construction.
type Option func(*Engine)

// WithMaxConcurrency overrides the per-batch concurrency limit.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithLogger injects the logger used for scheduling diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine keeps computed results consistent with a live-edited graph. See
// the package documentation for the execution model.
type Engine struct {
	reg            *registry.Registry
	logger         *slog.Logger
	maxConcurrency int

	rootCtx   context.Context
	cancelAll context.CancelFunc
	loopDone  chan struct{}
	wake      chan struct{}

	mu        sync.Mutex
	topo      *graph.Topology
	seeded    bool
	destroyed bool
	states    map[string]*nodeState
	// prevConns holds the per-target connection signature sets of the last
	// snapshot; prevEdges holds its raw edge set. Both feed change
	// detection on the next update.
	prevConns map[string]map[string]struct{}
	prevEdges map[graph.Edge]struct{}
	seq       uint64
	isIdle    bool
	idle      chan struct{}

	obsMu     sync.RWMutex
	observers map[uuid.UUID]Observer

	destroyOnce sync.Once
}

// New creates an Engine bound to the given processor registry and starts
// its scheduling loop. Call Destroy to release it.
func New(reg *registry.Registry, opts ...Option) *Engine {
	rootCtx, cancel := context.WithCancel(context.Background())
	closedIdle := make(chan struct{})
	close(closedIdle)

	e := &Engine{
		reg:            reg,
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
		rootCtx:        rootCtx,
		cancelAll:      cancel,
		loopDone:       make(chan struct{}),
		wake:           make(chan struct{}, 1),
		states:         make(map[string]*nodeState),
		isIdle:         true,
		idle:           closedIdle,
		observers:      make(map[uuid.UUID]Observer),
	}
	for _, opt := range opts {
		opt(e)
	}

	go e.run()
	return e
}

// UpdateGraph pushes a full graph snapshot. The first update seeds state
// from any previously persisted results; later updates diff against the
// previous snapshot, invalidate the affected nodes, and wake the scheduler.
// The caller must not mutate the snapshot afterwards.
func (e *Engine) UpdateGraph(s *graph.Snapshot) {
	topo := graph.BuildTopology(s)

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	if !e.seeded {
		e.seedLocked(topo)
		e.seeded = true
	} else {
		e.detectChangesLocked(topo)
	}
	e.topo = topo
	e.cleanupOrphansLocked(topo)
	e.markBusyLocked()
	e.mu.Unlock()

	e.signalWake()
}

// seedLocked handles the very first snapshot: nodes that already carry a
// persisted result are treated as satisfied and clean, everything else is
// marked stale. This avoids re-running work computed in a prior session.
func (e *Engine) seedLocked(topo *graph.Topology) {
	for _, id := range topo.NodeIDs() {
		n := topo.Node(id)
		st := e.ensureStateLocked(id)
		if n.Result != nil {
			st.result = n.Result
			st.sig = signatureOf(n.Config, n.Result)
			st.hasSig = true
			st.stale = false
		} else {
			st.stale = true
		}
	}
	e.prevConns, e.prevEdges = connSignatures(topo)
	e.logger.Debug("Graph seeded.", "nodes", len(topo.NodeIDs()))
}

// cleanupOrphansLocked deletes state for nodes that disappeared from the
// snapshot, firing any in-flight cancellation first. No event is emitted.
func (e *Engine) cleanupOrphansLocked(topo *graph.Topology) {
	for id, st := range e.states {
		if topo.HasNode(id) {
			continue
		}
		if st.cancel != nil {
			st.cancel()
			st.cancel = nil
		}
		delete(e.states, id)
		e.logger.Debug("Removed state for orphaned node.", "nodeID", id)
	}
}

// ProcessNode force-marks the node and its transitive dependents stale and
// wakes the scheduler.
func (e *Engine) ProcessNode(id string) error {
	e.mu.Lock()
	if e.topo == nil || !e.topo.HasNode(id) {
		e.mu.Unlock()
		return fmt.Errorf("%w: '%s'", ErrUnknownNode, id)
	}
	e.ensureStateLocked(id)
	e.propagateLocked(e.topo, map[string]struct{}{id: {}})
	e.markBusyLocked()
	e.mu.Unlock()

	e.signalWake()
	return nil
}

// RetryNode clears the node's stored error and stale-marks it without
// touching its dependents, then wakes the scheduler.
func (e *Engine) RetryNode(id string) error {
	e.mu.Lock()
	st, ok := e.states[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: '%s'", ErrUnknownNode, id)
	}
	st.err = nil
	st.stale = true
	if st.inFlight {
		if st.cancel != nil {
			st.cancel()
			st.cancel = nil
		}
		st.inFlight = false
		st.seq = e.nextSeqLocked()
	}
	e.markBusyLocked()
	e.mu.Unlock()

	e.signalWake()
	return nil
}

// Quiesce blocks until no node is stale or in flight, or until ctx is done.
// A cyclic subgraph never quiesces; callers that accept arbitrary graphs
// should pass a context with a deadline.
func (e *Engine) Quiesce(ctx context.Context) error {
	for {
		e.mu.Lock()
		idle := e.isIdle
		ch := e.idle
		e.mu.Unlock()

		if idle {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Destroy cancels all in-flight work, releases all state, and stops the
// scheduling loop. It is idempotent.
func (e *Engine) Destroy() {
	e.destroyOnce.Do(func() {
		e.mu.Lock()
		e.destroyed = true
		for _, st := range e.states {
			if st.cancel != nil {
				st.cancel()
				st.cancel = nil
			}
		}
		e.states = make(map[string]*nodeState)
		e.markIdleLocked()
		e.mu.Unlock()

		e.cancelAll()
		<-e.loopDone
	})
}

func (e *Engine) nextSeqLocked() uint64 {
	e.seq++
	return e.seq
}

// markBusyLocked reopens the idle gate so Quiesce callers wait for the next
// full drain.
func (e *Engine) markBusyLocked() {
	if e.isIdle {
		e.isIdle = false
		e.idle = make(chan struct{})
	}
}

func (e *Engine) markIdleLocked() {
	if !e.isIdle {
		e.isIdle = true
		close(e.idle)
	}
}

func (e *Engine) quiescentLocked() bool {
	for _, st := range e.states {
		if st.stale || st.inFlight {
			return false
		}
	}
	return true
}

// signalWake coalesces scheduling triggers: back-to-back invalidations
// collapse into a single drain pass.
func (e *Engine) signalWake() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
