package engine

import (
	"golang.org/x/sync/errgroup"
)

// run is the engine's single dedicated scheduling goroutine. It sleeps on
// the coalescing wake channel and drains the graph to quiescence each time
// it is signalled. Triggers that arrive mid-drain stay queued in the
// channel, so a retry requested while draining reschedules the loop instead
// of leaving trailing work idle.
func (e *Engine) run() {
	defer close(e.loopDone)
	for {
		select {
		case <-e.rootCtx.Done():
			return
		case <-e.wake:
		}
		e.drain()
	}
}

// drain repeatedly computes the full ready set and executes it as one
// concurrent batch, waiting for the whole batch before reassessing
// readiness. A node that becomes ready only after its sibling batch
// completes is picked up on the next pass. The loop exits when a pass
// yields no ready nodes.
func (e *Engine) drain() {
	for {
		batch := e.collectReadyBatch()
		if len(batch) == 0 {
			e.mu.Lock()
			if e.quiescentLocked() {
				e.markIdleLocked()
			}
			e.mu.Unlock()
			return
		}

		e.logger.Debug("Executing readiness batch.", "size", len(batch), "limit", e.maxConcurrency)
		g := new(errgroup.Group)
		g.SetLimit(e.maxConcurrency)
		for _, inv := range batch {
			g.Go(func() error {
				e.execute(inv)
				return nil
			})
		}
		_ = g.Wait()

		if e.rootCtx.Err() != nil {
			return
		}
	}
}

// collectReadyBatch acquires the engine lock, finds every ready node, and
// begins an invocation for each. A node is ready when it is stale, not in
// flight, and all of its reverse-adjacent ancestors are settled.
func (e *Engine) collectReadyBatch() []*invocation {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.topo == nil || e.destroyed {
		return nil
	}

	var batch []*invocation
	for _, id := range e.topo.NodeIDs() {
		st, ok := e.states[id]
		if !ok || !st.stale || st.inFlight {
			continue
		}
		if !e.ancestorsSettledLocked(id) {
			continue
		}
		batch = append(batch, e.beginInvocationLocked(id, st))
	}
	return batch
}

func (e *Engine) ancestorsSettledLocked(id string) bool {
	for dep := range e.topo.Dependencies(id) {
		st, ok := e.states[dep]
		if !ok || !st.settled() {
			return false
		}
	}
	return true
}
