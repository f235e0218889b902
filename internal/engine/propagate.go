package engine

import (
	"github.com/gatewai-dev/gatewai/internal/graph"
)

// propagateLocked forward-closes an invalidation set across the dependency
// graph with a breadth-first traversal, marking every transitively
// dependent node stale exactly once. Nodes newly marked stale have any
// stored error cleared; in-flight work is cancelled pre-emptively so a
// superseded computation can never commit its result.
func (e *Engine) propagateLocked(topo *graph.Topology, seed map[string]struct{}) {
	queue := make([]string, 0, len(seed))
	for id := range seed {
		queue = append(queue, id)
	}

	visited := make(map[string]struct{}, len(seed))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		st := e.ensureStateLocked(id)
		st.stale = true
		st.err = nil
		if st.inFlight {
			if st.cancel != nil {
				st.cancel()
				st.cancel = nil
			}
			st.inFlight = false
			// Bump the invocation sequence so the superseded goroutine's
			// commit is rejected when it eventually returns.
			st.seq = e.nextSeqLocked()
			e.logger.Debug("Cancelled superseded in-flight work.", "nodeID", id)
		}

		for dependent := range topo.Dependents(id) {
			if _, ok := visited[dependent]; !ok {
				queue = append(queue, dependent)
			}
		}
	}
}
