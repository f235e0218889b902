package engine

import (
	"github.com/gatewai-dev/gatewai/internal/graph"
)

// connSignatures builds, for every node with at least one incoming edge, the
// set of connection signatures "(targetHandle, source, sourceHandle)" that
// describe its upstream wiring, plus the raw edge set of the snapshot.
func connSignatures(topo *graph.Topology) (map[string]map[string]struct{}, map[graph.Edge]struct{}) {
	conns := make(map[string]map[string]struct{})
	edges := make(map[graph.Edge]struct{})
	for _, id := range topo.NodeIDs() {
		for _, e := range topo.IncomingEdges(id) {
			set, ok := conns[id]
			if !ok {
				set = make(map[string]struct{})
				conns[id] = set
			}
			set[e.TargetHandle+"|"+e.Source+"|"+e.SourceHandle] = struct{}{}
			edges[e] = struct{}{}
		}
	}
	return conns, edges
}

// detectChangesLocked diffs the incoming snapshot against the previous one
// and computes the minimal invalidation set, then hands it to the dirty
// propagator. It runs on every update after the initial seed.
func (e *Engine) detectChangesLocked(topo *graph.Topology) {
	invalid := make(map[string]struct{})
	intrinsic := make(map[string]struct{})

	// Intrinsic change: the node's configuration (or externally replaced
	// result) no longer matches the signature that produced its current
	// result. Nodes seen for the first time have no signature and are
	// always invalidated.
	for _, id := range topo.NodeIDs() {
		n := topo.Node(id)
		st := e.ensureStateLocked(id)
		cur := signatureOf(n.Config, st.result)
		if !st.hasSig || st.sig != cur {
			invalid[id] = struct{}{}
			intrinsic[id] = struct{}{}
		}
	}

	// Extrinsic change, topology: a target is invalidated when its incoming
	// wiring appeared, changed shape, gained a new connection, or vanished
	// entirely.
	curConns, curEdges := connSignatures(topo)
	for target, curSet := range curConns {
		prevSet, ok := e.prevConns[target]
		switch {
		case !ok:
			invalid[target] = struct{}{}
		case len(prevSet) != len(curSet):
			invalid[target] = struct{}{}
		default:
			for sig := range curSet {
				if _, ok := prevSet[sig]; !ok {
					invalid[target] = struct{}{}
					break
				}
			}
		}
	}
	for target := range e.prevConns {
		if _, ok := curConns[target]; !ok && topo.HasNode(target) {
			// Previously connected, now orphaned.
			invalid[target] = struct{}{}
		}
	}

	// Extrinsic change, upstream value: an edge kept across both snapshots
	// whose source changed intrinsically carries a new value to its target
	// even though the wiring itself is untouched.
	for edge := range curEdges {
		if _, kept := e.prevEdges[edge]; !kept {
			continue
		}
		if _, changed := intrinsic[edge.Source]; changed {
			invalid[edge.Target] = struct{}{}
		}
	}

	e.prevConns, e.prevEdges = curConns, curEdges

	if len(invalid) > 0 {
		e.logger.Debug("Change detection complete.", "invalidated", len(invalid))
		e.propagateLocked(topo, invalid)
	}
}
