package graph

import "sort"

// Topology is the adjacency index rebuilt from a snapshot on every graph
// update. It is immutable once built; readers never observe a half-updated
// index because the engine swaps the whole value atomically under its lock.
type Topology struct {
	nodes map[string]*Node
	// Handles are keyed per direction: an input and an output may share one
	// global id (same local name on the same node, the usual shape for
	// pass-through nodes), so a single map would drop one of them.
	inputs  map[string]*Handle
	outputs map[string]*Handle

	// forward maps a node id to the set of node ids that depend on it.
	forward map[string]map[string]struct{}
	// reverse maps a node id to the set of node ids it depends on.
	reverse map[string]map[string]struct{}
	// incoming maps a target node id to its incoming edges.
	incoming map[string][]Edge
}

// BuildTopology indexes the snapshot in O(|nodes| + |edges|). Edges that
// reference a node absent from the snapshot are silently dropped, which
// defends against stale references during partial updates. Handles owned by
// absent nodes are dropped the same way.
func BuildTopology(s *Snapshot) *Topology {
	t := &Topology{
		nodes:    make(map[string]*Node, len(s.Nodes)),
		inputs:   make(map[string]*Handle),
		outputs:  make(map[string]*Handle),
		forward:  make(map[string]map[string]struct{}),
		reverse:  make(map[string]map[string]struct{}),
		incoming: make(map[string][]Edge),
	}

	for i := range s.Nodes {
		n := &s.Nodes[i]
		t.nodes[n.ID] = n
	}
	for i := range s.Handles {
		h := &s.Handles[i]
		if _, ok := t.nodes[h.NodeID]; !ok {
			continue
		}
		if h.Direction == Output {
			t.outputs[h.ID] = h
		} else {
			t.inputs[h.ID] = h
		}
	}
	for _, e := range s.Edges {
		if _, ok := t.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := t.nodes[e.Target]; !ok {
			continue
		}
		addToSet(t.forward, e.Source, e.Target)
		addToSet(t.reverse, e.Target, e.Source)
		t.incoming[e.Target] = append(t.incoming[e.Target], e)
	}
	return t
}

func addToSet(m map[string]map[string]struct{}, key, member string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[member] = struct{}{}
}

// Node returns the snapshot node with the given id, or nil.
func (t *Topology) Node(id string) *Node {
	return t.nodes[id]
}

// HasNode reports whether the snapshot contains the given node id.
func (t *Topology) HasNode(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// NodeIDs returns the ids of every node in the snapshot, sorted so that
// iteration over the graph is deterministic.
func (t *Topology) NodeIDs() []string {
	ids := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InputHandle returns the input handle with the given global id, or nil.
func (t *Topology) InputHandle(id string) *Handle {
	return t.inputs[id]
}

// OutputHandle returns the output handle with the given global id, or nil.
func (t *Topology) OutputHandle(id string) *Handle {
	return t.outputs[id]
}

// NodeHandles returns the node's handles with the given direction.
func (t *Topology) NodeHandles(nodeID string, dir HandleDirection) []*Handle {
	m := t.inputs
	if dir == Output {
		m = t.outputs
	}
	var out []*Handle
	for _, h := range m {
		if h.NodeID == nodeID {
			out = append(out, h)
		}
	}
	return out
}

// Dependents returns the set of node ids directly downstream of id.
func (t *Topology) Dependents(id string) map[string]struct{} {
	return t.forward[id]
}

// Dependencies returns the set of node ids directly upstream of id.
func (t *Topology) Dependencies(id string) map[string]struct{} {
	return t.reverse[id]
}

// IncomingEdges returns the edges whose target is the given node.
func (t *Topology) IncomingEdges(nodeID string) []Edge {
	return t.incoming[nodeID]
}

// IncomingEdgesTo returns the edges targeting one specific input handle.
func (t *Topology) IncomingEdgesTo(nodeID, handleID string) []Edge {
	var out []Edge
	for _, e := range t.incoming[nodeID] {
		if e.TargetHandle == handleID {
			out = append(out, e)
		}
	}
	return out
}
