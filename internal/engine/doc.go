// Package engine implements the incremental dataflow execution engine that
// keeps computed results consistent with a live-edited dependency graph.
//
// The engine consumes whole graph snapshots pushed by an external owner. On
// every update it rebuilds the topology index, diffs the new snapshot
// against the previous one to find the minimal invalidation set, forward-
// closes that set across the dependency graph (cancelling superseded
// in-flight work), and then drains "ready" stale nodes concurrently until
// the graph reaches quiescence.
//
// State is single-writer: only the engine mutates node state records, and
// every mutation happens under one mutex, so readiness checks and state
// transitions never interleave at a finer grain than one node transition.
//
// The engine does not enforce acyclicity. Members of a cyclic subgraph
// simply never become ready and the graph never quiesces; front-ends that
// load static pipelines should reject cycles up front via
// graph.Topology.DetectCycles.
package engine
