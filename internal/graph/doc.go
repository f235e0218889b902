// Package graph defines the snapshot data model for a pipeline graph (nodes,
// edges, typed handles, results) and the topology index derived from each
// snapshot. Snapshots are owned by the external graph editor; the engine only
// reads them and never creates or deletes nodes itself.
package graph
