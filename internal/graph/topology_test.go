package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Nodes: []Node{
			{ID: "A", Type: "source", Config: cty.EmptyObjectVal},
			{ID: "B", Type: "mid", Config: cty.EmptyObjectVal},
			{ID: "C", Type: "sink", Config: cty.EmptyObjectVal},
		},
		Handles: []Handle{
			{ID: HandleID("A", "out"), NodeID: "A", Direction: Output, Types: []DataType{TypeText}},
			{ID: HandleID("B", "in"), NodeID: "B", Direction: Input, Types: []DataType{TypeText}},
			{ID: HandleID("B", "out"), NodeID: "B", Direction: Output, Types: []DataType{TypeText}},
			{ID: HandleID("C", "in"), NodeID: "C", Direction: Input, Types: []DataType{TypeText}},
		},
		Edges: []Edge{
			{Source: "A", SourceHandle: HandleID("A", "out"), Target: "B", TargetHandle: HandleID("B", "in")},
			{Source: "B", SourceHandle: HandleID("B", "out"), Target: "C", TargetHandle: HandleID("C", "in")},
		},
	}
}

func TestBuildTopology(t *testing.T) {
	topo := BuildTopology(testSnapshot())

	t.Run("node lookup", func(t *testing.T) {
		require.True(t, topo.HasNode("A"))
		assert.False(t, topo.HasNode("Z"))
		require.NotNil(t, topo.Node("B"))
		assert.Equal(t, "mid", topo.Node("B").Type)
		assert.Nil(t, topo.Node("Z"))
	})

	t.Run("node ids are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"A", "B", "C"}, topo.NodeIDs())
	})

	t.Run("adjacency", func(t *testing.T) {
		assert.Contains(t, topo.Dependents("A"), "B")
		assert.NotContains(t, topo.Dependents("A"), "C")
		assert.Contains(t, topo.Dependencies("C"), "B")
		assert.Empty(t, topo.Dependencies("A"))
		assert.Empty(t, topo.Dependents("C"))
	})

	t.Run("handles by direction", func(t *testing.T) {
		ins := topo.NodeHandles("B", Input)
		require.Len(t, ins, 1)
		assert.Equal(t, HandleID("B", "in"), ins[0].ID)
		outs := topo.NodeHandles("B", Output)
		require.Len(t, outs, 1)
		assert.Equal(t, HandleID("B", "out"), outs[0].ID)

		assert.NotNil(t, topo.InputHandle(HandleID("B", "in")))
		assert.Nil(t, topo.OutputHandle(HandleID("B", "in")))
	})

	t.Run("incoming edges", func(t *testing.T) {
		edges := topo.IncomingEdges("B")
		require.Len(t, edges, 1)
		assert.Equal(t, "A", edges[0].Source)

		byHandle := topo.IncomingEdgesTo("B", HandleID("B", "in"))
		require.Len(t, byHandle, 1)
		assert.Empty(t, topo.IncomingEdgesTo("B", HandleID("B", "other")))
	})
}

func TestBuildTopologyDropsDanglingReferences(t *testing.T) {
	s := testSnapshot()
	// An edge naming a node missing from the snapshot and a handle owned by
	// a missing node must both be ignored.
	s.Edges = append(s.Edges, Edge{
		Source: "ghost", SourceHandle: HandleID("ghost", "out"),
		Target: "B", TargetHandle: HandleID("B", "in"),
	})
	s.Handles = append(s.Handles, Handle{
		ID: HandleID("ghost", "out"), NodeID: "ghost", Direction: Output, Types: []DataType{TypeText},
	})

	topo := BuildTopology(s)
	assert.Empty(t, topo.Dependents("ghost"))
	assert.Len(t, topo.IncomingEdges("B"), 1)
	assert.Nil(t, topo.OutputHandle(HandleID("ghost", "out")))
}

func TestBuildTopologyPassThroughHandles(t *testing.T) {
	// A pass-through node declares an input and an output under the same
	// local name; both must survive indexing under the shared global id.
	s := &Snapshot{
		Nodes: []Node{{ID: "render", Type: "mid", Config: cty.EmptyObjectVal}},
		Handles: []Handle{
			{ID: HandleID("render", "text"), NodeID: "render", Direction: Input, Types: []DataType{TypeText}},
			{ID: HandleID("render", "text"), NodeID: "render", Direction: Output, Types: []DataType{TypeText}},
		},
	}
	topo := BuildTopology(s)

	in := topo.InputHandle(HandleID("render", "text"))
	require.NotNil(t, in)
	assert.Equal(t, Input, in.Direction)

	out := topo.OutputHandle(HandleID("render", "text"))
	require.NotNil(t, out)
	assert.Equal(t, Output, out.Direction)

	require.Len(t, topo.NodeHandles("render", Input), 1)
	require.Len(t, topo.NodeHandles("render", Output), 1)
}

func TestDetectCycles(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		topo := BuildTopology(testSnapshot())
		assert.NoError(t, topo.DetectCycles())
	})

	t.Run("cycle reported", func(t *testing.T) {
		s := testSnapshot()
		s.Handles = append(s.Handles,
			Handle{ID: HandleID("C", "out"), NodeID: "C", Direction: Output, Types: []DataType{TypeText}},
			Handle{ID: HandleID("A", "in"), NodeID: "A", Direction: Input, Types: []DataType{TypeText}},
		)
		s.Edges = append(s.Edges, Edge{
			Source: "C", SourceHandle: HandleID("C", "out"),
			Target: "A", TargetHandle: HandleID("A", "in"),
		})
		err := BuildTopology(s).DetectCycles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("self loop", func(t *testing.T) {
		s := testSnapshot()
		s.Edges = append(s.Edges, Edge{
			Source: "B", SourceHandle: HandleID("B", "out"),
			Target: "B", TargetHandle: HandleID("B", "in"),
		})
		assert.Error(t, BuildTopology(s).DetectCycles())
	})
}

func TestHandleAccepts(t *testing.T) {
	h := Handle{Types: []DataType{TypeText, TypeImage}}
	assert.True(t, h.Accepts(TypeText))
	assert.True(t, h.Accepts(TypeImage))
	assert.False(t, h.Accepts(TypeVideo))
}

func TestResultOutput(t *testing.T) {
	r := &Result{Outputs: []OutputItem{
		{HandleID: "n.a", Type: TypeText, Value: cty.StringVal("x")},
	}}
	require.NotNil(t, r.Output("n.a"))
	assert.Nil(t, r.Output("n.b"))
	var nilRes *Result
	assert.Nil(t, nilRes.Output("n.a"))
}
