package hclpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

func writePipeline(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validPipeline = `
node "greeting" {
  type = "text.constant"

  config {
    value = "hello"
  }

  output "text" {
    types = ["Text"]
  }
}

node "render" {
  type = "text.template"

  config {
    template = "{{.text}} world"
  }

  input "text" {
    types = ["Text"]
  }

  output "text" {
    types = ["Text"]
  }
}

edge {
  from = "greeting.text"
  to   = "render.text"
}
`

func TestLoadPath(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		path := writePipeline(t, "pipeline.hcl", validPipeline)

		snap, err := LoadPath(context.Background(), path)
		require.NoError(t, err)

		require.Len(t, snap.Nodes, 2)
		assert.Equal(t, "greeting", snap.Nodes[0].ID)
		assert.Equal(t, "text.constant", snap.Nodes[0].Type)

		value := graph.ConfigAttr(snap.Nodes[0].Config, "value")
		require.False(t, value.IsNull())
		assert.Equal(t, "hello", value.AsString())

		require.Len(t, snap.Edges, 1)
		assert.Equal(t, graph.HandleID("greeting", "text"), snap.Edges[0].SourceHandle)
		assert.Equal(t, graph.HandleID("render", "text"), snap.Edges[0].TargetHandle)

		// "render" declares both an input and an output named "text"; the
		// loader and index must keep the pair apart.
		require.Len(t, snap.Handles, 3)
		topo := graph.BuildTopology(snap)
		in := topo.InputHandle(graph.HandleID("render", "text"))
		require.NotNil(t, in)
		assert.Equal(t, graph.Input, in.Direction)
		assert.Equal(t, []graph.DataType{graph.TypeText}, in.Types)
		require.NotNil(t, topo.OutputHandle(graph.HandleID("render", "text")))
	})

	t.Run("directory with multiple files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
node "a" {
  type = "text.constant"
  output "text" {
    types = ["Text"]
  }
}
`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`
node "b" {
  type = "text.concat"
  input "left" {
    types = ["Text"]
  }
}

edge {
  from = "a.text"
  to   = "b.left"
}
`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not hcl"), 0o644))

		snap, err := LoadPath(context.Background(), dir)
		require.NoError(t, err)
		assert.Len(t, snap.Nodes, 2)
		assert.Len(t, snap.Edges, 1)
	})

	t.Run("no pipeline files", func(t *testing.T) {
		_, err := LoadPath(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no pipeline files")
	})
}

func TestLoadFilesErrors(t *testing.T) {
	load := func(t *testing.T, content string) error {
		t.Helper()
		path := writePipeline(t, "pipeline.hcl", content)
		_, err := LoadFiles(context.Background(), []string{path})
		return err
	}

	t.Run("syntax error", func(t *testing.T) {
		assert.Error(t, load(t, `node "a" {`))
	})

	t.Run("node name with dot", func(t *testing.T) {
		err := load(t, `
node "a.b" {
  type = "text.constant"
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not contain '.'")
	})

	t.Run("missing type attribute", func(t *testing.T) {
		assert.Error(t, load(t, `
node "a" {
}
`))
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		err := load(t, `
node "a" {
  type = "text.constant"
  output "text" {
    types = ["Text"]
  }
}

edge {
  from = "a.text"
  to   = "missing.in"
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown target node")
	})

	t.Run("edge from an input handle", func(t *testing.T) {
		err := load(t, `
node "a" {
  type = "text.constant"
  input "in" {
    types = ["Text"]
  }
}

node "b" {
  type = "text.concat"
  input "in" {
    types = ["Text"]
  }
}

edge {
  from = "a.in"
  to   = "b.in"
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an output handle")
	})

	t.Run("malformed edge reference", func(t *testing.T) {
		err := load(t, `
node "a" {
  type = "text.constant"
}

edge {
  from = "nodot"
  to   = "a.in"
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "node.handle")
	})

	t.Run("empty types list", func(t *testing.T) {
		err := load(t, `
node "a" {
  type = "text.constant"
  output "text" {
    types = []
  }
}
`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one data type")
	})
}

func TestDecodeConfigEmpty(t *testing.T) {
	path := writePipeline(t, "pipeline.hcl", `
node "a" {
  type = "text.constant"
  config {
  }
}
`)
	snap, err := LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 1)
	assert.True(t, snap.Nodes[0].Config.RawEquals(cty.EmptyObjectVal))
}
