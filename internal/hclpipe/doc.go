// Package hclpipe loads pipeline definitions written in HCL into graph
// snapshots. A pipeline file declares typed nodes with config, input and
// output blocks, and edges wiring output handles to input handles:
//
//	node "prompt" {
//	  type = "text.constant"
//
//	  config {
//	    value = "hello world"
//	  }
//
//	  output "text" {
//	    types = ["Text"]
//	  }
//	}
//
//	edge {
//	  from = "prompt.text"
//	  to   = "upper.in"
//	}
//
// Handle references use the "node.handle" form; the loader validates that
// every edge endpoint names a declared node and handle of the right
// direction.
package hclpipe
