package engine

import (
	"hash"
	"hash/fnv"
	"io"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/gatewai-dev/gatewai/internal/graph"
)

// signatureOf computes the structural signature over a node's configuration
// and the outputs of its result. Correctness (detecting any relevant
// change) matters more than collision resistance here, so a fast FNV-1a
// hash over a canonical serialization is enough. cty's JSON encoding writes
// object attributes in sorted order, which keeps the serialization stable
// across runs; output items are additionally sorted by handle id.
func signatureOf(config cty.Value, res *graph.Result) uint64 {
	h := fnv.New64a()
	writeValue(h, config)
	if res != nil {
		items := make([]graph.OutputItem, len(res.Outputs))
		copy(items, res.Outputs)
		sort.Slice(items, func(i, j int) bool { return items[i].HandleID < items[j].HandleID })
		for _, item := range items {
			io.WriteString(h, "|")
			io.WriteString(h, item.HandleID)
			io.WriteString(h, "|")
			io.WriteString(h, string(item.Type))
			io.WriteString(h, "|")
			writeValue(h, item.Value)
		}
	}
	return h.Sum64()
}

func writeValue(h hash.Hash64, v cty.Value) {
	if v.Type() == cty.NilType {
		io.WriteString(h, "null")
		return
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		// Unknown and capsule values have no JSON form; GoString is still
		// deterministic for a given value.
		io.WriteString(h, v.GoString())
		return
	}
	h.Write(b)
}
