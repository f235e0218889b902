package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingProcessor marks a node whose type has no registered computation
// function. The node settles with this error and is not retried
// automatically.
var ErrMissingProcessor = errors.New("no processor registered")

// ErrUnknownNode is returned by manual triggers that reference a node id
// absent from the current snapshot.
var ErrUnknownNode = errors.New("unknown node")

// InvalidConnectionError reports that one or more of a node's inputs failed
// connection validation. Execution is aborted up front; the registered
// processor is never called with invalid inputs.
type InvalidConnectionError struct {
	NodeID string
	// Handles maps each failing input handle id to its validation message.
	Handles map[string]string
}

func (e *InvalidConnectionError) Error() string {
	ids := make([]string, 0, len(e.Handles))
	for id := range e.Handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "invalid input types for node '%s'", e.NodeID)
	for i, id := range ids {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", id, e.Handles[id])
	}
	return b.String()
}
