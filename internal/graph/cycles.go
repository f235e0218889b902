package graph

import "fmt"

// DetectCycles checks the indexed graph for dependency cycles. It returns a
// non-nil error naming the first node found inside a cycle. The engine
// itself tolerates cycles (their members simply never become ready), so this
// check is for front-ends that want to reject a static pipeline up front.
func (t *Topology) DetectCycles() error {
	// Classic depth-first search with two marker sets: permanent for nodes
	// proven safe, temporary for nodes on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving node '%s'", id)
		}

		temporary[id] = true
		for dependent := range t.forward[id] {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for id := range t.nodes {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
