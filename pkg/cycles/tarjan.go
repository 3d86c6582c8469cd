package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph"
)

// TarjanSCC finds all strongly connected components using Tarjan's algorithm
type TarjanSCC struct {
	graph   graph.Directed
	index   int
	stack   []int64
	onStack map[int64]bool
	indices map[int64]int
	lowLink map[int64]int
	sccs    [][]int64
}

// NewTarjanSCC creates a new Tarjan SCC finder
func NewTarjanSCC(g graph.Directed) *TarjanSCC {
	return &TarjanSCC{
		graph:   g,
		stack:   make([]int64, 0),
		onStack: make(map[int64]bool),
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
		sccs:    make([][]int64, 0),
	}
}

// FindSCCs returns the strongly connected components with more than one
// node. Roots are tried in ascending ID order so the result is stable.
func (t *TarjanSCC) FindSCCs() [][]int64 {
	for _, id := range sortedIDs(t.graph.Nodes()) {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

type tarjanFrame struct {
	id         int64
	successors []int64
	next       int
}

// strongConnect runs Tarjan's algorithm from root with an explicit call stack
func (t *TarjanSCC) strongConnect(root int64) {
	calls := []*tarjanFrame{t.visit(root)}

	for len(calls) > 0 {
		frame := calls[len(calls)-1]

		if frame.next < len(frame.successors) {
			successorID := frame.successors[frame.next]
			frame.next++

			if _, visited := t.indices[successorID]; !visited {
				calls = append(calls, t.visit(successorID))
			} else if t.onStack[successorID] {
				// Successor is on stack and hence in the current SCC
				t.lowLink[frame.id] = min(t.lowLink[frame.id], t.indices[successorID])
			}
			continue
		}

		// All successors done: return to the caller
		calls = calls[:len(calls)-1]
		if len(calls) > 0 {
			parent := calls[len(calls)-1]
			t.lowLink[parent.id] = min(t.lowLink[parent.id], t.lowLink[frame.id])
		}

		// If frame.id is a root node, pop the stack and create an SCC
		if t.lowLink[frame.id] == t.indices[frame.id] {
			scc := make([]int64, 0)
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				scc = append(scc, w)
				if w == frame.id {
					break
				}
			}
			// Only add SCCs with more than one node (cycles)
			if len(scc) > 1 {
				t.sccs = append(t.sccs, scc)
			}
		}
	}
}

// visit assigns the depth index and pushes the node
func (t *TarjanSCC) visit(id int64) *tarjanFrame {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++

	t.stack = append(t.stack, id)
	t.onStack[id] = true

	return &tarjanFrame{id: id, successors: sortedIDs(t.graph.From(id))}
}

func sortedIDs(nodes graph.Nodes) []int64 {
	var ids []int64
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
