package graph

import (
	"fmt"
	"slices"
)

// Source is one contribution to an input port.
type Source struct {
	From   Handle
	Output int
}

// Step is one node evaluation in a Plan.
type Step struct {
	Node Handle
	// Inputs[i] lists the sources summed into input port i.
	Inputs [][]Source
	// Outputs is the node's output port count.
	Outputs int
}

// Plan is an immutable evaluation order for the nodes upstream of a sink,
// sink last. Every step appears after all of its sources.
type Plan struct {
	Version uint64
	Sink    Handle
	Steps   []Step
}

// Plan compiles the evaluation order pulled from sink. Nodes that cannot
// reach sink are not part of the plan. The result is cached until the graph
// changes, so repeated calls on an unchanged graph return the same Plan.
func (g *Graph[T]) Plan(sink Handle) (*Plan, error) {
	if _, err := g.slot(sink); err != nil {
		return nil, err
	}

	if g.cached != nil && g.cachedSink == sink && g.cachedVer == g.version {
		return g.cached, nil
	}

	p, err := g.compile(sink)
	if err != nil {
		return nil, err
	}

	g.cached = p
	g.cachedSink = sink
	g.cachedVer = g.version

	return p, nil
}

func (g *Graph[T]) compile(sink Handle) (*Plan, error) {
	// Upstream closure of sink.
	member := map[Handle]bool{sink: true}
	stack := []Handle{sink}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges {
			if e.To == cur && !member[e.From] {
				member[e.From] = true
				stack = append(stack, e.From)
			}
		}
	}

	indegree := make(map[Handle]int, len(member))
	outgoing := make(map[Handle][]Handle, len(member))
	for h := range member {
		indegree[h] = 0
	}
	for _, e := range g.edges {
		if member[e.From] && member[e.To] {
			indegree[e.To]++
			outgoing[e.From] = append(outgoing[e.From], e.To)
		}
	}

	// Kahn's algorithm; ties resolve by arena index for a stable order.
	queue := make([]Handle, 0, len(member))
	for h, d := range indegree {
		if d == 0 {
			queue = append(queue, h)
		}
	}
	sortHandles(queue)

	order := make([]Handle, 0, len(member))
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		order = append(order, h)

		var ready []Handle
		for _, to := range outgoing[h] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
		sortHandles(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(member) {
		return nil, fmt.Errorf("%w: upstream of %s", ErrCycle, sink)
	}

	steps := make([]Step, len(order))
	for i, h := range order {
		s := &g.slots[h.index]
		inputs := make([][]Source, s.inputs)
		for _, e := range g.edges {
			if e.To == h {
				inputs[e.Input] = append(inputs[e.Input], Source{From: e.From, Output: e.Output})
			}
		}
		steps[i] = Step{Node: h, Inputs: inputs, Outputs: s.outputs}
	}

	return &Plan{Version: g.version, Sink: sink, Steps: steps}, nil
}

func sortHandles(hs []Handle) {
	slices.SortFunc(hs, func(a, b Handle) int {
		return int(a.index) - int(b.index)
	})
}
