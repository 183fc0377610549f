// Package graph is the connection topology of an audio graph.
//
// Nodes live in an arena and are addressed by generational handles: removing
// a node bumps its slot generation, so a handle kept by the application after
// removal is detected as stale instead of silently addressing a new node.
// Edges join an output port of one node to an input port of another. The
// graph stays acyclic; a connection that would close a cycle is rejected and
// leaves the graph unchanged.
//
// Graph is not safe for concurrent use. The owner serializes mutation and
// hands compiled Plans, which are immutable snapshots, to the render thread.
package graph

import (
	"errors"
	"fmt"
)

// Errors returned by graph operations.
var (
	ErrStaleHandle = errors.New("graph: stale or unknown node handle")
	ErrCycle       = errors.New("graph: connection would create a cycle")
	ErrPortRange   = errors.New("graph: port index out of range")
)

// Handle addresses a node slot and the generation it was created in. The
// zero Handle never addresses a node.
type Handle struct {
	index uint32
	gen   uint32
}

// Index returns the arena slot of the handle.
func (h Handle) Index() int { return int(h.index) }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("node#%d.%d", h.index, h.gen)
}

// Edge joins output port Output of From to input port Input of To.
type Edge struct {
	From   Handle
	Output int
	To     Handle
	Input  int
}

func (e Edge) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", e.From, e.Output, e.To, e.Input)
}

type slot[T any] struct {
	gen     uint32
	live    bool
	value   T
	inputs  int
	outputs int
}

// Graph is an arena of nodes carrying values of type T plus the edge set
// between them.
type Graph[T any] struct {
	slots   []slot[T]
	free    []uint32
	edges   []Edge
	live    int
	version uint64

	cached     *Plan
	cachedSink Handle
	cachedVer  uint64
}

// New returns an empty graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{}
}

// Version changes whenever nodes or edges change.
func (g *Graph[T]) Version() uint64 { return g.version }

// Len returns the number of live nodes.
func (g *Graph[T]) Len() int { return g.live }

// Add inserts a node with the given port counts and returns its handle.
func (g *Graph[T]) Add(value T, inputs, outputs int) Handle {
	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		g.slots = append(g.slots, slot[T]{})
		idx = uint32(len(g.slots) - 1)
	}

	s := &g.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.live = true
	s.value = value
	s.inputs = max(inputs, 0)
	s.outputs = max(outputs, 0)

	g.live++
	g.version++

	return Handle{index: idx, gen: s.gen}
}

// Remove deletes a node and every edge touching it. The handle, and any copy
// of it, is stale afterwards.
func (g *Graph[T]) Remove(h Handle) error {
	s, err := g.slot(h)
	if err != nil {
		return err
	}

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != h && e.To != h {
			kept = append(kept, e)
		}
	}
	clear(g.edges[len(kept):])
	g.edges = kept

	var zero T
	s.value = zero
	s.live = false
	g.free = append(g.free, h.index)
	g.live--
	g.version++

	return nil
}

// Get returns the value stored for h.
func (g *Graph[T]) Get(h Handle) (T, error) {
	s, err := g.slot(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.value, nil
}

// Contains reports whether h addresses a live node.
func (g *Graph[T]) Contains(h Handle) bool {
	_, err := g.slot(h)
	return err == nil
}

// Ports returns the input and output port counts of h.
func (g *Graph[T]) Ports(h Handle) (inputs, outputs int, err error) {
	s, err := g.slot(h)
	if err != nil {
		return 0, 0, err
	}
	return s.inputs, s.outputs, nil
}

func (g *Graph[T]) slot(h Handle) (*slot[T], error) {
	if h.IsZero() || int(h.index) >= len(g.slots) {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := &g.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return s, nil
}

// Connect adds an edge. Connecting an existing edge again is a no-op. On
// error the graph is unchanged.
func (g *Graph[T]) Connect(e Edge) error {
	from, err := g.slot(e.From)
	if err != nil {
		return err
	}
	to, err := g.slot(e.To)
	if err != nil {
		return err
	}

	if e.Output < 0 || e.Output >= from.outputs {
		return fmt.Errorf("%w: output %d of %s has %d outputs", ErrPortRange, e.Output, e.From, from.outputs)
	}
	if e.Input < 0 || e.Input >= to.inputs {
		return fmt.Errorf("%w: input %d of %s has %d inputs", ErrPortRange, e.Input, e.To, to.inputs)
	}

	if e.From == e.To {
		return fmt.Errorf("%w: %s connects to itself", ErrCycle, e.From)
	}

	if g.hasEdge(e) {
		return nil
	}

	if g.reaches(e.To, e.From) {
		return fmt.Errorf("%w: %s", ErrCycle, e)
	}

	g.edges = append(g.edges, e)
	g.version++

	return nil
}

// Disconnect removes an edge and reports whether it existed.
func (g *Graph[T]) Disconnect(e Edge) bool {
	for i, cur := range g.edges {
		if cur == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			g.version++
			return true
		}
	}
	return false
}

// DisconnectAll removes every edge leaving h.
func (g *Graph[T]) DisconnectAll(h Handle) error {
	if _, err := g.slot(h); err != nil {
		return err
	}

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != h {
			kept = append(kept, e)
		}
	}
	if len(kept) != len(g.edges) {
		clear(g.edges[len(kept):])
		g.edges = kept
		g.version++
	}
	return nil
}

// Edges returns a copy of the edge set.
func (g *Graph[T]) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

func (g *Graph[T]) hasEdge(e Edge) bool {
	for _, cur := range g.edges {
		if cur == e {
			return true
		}
	}
	return false
}

// reaches reports whether target is reachable from start along edges.
func (g *Graph[T]) reaches(start, target Handle) bool {
	seen := map[Handle]bool{start: true}
	stack := []Handle{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, e := range g.edges {
			if e.From == cur && !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return false
}
