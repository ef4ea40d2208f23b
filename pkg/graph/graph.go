// Package graph holds the merged multi-channel upgrade graph.
//
// A Graph maps every version to the set of edges leaving it. Edges between
// the same two versions reached through different channels are kept side by
// side so that a path can report which channel justified each hop.
package graph

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/adfinis/ocp-upgrade-path/pkg/types"
)

// Graph is an adjacency structure keyed by source version.
// The zero value is not usable; call New.
type Graph struct {
	out map[types.Version]sets.Set[types.Edge]
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{out: make(map[types.Version]sets.Set[types.Edge])}
}

// FromEdges builds a graph containing the given edges.
func FromEdges(edges ...types.Edge) *Graph {
	g := New()
	for _, e := range edges {
		g.AddEdge(e)
	}
	return g
}

// AddEdge files e under its From version. Adding the same edge twice is a no-op.
func (g *Graph) AddEdge(e types.Edge) {
	s, ok := g.out[e.From]
	if !ok {
		s = sets.New[types.Edge]()
		g.out[e.From] = s
	}
	s.Insert(e)
}

// Edges returns the outgoing edges of v ordered by destination, then channel.
// The returned slice is a copy.
func (g *Graph) Edges(v types.Version) []types.Edge {
	s, ok := g.out[v]
	if !ok {
		return nil
	}
	edges := s.UnsortedList()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Via < edges[j].Via
	})
	return edges
}

// Sources returns every version that has at least one outgoing edge, sorted.
func (g *Graph) Sources() []types.Version {
	versions := make([]types.Version, 0, len(g.out))
	for v := range g.out {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Versions returns every version that appears as a source or destination, sorted.
func (g *Graph) Versions() []types.Version {
	seen := sets.New[types.Version]()
	for from, edges := range g.out {
		seen.Insert(from)
		for e := range edges {
			seen.Insert(e.To)
		}
	}
	return sets.List(seen)
}

// EdgeCount returns the total number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, s := range g.out {
		n += s.Len()
	}
	return n
}

// Merge adds every edge of addition to acc, creating keys as needed, and
// returns acc. Merging is a per-version set union, so it is commutative
// and idempotent.
func Merge(acc, addition *Graph) *Graph {
	for from, edges := range addition.out {
		s, ok := acc.out[from]
		if !ok {
			s = sets.New[types.Edge]()
			acc.out[from] = s
		}
		s.Insert(edges.UnsortedList()...)
	}
	return acc
}

// Fold merges graphs into a fresh graph, leaving the inputs untouched.
func Fold(graphs ...*Graph) *Graph {
	acc := New()
	for _, g := range graphs {
		if g == nil {
			continue
		}
		Merge(acc, g)
	}
	return acc
}
