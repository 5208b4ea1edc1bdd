package analysis

import (
	"strconv"

	"github.com/coregx/redoscheck/internal/conv"
	"github.com/coregx/redoscheck/internal/sparse"
	"github.com/coregx/redoscheck/syntax"
)

// callGraph is the graph of subexpression calls between groups. Group 0 is
// the whole pattern. Executing a group executes the groups nested directly
// in it and the targets of the calls directly in it, so it has an edge to
// each of them.
//
// A call c to group t lies directly in its innermost group e, and e has an
// edge to t. Executing t can reach c again exactly when t reaches e, that is
// when t and e are in the same strongly connected component. One pass of
// Tarjan's algorithm answers this for every call of the pattern.
type callGraph struct {
	pat   *syntax.Pattern
	edges [][]int
	inner map[*syntax.Node]int

	// Tarjan state. index is 0 for groups not visited yet.
	index, low []int
	onStack    []bool
	stack      []int
	comp       []int
	next       int
	ncomp      int
}

func newCallGraph(pat *syntax.Pattern) *callGraph {
	n := pat.NumGroups() + 1
	g := &callGraph{
		pat:   pat,
		edges: make([][]int, n),
		inner: make(map[*syntax.Node]int),
	}
	g.walk(pat.Root, 0)
	g.dedup(sparse.NewSparseSet(n))
	g.components()
	return g
}

func (g *callGraph) walk(n *syntax.Node, cur int) {
	if n.Capturing() {
		g.edges[cur] = append(g.edges[cur], n.Index)
		cur = n.Index
	}
	if n.Op == syntax.OpCall {
		g.edges[cur] = append(g.edges[cur], n.Ref.Index)
		g.inner[n] = cur
	}
	for _, sub := range n.Sub {
		g.walk(sub, cur)
	}
}

// dedup drops repeated edges, left by several calls to one group.
func (g *callGraph) dedup(seen *sparse.SparseSet) {
	for i, list := range g.edges {
		seen.Clear()
		out := list[:0]
		for _, t := range list {
			if seen.Insert(conv.IntToUint32(t)) {
				out = append(out, t)
			}
		}
		g.edges[i] = out
	}
}

func (g *callGraph) components() {
	n := len(g.edges)
	g.index = make([]int, n)
	g.low = make([]int, n)
	g.onStack = make([]bool, n)
	g.comp = make([]int, n)
	for v := range n {
		if g.index[v] == 0 {
			g.strongConnect(v)
		}
	}
}

func (g *callGraph) strongConnect(v int) {
	g.next++
	g.index[v], g.low[v] = g.next, g.next
	g.stack = append(g.stack, v)
	g.onStack[v] = true

	for _, w := range g.edges[v] {
		switch {
		case g.index[w] == 0:
			g.strongConnect(w)
			g.low[v] = min(g.low[v], g.low[w])
		case g.onStack[w]:
			g.low[v] = min(g.low[v], g.index[w])
		}
	}

	if g.low[v] != g.index[v] {
		return
	}
	for {
		w := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]
		g.onStack[w] = false
		g.comp[w] = g.ncomp
		if w == v {
			break
		}
	}
	g.ncomp++
}

// recursive reports whether call can invoke itself again.
func (g *callGraph) recursive(call *syntax.Node) bool {
	return g.comp[call.Ref.Index] == g.comp[g.inner[call]]
}

// detail describes a call for a verdict.
func (g *callGraph) detail(call *syntax.Node) string {
	target := groupLabel(g.pat, call.Ref.Index)
	if g.recursive(call) {
		return "recursive call to group " + target
	}
	return "call to group " + target
}

// groupLabel names group i by its name, or by its number if unnamed.
func groupLabel(pat *syntax.Pattern, i int) string {
	if name := pat.GroupName(i); name != "" {
		return name
	}
	return strconv.Itoa(i)
}
