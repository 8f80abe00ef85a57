package graph

import (
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/waypoint/schema"
)

// frame is one entry of the explicit DFS stack.
type frame struct {
	node int
	next int // Index of the next edge to follow
}

// Cycles finds reference cycles among outstanding units. There is an edge
// A->B when A references a type B declares. Each cycle is reported once,
// rotated to start at its smallest path.
func Cycles(units []schema.SourceUnit) []schema.Cycle {
	var nodes []schema.SourceUnit
	for _, u := range units {
		if u.Status.Outstanding() {
			nodes = append(nodes, u)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	adj := edges(nodes)

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(nodes))
	position := make([]int, len(nodes))
	seen := make(map[string]struct{})
	var cycles []schema.Cycle

	for start := range nodes {
		if state[start] != unvisited {
			continue
		}
		stack := []frame{{node: start}}
		state[start], position[start] = onStack, 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(adj[top.node]) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			next := adj[top.node][top.next]
			top.next++

			switch state[next] {
			case unvisited:
				state[next], position[next] = onStack, len(stack)
				stack = append(stack, frame{node: next})
			case onStack:
				members := make([]int, 0, len(stack)-position[next])
				for _, f := range stack[position[next]:] {
					members = append(members, f.node)
				}
				c := newCycle(nodes, members)
				key := strings.Join(c.Paths, "\x00")
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					cycles = append(cycles, c)
				}
			}
		}
	}
	return cycles
}

// edges builds sorted adjacency lists over nodes.
func edges(nodes []schema.SourceUnit) [][]int {
	declarers := make(map[string][]int)
	for i, u := range nodes {
		for _, t := range u.DeclaredTypes {
			declarers[t] = append(declarers[t], i)
		}
	}
	adj := make([][]int, len(nodes))
	for i, u := range nodes {
		targets := make(map[int]struct{})
		for _, ref := range u.References {
			for _, j := range declarers[ref] {
				if j != i {
					targets[j] = struct{}{}
				}
			}
		}
		for j := range targets {
			adj[i] = append(adj[i], j)
		}
		slices.Sort(adj[i])
	}
	return adj
}

// newCycle rotates members so the smallest path comes first.
// Nodes are sorted by path, so that is the smallest index.
func newCycle(nodes []schema.SourceUnit, members []int) schema.Cycle {
	first := 0
	for i, m := range members {
		if m < members[first] {
			first = i
		}
	}
	rotated := append(slices.Clone(members[first:]), members[:first]...)

	c := schema.Cycle{}
	for _, m := range rotated {
		c.UnitIDs = append(c.UnitIDs, nodes[m].ID)
		c.Paths = append(c.Paths, nodes[m].Path)
	}
	return c
}
