package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/namedtensor/internal/ir"
)

// CycleError reports ops that depend on each other.
type CycleError struct {
	Path []string // e.g. ["a", "b", "a"]
}

func (e *CycleError) Error() string {
	if len(e.Path) == 2 {
		return fmt.Sprintf("op %s uses its own result", e.Path[0])
	}
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " → "))
}

// Schedule reorders g.Ops into evaluation order: every op comes after the
// ops whose results it consumes. Among ops that are ready at the same time,
// declaration order is kept, so an already ordered graph is unchanged.
//
// Inputs that name no op are treated as declared tensors. Returns a
// *CycleError if the ops cannot be ordered; g is unchanged on error.
func Schedule(g *ir.Graph) error {
	if err := detectCycles(g); err != nil {
		return err
	}

	deps := buildDependencyGraph(g)
	done := make(map[string]bool, len(g.Ops))
	ordered := make([]ir.OpDecl, 0, len(g.Ops))
	placed := make([]bool, len(g.Ops))

	for len(ordered) < len(g.Ops) {
		progressed := false
		for i, op := range g.Ops {
			if placed[i] || !ready(deps[op.ID], done) {
				continue
			}
			ordered = append(ordered, op)
			placed[i] = true
			done[op.ID] = true
			progressed = true
			break
		}
		if !progressed {
			return fmt.Errorf("schedule: cannot order ops of graph %q", g.Name)
		}
	}

	g.Ops = ordered
	return nil
}

func ready(deps []string, done map[string]bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// dependencyGraph maps op id → ids of the ops whose results it consumes.
type dependencyGraph map[string][]string

// buildDependencyGraph constructs the op dependency graph. Inputs naming
// declared tensors (or nothing) contribute no edges.
func buildDependencyGraph(g *ir.Graph) dependencyGraph {
	isOp := make(map[string]bool, len(g.Ops))
	for _, op := range g.Ops {
		isOp[op.ID] = true
	}

	graph := make(dependencyGraph, len(g.Ops))
	for _, op := range g.Ops {
		if graph[op.ID] == nil {
			graph[op.ID] = []string{}
		}
		for _, in := range op.Inputs {
			if isOp[in] {
				graph[op.ID] = append(graph[op.ID], in)
			}
		}
	}
	return graph
}

// detectCycles returns a *CycleError for the first cycle found, visiting
// ops in declaration order so the report is deterministic.
func detectCycles(g *ir.Graph) error {
	graph := buildDependencyGraph(g)

	nodes := make([]string, 0, len(g.Ops))
	for _, op := range g.Ops {
		nodes = append(nodes, op.ID)
	}

	for _, scc := range tarjanSCC(nodes, graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return &CycleError{Path: reconstructCyclePath(scc, graph)}
		}
	}
	return nil
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(nodes []string, graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath builds a closed path through an SCC, starting and
// ending at its first member. A self-loop yields [id, id].
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
