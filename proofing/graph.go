// Package proofing builds and traverses the workflow an issuing authority
// runs to establish a holder's identity before issuing a credential.
//
// A graph is described once with a Builder and never changes afterwards, so
// one Graph can serve any number of sessions concurrently. The graph keeps
// no per-session state: a driver presents Node.Requests, collects the
// response, stores it under Node.ID and asks Node.SelectFollowUp for the
// next node.
package proofing

// Graph is an assembled proofing workflow.
type Graph struct {
	root  Node
	nodes map[string]Node
}

func newGraph(root Node) (*Graph, error) {
	g := &Graph{root: root, nodes: make(map[string]Node)}
	err := g.Walk(func(n Node) error {
		if other, ok := g.nodes[n.ID()]; ok && other != n {
			return configurationError("node id %q is used more than once", n.ID())
		}
		g.nodes[n.ID()] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Root is the first node of the workflow.
func (g *Graph) Root() Node {
	return g.root
}

// Lookup finds a node by id, for drivers resuming a stored session.
func (g *Graph) Lookup(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of distinct nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Walk calls fn once for every node reachable from the root, depth first in
// FollowUps order. It stops at the first error.
func (g *Graph) Walk(fn func(n Node) error) error {
	visited := make(map[Node]bool)
	var visit func(n Node) error
	visit = func(n Node) error {
		if visited[n] {
			return nil
		}
		visited[n] = true
		if err := fn(n); err != nil {
			return err
		}
		for _, next := range n.FollowUps() {
			if err := visit(next); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(g.root)
}
