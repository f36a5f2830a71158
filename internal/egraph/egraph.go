package egraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gnoverse/eqsat/internal/term"
)

// entry is a class member tagged with its global insertion sequence, which
// fixes the order nodes are visited in and so breaks cost ties.
type entry struct {
	node Node
	seq  uint64
}

// parent records that node, owned by class, references some child class.
type parent struct {
	node  Node
	class ClassID
}

// Class is an equivalence class: a non-empty set of nodes proven equal and
// the parent nodes elsewhere in the graph that refer to it.
type Class struct {
	ID      ClassID
	nodes   []entry
	parents []parent
}

// Nodes returns the members of the class in insertion order.
func (c *Class) Nodes() []Node {
	nodes := make([]Node, len(c.nodes))
	for i, e := range c.nodes {
		nodes[i] = e.node
	}
	return nodes
}

// Len returns the number of distinct nodes in the class.
func (c *Class) Len() int {
	return len(c.nodes)
}

// EGraph stores equivalence classes of hash-consed nodes and keeps them
// congruence closed across unions once Rebuild has run.
//
// An EGraph is not safe for concurrent use.
type EGraph struct {
	uf      *UnionFind
	memo    map[string]ClassID
	classes map[ClassID]*Class
	pending []ClassID
	seq     uint64
	unions  int
	size    int
}

// New creates an empty e-graph.
func New() *EGraph {
	return &EGraph{
		uf:      NewUnionFind(),
		memo:    make(map[string]ClassID),
		classes: make(map[ClassID]*Class),
	}
}

// Find returns the canonical id for id.
func (g *EGraph) Find(id ClassID) ClassID {
	return g.uf.Find(id)
}

// Resolve is the read-only form of Find.
func (g *EGraph) Resolve(id ClassID) ClassID {
	return g.uf.Resolve(id)
}

func (g *EGraph) canonicalize(n Node) Node {
	return n.mapChildren(g.uf.Find)
}

// Add inserts n and returns the id of the class that owns it. If an
// identical node (after canonicalising children) already exists its class
// is returned and the graph is unchanged.
func (g *EGraph) Add(n Node) ClassID {
	if len(n.Children) != n.Op.Arity() {
		panic(fmt.Sprintf("egraph: %s node with %d children", n.Op, len(n.Children)))
	}

	n = g.canonicalize(n)
	k := n.key()
	if id, ok := g.memo[k]; ok {
		return g.uf.Find(id)
	}

	id := g.uf.MakeSet()
	g.seq++
	g.classes[id] = &Class{
		ID:    id,
		nodes: []entry{{node: n, seq: g.seq}},
	}
	for _, child := range n.Children {
		c := g.classes[child]
		c.parents = append(c.parents, parent{node: n, class: id})
	}
	g.memo[k] = id
	g.size++
	return id
}

// AddExpr inserts every node of e bottom-up and returns the root class.
func (g *EGraph) AddExpr(e term.Expr) ClassID {
	args := e.Args()
	children := make([]ClassID, len(args))
	for i, arg := range args {
		children[i] = g.AddExpr(arg)
	}
	return g.Add(Node{Op: e.Op(), Leaf: term.Leaf(e), Children: children})
}

// Lookup returns the class holding n without inserting it. Pending unions
// are rebuilt first, since the memo only reflects them after Rebuild.
func (g *EGraph) Lookup(n Node) (ClassID, bool) {
	if g.Pending() {
		g.Rebuild()
	}
	id, ok := g.memo[n.mapChildren(g.uf.Resolve).key()]
	if !ok {
		return 0, false
	}
	return g.uf.Resolve(id), true
}

// LookupExpr returns the class representing e, if every node of e is
// already present.
func (g *EGraph) LookupExpr(e term.Expr) (ClassID, bool) {
	args := e.Args()
	children := make([]ClassID, len(args))
	for i, arg := range args {
		id, ok := g.LookupExpr(arg)
		if !ok {
			return 0, false
		}
		children[i] = id
	}
	return g.Lookup(Node{Op: e.Op(), Leaf: term.Leaf(e), Children: children})
}

// Equivs reports whether a and b are both present and have been proven
// equal. Like Lookup it rebuilds the graph if unions are pending.
func (g *EGraph) Equivs(a, b term.Expr) bool {
	ida, ok := g.LookupExpr(a)
	if !ok {
		return false
	}
	idb, ok := g.LookupExpr(b)
	if !ok {
		return false
	}
	return ida == idb
}

// Union merges the classes of a and b. It returns the canonical id of the
// merged class and whether anything changed. The merged class is queued
// for Rebuild; congruence is not restored until then.
func (g *EGraph) Union(a, b ClassID) (ClassID, bool) {
	ra, rb := g.uf.Find(a), g.uf.Find(b)
	if ra == rb {
		return ra, false
	}

	root := g.uf.Union(ra, rb)
	other := rb
	if root == rb {
		other = ra
	}

	winner, loser := g.classes[root], g.classes[other]
	delete(g.classes, other)
	winner.nodes = mergeEntries(winner.nodes, loser.nodes)
	winner.parents = append(winner.parents, loser.parents...)

	g.pending = append(g.pending, root)
	g.unions++
	return root, true
}

// mergeEntries merges two seq-ordered member lists.
func mergeEntries(a, b []entry) []entry {
	out := make([]entry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].seq <= b[j].seq {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Rebuild restores congruence closure: every node whose children changed
// class is re-canonicalised, and nodes that become identical have their
// classes merged, repeating until no implied union remains. It returns the
// number of unions it performed.
func (g *EGraph) Rebuild() int {
	n := 0
	for len(g.pending) > 0 {
		todo := g.pending
		g.pending = nil

		seen := make(map[ClassID]struct{}, len(todo))
		for _, id := range todo {
			id = g.uf.Find(id)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			n += g.repair(id)
		}
	}
	g.rebuildClasses()
	return n
}

func (g *EGraph) repair(id ClassID) int {
	c := g.classes[id]
	parents := c.parents
	c.parents = nil

	for _, p := range parents {
		delete(g.memo, p.node.key())
	}

	unions := 0
	for i := range parents {
		parents[i].node = g.canonicalize(parents[i].node)
		k := parents[i].node.key()
		if prev, ok := g.memo[k]; ok {
			if _, changed := g.Union(prev, parents[i].class); changed {
				unions++
			}
		}
		g.memo[k] = g.uf.Find(parents[i].class)
	}

	seen := make(map[string]int, len(parents))
	deduped := make([]parent, 0, len(parents))
	for _, p := range parents {
		k := p.node.key()
		if j, ok := seen[k]; ok {
			if _, changed := g.Union(deduped[j].class, p.class); changed {
				unions++
			}
			continue
		}
		seen[k] = len(deduped)
		deduped = append(deduped, parent{node: p.node, class: g.uf.Find(p.class)})
	}

	owner := g.classes[g.uf.Find(id)]
	owner.parents = append(owner.parents, deduped...)
	return unions
}

// rebuildClasses re-canonicalises class members and drops duplicates,
// keeping the earliest inserted copy. The memo is rebuilt from the
// surviving members so it holds exactly one key per node.
func (g *EGraph) rebuildClasses() {
	g.memo = make(map[string]ClassID, len(g.memo))
	g.size = 0
	for _, c := range g.classes {
		seen := make(map[string]struct{}, len(c.nodes))
		kept := c.nodes[:0]
		for _, e := range c.nodes {
			e.node = g.canonicalize(e.node)
			k := e.node.key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			g.memo[k] = c.ID
			kept = append(kept, e)
		}
		c.nodes = kept
		g.size += len(kept)
	}
}

// Pending reports whether unions are waiting for Rebuild.
func (g *EGraph) Pending() bool {
	return len(g.pending) > 0
}

// Class returns the class owning id.
func (g *EGraph) Class(id ClassID) *Class {
	return g.classes[g.uf.Resolve(id)]
}

// Classes returns every canonical class ordered by id.
func (g *EGraph) Classes() []*Class {
	classes := make([]*Class, 0, len(g.classes))
	for _, c := range g.classes {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes
}

// NumNodes returns the number of nodes held by the classes. Between a
// Union and the next Rebuild it may include nodes that Rebuild will merge.
func (g *EGraph) NumNodes() int {
	return g.size
}

// NumClasses returns the number of canonical classes.
func (g *EGraph) NumClasses() int {
	return len(g.classes)
}

// NumUnions returns the number of successful unions so far.
func (g *EGraph) NumUnions() int {
	return g.unions
}

// String dumps the graph one class per line, for debugging.
func (g *EGraph) String() string {
	var sb strings.Builder
	for _, c := range g.Classes() {
		fmt.Fprintf(&sb, "%s:", c.ID)
		for _, e := range c.nodes {
			fmt.Fprintf(&sb, " %s", e.node)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
