package pattern

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gnoverse/eqsat/internal/egraph"
)

// Subst binds pattern variables to classes. Bindings keep the order in which
// the matcher made them. A Subst is immutable; bind returns a copy.
type Subst struct {
	names []string
	ids   []egraph.ClassID
}

// Get returns the class bound to name.
func (s Subst) Get(name string) (egraph.ClassID, bool) {
	for i, n := range s.names {
		if n == name {
			return s.ids[i], true
		}
	}
	return 0, false
}

// Len returns the number of bound variables.
func (s Subst) Len() int {
	return len(s.names)
}

// Names returns the bound variable names in binding order.
func (s Subst) Names() []string {
	return append([]string(nil), s.names...)
}

func (s Subst) bind(name string, id egraph.ClassID) Subst {
	names := make([]string, len(s.names), len(s.names)+1)
	ids := make([]egraph.ClassID, len(s.ids), len(s.ids)+1)
	copy(names, s.names)
	copy(ids, s.ids)
	return Subst{names: append(names, name), ids: append(ids, id)}
}

// key identifies the binding set regardless of binding order.
func (s Subst) key() string {
	parts := make([]string, len(s.names))
	for i, n := range s.names {
		parts[i] = n + "=" + strconv.FormatUint(uint64(s.ids[i]), 10)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (s Subst) String() string {
	parts := make([]string, len(s.names))
	for i, n := range s.names {
		parts[i] = fmt.Sprintf("%s%s=%s", VarPrefix, n, s.ids[i])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Match returns every distinct substitution under which p matches some node
// of class. It never modifies g. Results are in discovery order: class
// members in insertion order, children left to right.
func Match(g *egraph.EGraph, p Pattern, class egraph.ClassID) []Subst {
	found := matchClass(g, p, g.Resolve(class), Subst{})
	if len(found) < 2 {
		return found
	}
	seen := make(map[string]struct{}, len(found))
	out := found[:0]
	for _, s := range found {
		k := s.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func matchClass(g *egraph.EGraph, p Pattern, id egraph.ClassID, s Subst) []Subst {
	switch p := p.(type) {
	case Var:
		if bound, ok := s.Get(p.Name); ok {
			if g.Resolve(bound) == id {
				return []Subst{s}
			}
			return nil
		}
		return []Subst{s.bind(p.Name, id)}

	case Node:
		c := g.Class(id)
		if c == nil {
			return nil
		}
		var out []Subst
		for _, n := range c.Nodes() {
			if n.Op != p.Op || n.Leaf != p.Leaf || len(n.Children) != len(p.Args) {
				continue
			}
			out = append(out, matchChildren(g, p.Args, n.Children, s)...)
		}
		return out

	default:
		return nil
	}
}

func matchChildren(g *egraph.EGraph, args []Pattern, children []egraph.ClassID, s Subst) []Subst {
	substs := []Subst{s}
	for i, arg := range args {
		var next []Subst
		for _, sub := range substs {
			next = append(next, matchClass(g, arg, g.Resolve(children[i]), sub)...)
		}
		if len(next) == 0 {
			return nil
		}
		substs = next
	}
	return substs
}

// Result groups the substitutions found in one class.
type Result struct {
	Class  egraph.ClassID
	Substs []Subst
}

// Search matches p against every canonical class of g, in ascending id
// order, and returns the classes with at least one substitution.
func Search(g *egraph.EGraph, p Pattern) []Result {
	var results []Result
	for _, c := range g.Classes() {
		if substs := Match(g, p, c.ID); len(substs) > 0 {
			results = append(results, Result{Class: c.ID, Substs: substs})
		}
	}
	return results
}

// Instantiate inserts p into g with variables replaced by their bindings in
// s and returns the class of the root. Every variable of p must be bound;
// rule construction guarantees this, so a missing binding panics.
func Instantiate(g *egraph.EGraph, p Pattern, s Subst) egraph.ClassID {
	switch p := p.(type) {
	case Var:
		id, ok := s.Get(p.Name)
		if !ok {
			panic(fmt.Sprintf("pattern: variable %s unbound in %s", p, s))
		}
		return g.Find(id)

	case Node:
		children := make([]egraph.ClassID, len(p.Args))
		for i, arg := range p.Args {
			children[i] = Instantiate(g, arg, s)
		}
		return g.Add(egraph.Node{Op: p.Op, Leaf: p.Leaf, Children: children})

	default:
		panic(fmt.Sprintf("pattern: unexpected %T", p))
	}
}

