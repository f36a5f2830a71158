package egraph

// UnionFind implements a disjoint-set forest over dense class ids with
// path compression and union by size. Ids are allocated by MakeSet and are
// never recycled; a non-root id forwards to its parent.
type UnionFind struct {
	parent []ClassID
	size   []int
}

// NewUnionFind creates an empty UnionFind.
func NewUnionFind() *UnionFind {
	return &UnionFind{}
}

// MakeSet allocates a fresh singleton set and returns its id.
func (uf *UnionFind) MakeSet() ClassID {
	id := ClassID(len(uf.parent))
	uf.parent = append(uf.parent, id)
	uf.size = append(uf.size, 1)
	return id
}

// Len returns the number of ids ever allocated.
func (uf *UnionFind) Len() int {
	return len(uf.parent)
}

// Find returns the canonical id of the set containing id, compressing the
// path it walked so later lookups are nearly constant time.
func (uf *UnionFind) Find(id ClassID) ClassID {
	root := uf.Resolve(id)
	for id != root {
		next := uf.parent[id]
		uf.parent[id] = root
		id = next
	}
	return root
}

// Resolve is Find without path compression. It never writes, so readers
// that must not mutate the structure can use it.
func (uf *UnionFind) Resolve(id ClassID) ClassID {
	for uf.parent[id] != id {
		id = uf.parent[id]
	}
	return id
}

// Union merges the sets containing a and b and returns the new canonical
// id, attaching the smaller set under the larger. On equal sizes a's root
// wins so results are deterministic.
func (uf *UnionFind) Union(a, b ClassID) ClassID {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return ra
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return ra
}

// Connected reports whether a and b belong to the same set.
func (uf *UnionFind) Connected(a, b ClassID) bool {
	return uf.Find(a) == uf.Find(b)
}

// IsCanonical reports whether id is the root of its set.
func (uf *UnionFind) IsCanonical(id ClassID) bool {
	return uf.parent[id] == id
}
