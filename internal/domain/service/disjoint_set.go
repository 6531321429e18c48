package service

// disjointSet is a union-find over dense integer ids with path halving and union by size
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

func (ds *disjointSet) find(x int) int {
	for ds.parent[x] != x {
		ds.parent[x] = ds.parent[ds.parent[x]]
		x = ds.parent[x]
	}
	return x
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}
	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}
