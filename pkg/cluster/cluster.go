// Package cluster implements the L1 constrained agglomerative clusterer:
// merge nearest column vectors into groups, but never merge two columns
// that originate from the same source table.
package cluster

import (
	"math"
	"sort"
	"sync"

	"github.com/galindo-legaria/alite/pkg/vecmath"
)

// Clusterer runs constrained agglomerative clustering to a target cluster
// count. Grounded on original_source/column_clustering.py's
// ColumnClustering.fit combined with the teacher's worker-pool pairwise
// distance pattern (pkg/dedup/kmeans.go's assignVectorsConcurrent), since
// column counts in a real schema-integration run can run into the thousands
// and distance computation is embarrassingly parallel.
type Clusterer struct {
	// Workers bounds how many goroutines compute pairwise distances in a
	// merge round. Zero (or negative) means the default of 8.
	Workers int
}

type node struct {
	members  []int
	centroid []float32
	tables   map[string]bool
}

// Result is the outcome of one Fit call.
type Result struct {
	// Labels assigns each input point a cluster label in [0, AchievedK).
	Labels []int
	// AchievedK is the cluster count actually reached. It equals the
	// requested k unless the same-table constraint forced an early stop —
	// column_clustering.py logs this case ("breaking out") rather than
	// treating it as an error.
	AchievedK int
	// StoppedEarly is true when AchievedK > requested k because every
	// remaining cluster pair shared a source table.
	StoppedEarly bool
}

// Fit merges len(vectors) singleton clusters down to k clusters (or as far
// as the same-table constraint allows), where origin[i] names the source
// table of vectors[i]. Two clusters can merge only while their origin sets
// are disjoint.
func (c *Clusterer) Fit(vectors [][]float32, origin []string, k int) (Result, error) {
	n := len(vectors)
	if n == 0 {
		return Result{}, nil
	}
	if k < 1 {
		k = 1
	}

	nodes := make([]*node, n)
	for i := range vectors {
		nodes[i] = &node{
			members:  []int{i},
			centroid: append([]float32(nil), vectors[i]...),
			tables:   map[string]bool{origin[i]: true},
		}
	}

	for len(nodes) > k {
		bi, bj, bd := c.closestPair(nodes)
		if bi < 0 {
			return c.finish(nodes, n, k, true), nil
		}
		merged := combine(nodes[bi], nodes[bj])
		_ = bd
		nodes = removeMerge(nodes, bi, bj, merged)
	}

	return c.finish(nodes, n, k, false), nil
}

func (c *Clusterer) finish(nodes []*node, n, k int, early bool) Result {
	labels := make([]int, n)

	// Assign new cluster ids in ascending order of each cluster's smallest
	// original member index, matching column_clustering.py's final
	// "sorted by original point index" relabeling.
	sort.Slice(nodes, func(i, j int) bool {
		return minOf(nodes[i].members) < minOf(nodes[j].members)
	})

	for newID, cl := range nodes {
		for _, idx := range cl.members {
			labels[idx] = newID
		}
	}

	return Result{Labels: labels, AchievedK: len(nodes), StoppedEarly: early}
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// closestPair finds the minimum-distance mergeable pair. Returns bi<0 when
// no pair is mergeable (every remaining pair shares a source table).
func (c *Clusterer) closestPair(nodes []*node) (int, int, float64) {
	type pair struct {
		i, j int
		d    float64
	}

	n := len(nodes)
	total := n * (n - 1) / 2
	pairs := make([]pair, total)
	idx := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs[idx] = pair{i: i, j: j}
			idx++
		}
	}

	workers := c.Workers
	if workers <= 0 {
		workers = 8
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (len(pairs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(pairs) {
			break
		}
		if end > len(pairs) {
			end = len(pairs)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for k := lo; k < hi; k++ {
				a, b := nodes[pairs[k].i], nodes[pairs[k].j]
				pairs[k].d = distance(a, b)
			}
		}(start, end)
	}
	wg.Wait()

	bi, bj, bd := -1, -1, math.Inf(1)
	for _, p := range pairs {
		if p.d < bd {
			bi, bj, bd = p.i, p.j, p.d
		}
	}
	if math.IsInf(bd, 1) {
		return -1, -1, 0
	}
	return bi, bj, bd
}

// distance is column_clustering.py's ColumnCluster.distance_from: infinite
// when the two clusters share any source table, Euclidean between centroids
// otherwise.
func distance(a, b *node) float64 {
	for t := range a.tables {
		if b.tables[t] {
			return math.Inf(1)
		}
	}
	return vecmath.EuclideanDistance(a.centroid, b.centroid)
}

// combine is ColumnCluster.combine_with: a member-count-weighted mean of the
// two centroids, and the union of their source-table sets.
func combine(a, b *node) *node {
	wa := float32(len(a.members))
	wb := float32(len(b.members))
	total := wa + wb

	centroid := make([]float32, len(a.centroid))
	for i := range centroid {
		va, vb := float32(0), float32(0)
		if i < len(a.centroid) {
			va = a.centroid[i]
		}
		if i < len(b.centroid) {
			vb = b.centroid[i]
		}
		centroid[i] = (va*wa + vb*wb) / total
	}

	tables := make(map[string]bool, len(a.tables)+len(b.tables))
	for t := range a.tables {
		tables[t] = true
	}
	for t := range b.tables {
		tables[t] = true
	}

	return &node{
		members:  append(append([]int(nil), a.members...), b.members...),
		centroid: centroid,
		tables:   tables,
	}
}

func removeMerge(nodes []*node, i, j int, merged *node) []*node {
	out := make([]*node, 0, len(nodes)-1)
	for idx, nd := range nodes {
		if idx == i || idx == j {
			continue
		}
		out = append(out, nd)
	}
	return append(out, merged)
}
