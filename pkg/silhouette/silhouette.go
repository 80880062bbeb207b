// Package silhouette scores a candidate clustering so the integration-id
// assigner can pick the best cluster count k.
package silhouette

import (
	"errors"
	"math"

	"github.com/galindo-legaria/alite/pkg/vecmath"
)

// ErrMismatchedLength is returned when vectors and labels disagree on count.
var ErrMismatchedLength = errors.New("silhouette: vectors and labels must be the same length")

// ErrTooFewClusters is returned when labels assigns every point to the same
// cluster: silhouette is undefined with fewer than two clusters.
var ErrTooFewClusters = errors.New("silhouette: fewer than two distinct clusters")

// ErrTooManyClusters is returned when labels gives every point its own
// cluster (|distinct labels| == n): every point is a singleton and the
// score degenerates to a meaningless 0, so the caller should skip this k
// rather than let it win by default.
var ErrTooManyClusters = errors.New("silhouette: one cluster per point")

// Scorer evaluates how well labels partitions vectors. Injected so the
// integration-id assigner never depends on a concrete scoring algorithm,
// matching spec.md's silhouette-score collaborator contract.
type Scorer interface {
	Score(vectors [][]float32, labels []int) (float64, error)
}

// Euclidean is the standard silhouette coefficient using Euclidean distance,
// averaged over points. A singleton cluster contributes 0 for its member
// point, the scikit-learn convention database.py relies on when it picks k
// by maximizing this score over a candidate range.
type Euclidean struct{}

// Score implements Scorer.
func (Euclidean) Score(vectors [][]float32, labels []int) (float64, error) {
	if len(vectors) != len(labels) {
		return 0, ErrMismatchedLength
	}
	n := len(vectors)
	if n < 2 {
		return 0, nil
	}

	byLabel := make(map[int][]int, n)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}

	if len(byLabel) < 2 {
		return 0, ErrTooFewClusters
	}
	if len(byLabel) == n {
		return 0, ErrTooManyClusters
	}

	var total float64
	for i := 0; i < n; i++ {
		own := byLabel[labels[i]]
		a := meanDistance(vectors, i, own, true)

		var b float64 = -1
		for label, members := range byLabel {
			if label == labels[i] {
				continue
			}
			d := meanDistance(vectors, i, members, false)
			if b < 0 || d < b {
				b = d
			}
		}

		if len(own) <= 1 || b < 0 {
			continue // singleton cluster: silhouette contribution is 0
		}

		m := a
		if b > m {
			m = b
		}
		if m == 0 {
			continue
		}
		total += (b - a) / m
	}

	return total / float64(n), nil
}

func meanDistance(vectors [][]float32, i int, members []int, excludeSelf bool) float64 {
	var sum float64
	count := 0
	for _, j := range members {
		if excludeSelf && j == i {
			continue
		}
		// vecmath.EuclideanDistance is squared; the coefficient uses the
		// plain Euclidean distance.
		sum += math.Sqrt(vecmath.EuclideanDistance(vectors[i], vectors[j]))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
