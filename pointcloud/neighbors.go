package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// NeighborLists holds the radius neighborhoods of every point of a cloud as
// one concatenated index array with per-point contiguous slices.
type NeighborLists struct {
	// Indices is the concatenation of all per-point neighbor lists.
	Indices []int32
	// Starts has length N+1; the neighbors of point i are
	// Indices[Starts[i]:Starts[i+1]].
	Starts []int32
}

// Of returns the neighbor slice of point i. Each point is its own neighbor.
func (nl *NeighborLists) Of(i int) []int32 {
	return nl.Indices[nl.Starts[i]:nl.Starts[i+1]]
}

// RadiusNeighbors enumerates, for every point of the cloud, all points within
// Euclidean distance radius (self included). The order within a per-point
// slice is unspecified but reproducible for identical input.
func RadiusNeighbors(cloud *PointCloud, radius float64) (*NeighborLists, error) {
	if radius <= 0 {
		err := errors.Errorf("radius must be positive, got %v", radius)
		golog.Global().Warnw("radius neighbor search failed", "error", err)
		return nil, err
	}
	n := cloud.Size()
	if n == 0 {
		return &NeighborLists{Starts: make([]int32, 1)}, nil
	}
	cellSide := 2 * radius
	grid, err := gridOverCloud(cloud, cellSide, 1.5*cellSide)
	if err != nil {
		golog.Global().Warnw("radius neighbor search failed", "error", err)
		return nil, err
	}
	radiusSq := radius * radius

	// count kernel, then prefix sum, then fill kernel
	counts := make([]int32, n)
	utils.ParallelForEachPoint(n, func(i int) {
		grid.forEachNeighbor(cloud.points[i].Position, radiusSq, cloud.points, func(int32, float64) {
			counts[i]++
		})
	})
	starts := make([]int32, n+1)
	for i := 0; i < n; i++ {
		starts[i+1] = starts[i] + counts[i]
	}
	indices := make([]int32, starts[n])
	utils.ParallelForEachPoint(n, func(i int) {
		at := starts[i]
		grid.forEachNeighbor(cloud.points[i].Position, radiusSq, cloud.points, func(j int32, _ float64) {
			indices[at] = j
			at++
		})
	})
	return &NeighborLists{Indices: indices, Starts: starts}, nil
}

// NNSentinel is returned for queries with no reference point within radius.
const NNSentinel = int32(-1)

// NNSearch returns, for every query point, the index of the closest reference
// point within radius, or NNSentinel when none exists.
func NNSearch(query, reference *PointCloud, radius float64) ([]int32, error) {
	if radius <= 0 {
		err := errors.Errorf("radius must be positive, got %v", radius)
		golog.Global().Warnw("nearest neighbor search failed", "error", err)
		return nil, err
	}
	nq := query.Size()
	out := make([]int32, nq)
	for i := range out {
		out[i] = NNSentinel
	}
	if nq == 0 || reference.Size() == 0 {
		return out, nil
	}

	min, max, err := unionBounds(query, reference)
	if err != nil {
		golog.Global().Warnw("nearest neighbor search failed", "error", err)
		return nil, err
	}
	padding := 1.5 * radius
	origin := min.Sub(r3.Vector{X: padding, Y: padding, Z: padding})
	extent := max.Add(r3.Vector{X: padding, Y: padding, Z: padding}).Sub(origin)
	grid, err := buildHashGrid(reference.points, origin, radius, extent)
	if err != nil {
		golog.Global().Warnw("nearest neighbor search failed", "error", err)
		return nil, err
	}
	radiusSq := radius * radius
	utils.ParallelForEachPoint(nq, func(i int) {
		best := NNSentinel
		bestDistSq := radiusSq
		grid.forEachNeighbor(query.points[i].Position, radiusSq, reference.points, func(j int32, distSq float64) {
			if distSq < bestDistSq || best == NNSentinel {
				best = j
				bestDistSq = distSq
			}
		})
		out[i] = best
	})
	return out, nil
}

func unionBounds(a, b *PointCloud) (r3.Vector, r3.Vector, error) {
	aMin, aMax, err := a.bounds()
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	bMin, bMax, err := b.bounds()
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	min := r3.Vector{X: minF(aMin.X, bMin.X), Y: minF(aMin.Y, bMin.Y), Z: minF(aMin.Z, bMin.Z)}
	max := r3.Vector{X: maxF(aMax.X, bMax.X), Y: maxF(aMax.Y, bMax.Y), Z: maxF(aMax.Z, bMax.Z)}
	return min, max, nil
}
