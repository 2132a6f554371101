// Package segmentation implements object segmentation over point clouds:
// Euclidean clustering by parallel label union across in-radius edges, and its
// refinement into locally convex objects.
package segmentation

import (
	"sync/atomic"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	pc "go.viam.com/percept/pointcloud"
	"go.viam.com/percept/utils"
)

// ClusterSentinel labels points whose cluster fell outside the requested size
// window.
const ClusterSentinel = int32(-1)

// EuclideanClustering partitions the cloud into connected components of the
// graph whose edges join points within tolerance of each other. It returns one
// label per point, aligned to input indices, and the number of clusters.
// Labels are dense in [0, nClusters); clusters smaller than minSize or larger
// than maxSize are relabeled ClusterSentinel and do not count. The canonical
// root of a component is its smallest member index.
func EuclideanClustering(cloud *pc.PointCloud, tolerance float64, minSize, maxSize int, logger golog.Logger) ([]int32, int, error) {
	if tolerance <= 0 {
		err := errors.Errorf("tolerance must be positive, got %v", tolerance)
		logger.Warnw("euclidean clustering failed", "error", err)
		return nil, 0, err
	}
	if minSize <= 0 || maxSize < minSize {
		err := errors.Errorf("invalid cluster size window [%d, %d]", minSize, maxSize)
		logger.Warnw("euclidean clustering failed", "error", err)
		return nil, 0, err
	}
	n := cloud.Size()
	if n == 0 {
		return []int32{}, 0, nil
	}

	neighbors, err := pc.RadiusNeighbors(cloud, tolerance)
	if err != nil {
		logger.Warnw("euclidean clustering failed", "error", err)
		return nil, 0, err
	}

	parent := unionOverEdges(n, neighbors)

	// compact roots to dense labels, counting only clusters inside the window
	sizes := make([]int32, n)
	for i := 0; i < n; i++ {
		sizes[parent[i]]++
	}
	dense := make([]int32, n)
	nClusters := int32(0)
	for i := 0; i < n; i++ {
		if parent[i] == int32(i) && sizes[i] >= int32(minSize) && sizes[i] <= int32(maxSize) {
			dense[i] = nClusters
			nClusters++
		} else {
			dense[i] = ClusterSentinel
		}
	}
	labels := make([]int32, n)
	utils.ParallelForEachPoint(n, func(i int) {
		labels[i] = dense[parent[i]]
	})
	return labels, int(nClusters), nil
}

// unionOverEdges runs the parallel atomic-min label union: every pass lowers
// each point's parent to the minimum parent over its neighborhood, then
// pointer-jumps parents to their roots, until a full pass changes nothing.
// Termination is bounded because parents are monotonically non-increasing over
// a forest keyed by min index.
func unionOverEdges(n int, neighbors *pc.NeighborLists) []int32 {
	parent := make([]int32, n)
	for i := range parent {
		parent[i] = int32(i)
	}
	var changed atomic.Bool
	for {
		changed.Store(false)
		utils.ParallelForEachPoint(n, func(i int) {
			best := atomic.LoadInt32(&parent[i])
			for _, j := range neighbors.Of(i) {
				if pj := atomic.LoadInt32(&parent[j]); pj < best {
					best = pj
				}
			}
			if atomicMin(&parent[i], best) {
				changed.Store(true)
			}
		})
		// path compression by pointer jumping
		utils.ParallelForEachPoint(n, func(i int) {
			p := atomic.LoadInt32(&parent[i])
			for {
				pp := atomic.LoadInt32(&parent[p])
				if pp == p {
					break
				}
				p = pp
			}
			if atomicMin(&parent[i], p) {
				changed.Store(true)
			}
		})
		if !changed.Load() {
			break
		}
	}
	return parent
}

// atomicMin lowers *addr to val if val is smaller, reporting whether it did.
func atomicMin(addr *int32, val int32) bool {
	for {
		cur := atomic.LoadInt32(addr)
		if val >= cur {
			return false
		}
		if atomic.CompareAndSwapInt32(addr, cur, val) {
			return true
		}
	}
}
