package segmentation

import (
	"container/list"
	"math"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "go.viam.com/percept/pointcloud"
	"go.viam.com/percept/utils"
)

// maxConvexNormalAngleDeg bounds the angular difference between the normals of
// a convex edge.
const maxConvexNormalAngleDeg = 30.0

// convexityTolerance is the slack below zero, per unit of edge length, that the
// convexity test allows so rounding noise between equal normals on a flat
// surface does not break edges.
const convexityTolerance = 1e-9

// ConvexObjectSegmentation refines a Euclidean clustering of the cloud into
// locally convex objects. Within each base cluster, edges between in-tolerance
// neighbors are kept only when the pair is locally convex: with d = pⱼ − pᵢ
// and hemisphere-aligned unit normals nᵢ, nⱼ, the edge is convex when
// (nᵢ − nⱼ)·d ≥ 0 (up to a rounding tolerance of 1e-9·|d|) and the angle
// between the normals is at most 30°. Each
// remaining connected sub-component whose size lies in [minSize, maxSize] is
// emitted as one object, a slice of point indices in ascending order. Objects
// are pairwise disjoint. The cloud must have normals.
func ConvexObjectSegmentation(cloud *pc.PointCloud, tolerance float64, minSize, maxSize int, logger golog.Logger) ([][]int, error) {
	if !cloud.HasNormals() {
		err := errors.New("convex object segmentation requires normals; estimate normals first")
		logger.Warnw("convex object segmentation failed", "error", err)
		return nil, err
	}
	if minSize <= 0 || maxSize < minSize {
		err := errors.Errorf("invalid object size window [%d, %d]", minSize, maxSize)
		logger.Warnw("convex object segmentation failed", "error", err)
		return nil, err
	}
	n := cloud.Size()
	if n == 0 {
		return [][]int{}, nil
	}

	// base clustering keeps every component; the size window applies to the
	// convex sub-components, not to the base clusters
	labels, nClusters, err := EuclideanClustering(cloud, tolerance, 1, n, logger)
	if err != nil {
		return nil, err
	}
	neighbors, err := pc.RadiusNeighbors(cloud, tolerance)
	if err != nil {
		logger.Warnw("convex object segmentation failed", "error", err)
		return nil, err
	}

	clusters := make([][]int, nClusters)
	for i := 0; i < n; i++ {
		if labels[i] != ClusterSentinel {
			clusters[labels[i]] = append(clusters[labels[i]], i)
		}
	}

	oriented := orientNormalsPerCluster(cloud, clusters)

	cosThreshold := math.Cos(utils.DegToRad(maxConvexNormalAngleDeg))
	objectsPerCluster := make([][][]int, nClusters)
	utils.ParallelForEachPoint(nClusters, func(c int) {
		objectsPerCluster[c] = convexComponents(cloud, clusters[c], labels, neighbors, oriented, cosThreshold, minSize, maxSize)
	})

	objects := make([][]int, 0)
	for _, objs := range objectsPerCluster {
		objects = append(objects, objs...)
	}
	return objects, nil
}

// orientNormalsPerCluster flips normals so each cluster shares a hemisphere.
// The reference is the cluster's first valid normal, itself flipped to point
// back at the sensor viewpoint at the origin, so that the convexity predicate
// reads "folds toward the sensor are convex". The predicate assumes consistent
// orientation within a neighborhood.
func orientNormalsPerCluster(cloud *pc.PointCloud, clusters [][]int) []r3.Vector {
	oriented := cloud.Normals()
	for _, members := range clusters {
		if len(members) == 0 {
			continue
		}
		var ref r3.Vector
		var centroid r3.Vector
		for _, i := range members {
			centroid = centroid.Add(cloud.At(i).Position)
		}
		centroid = centroid.Mul(1 / float64(len(members)))
		for _, i := range members {
			if oriented[i].Norm2() > 0 {
				ref = oriented[i]
				break
			}
		}
		if ref.Norm2() == 0 {
			continue
		}
		if ref.Dot(centroid) > 0 {
			ref = ref.Mul(-1)
		}
		for _, i := range members {
			if oriented[i].Dot(ref) < 0 {
				oriented[i] = oriented[i].Mul(-1)
			}
		}
	}
	return oriented
}

// convexComponents removes non-convex edges within one base cluster and
// returns the connected components that fit the size window.
func convexComponents(
	cloud *pc.PointCloud,
	members []int,
	labels []int32,
	neighbors *pc.NeighborLists,
	oriented []r3.Vector,
	cosThreshold float64,
	minSize, maxSize int,
) [][]int {
	if len(members) == 0 {
		return nil
	}
	visited := make(map[int]bool, len(members))
	objects := make([][]int, 0)
	for _, seed := range members {
		if visited[seed] {
			continue
		}
		// BFS over convex edges only
		component := make([]int, 0)
		queue := list.New()
		queue.PushBack(seed)
		visited[seed] = true
		for queue.Len() > 0 {
			e := queue.Front()
			i := e.Value.(int)
			queue.Remove(e)
			component = append(component, i)
			for _, j32 := range neighbors.Of(i) {
				j := int(j32)
				if j == i || visited[j] || labels[j] != labels[i] {
					continue
				}
				if isConvexEdge(cloud, oriented, i, j, cosThreshold) {
					visited[j] = true
					queue.PushBack(j)
				}
			}
		}
		if len(component) < minSize || len(component) > maxSize {
			continue
		}
		sort.Ints(component)
		objects = append(objects, component)
	}
	return objects
}

// isConvexEdge applies the local convexity predicate to the pair (i, j).
func isConvexEdge(cloud *pc.PointCloud, oriented []r3.Vector, i, j int, cosThreshold float64) bool {
	ni, nj := oriented[i], oriented[j]
	if ni.Norm2() == 0 || nj.Norm2() == 0 {
		return false
	}
	if ni.Dot(nj) < cosThreshold {
		return false
	}
	d := cloud.At(j).Position.Sub(cloud.At(i).Position)
	return ni.Sub(nj).Dot(d) >= -convexityTolerance*d.Norm()
}
