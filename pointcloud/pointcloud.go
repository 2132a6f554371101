// Package pointcloud defines an index-aligned point cloud and the
// neighborhood-driven geometry operations over it: spatial hashing, radius and
// nearest-neighbor search, voxel down-sampling, radius outlier removal, normal
// estimation and rigid transforms.
//
// A cloud is an ordered sequence of colored points. The sequence has identity:
// per-point results such as normals or cluster labels are aligned to it by
// index. Every operation derives a transient uniform hash grid over the cloud
// and then runs per-point kernels against it.
package pointcloud

import (
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// PointCloud is an ordered sequence of colored 3-D points with lazily cached
// bounds and optional per-point normals.
//
// A cloud must be exclusively owned during any mutating call. Read-only
// queries may run concurrently on distinct clouds; the bounds cache is guarded
// so concurrent lazy initialization on the same cloud is safe.
type PointCloud struct {
	points  []Point
	normals []r3.Vector

	boundsMu  sync.RWMutex
	hasBounds bool
	minBound  r3.Vector
	maxBound  r3.Vector
}

// New returns an empty point cloud.
func New() *PointCloud {
	return NewWithCapacity(0)
}

// NewWithCapacity returns an empty point cloud with room for n points.
func NewWithCapacity(n int) *PointCloud {
	return &PointCloud{points: make([]Point, 0, n)}
}

// NewFromPoints copies the given host sequence into a new cloud.
func NewFromPoints(pts []Point) *PointCloud {
	cloud := NewWithCapacity(len(pts))
	cloud.points = append(cloud.points, pts...)
	return cloud
}

// Size returns the number of points in the cloud.
func (cloud *PointCloud) Size() int {
	return len(cloud.points)
}

// At returns the i-th point.
func (cloud *PointCloud) At(i int) Point {
	return cloud.points[i]
}

// Add appends a point and invalidates the cached bounds.
func (cloud *PointCloud) Add(p Point) {
	cloud.points = append(cloud.points, p)
	cloud.invalidateBounds()
}

// Points returns a copy of the point sequence, aligned to input indices.
func (cloud *PointCloud) Points() []Point {
	out := make([]Point, len(cloud.points))
	copy(out, cloud.points)
	return out
}

// HasNormals reports whether normals have been estimated for this cloud.
func (cloud *PointCloud) HasNormals() bool {
	return cloud.normals != nil
}

// Normals returns a copy of the per-point normals, aligned to input indices,
// or nil when none have been estimated.
func (cloud *PointCloud) Normals() []r3.Vector {
	if cloud.normals == nil {
		return nil
	}
	out := make([]r3.Vector, len(cloud.normals))
	copy(out, cloud.normals)
	return out
}

// NormalAt returns the normal of the i-th point. Estimate normals first.
func (cloud *PointCloud) NormalAt(i int) r3.Vector {
	return cloud.normals[i]
}

// Compact returns a new cloud holding, in order, every point whose property is
// not PropertyInvalid. Indexed operations require invalid-free input.
func (cloud *PointCloud) Compact() *PointCloud {
	out := NewWithCapacity(len(cloud.points))
	for _, p := range cloud.points {
		if p.Property != PropertyInvalid {
			out.points = append(out.points, p)
		}
	}
	return out
}

type boundsAccum struct {
	min, max r3.Vector
	valid    bool
}

func mergeBounds(acc, part boundsAccum) boundsAccum {
	if !part.valid {
		return acc
	}
	if !acc.valid {
		return part
	}
	acc.min = r3.Vector{
		X: minF(acc.min.X, part.min.X),
		Y: minF(acc.min.Y, part.min.Y),
		Z: minF(acc.min.Z, part.min.Z),
	}
	acc.max = r3.Vector{
		X: maxF(acc.max.X, part.max.X),
		Y: maxF(acc.max.Y, part.max.Y),
		Z: maxF(acc.max.Z, part.max.Z),
	}
	return acc
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// MinBound returns the componentwise minimum over all point positions,
// computing and caching it on first access.
func (cloud *PointCloud) MinBound() (r3.Vector, error) {
	min, _, err := cloud.bounds()
	return min, err
}

// MaxBound returns the componentwise maximum over all point positions,
// computing and caching it on first access.
func (cloud *PointCloud) MaxBound() (r3.Vector, error) {
	_, max, err := cloud.bounds()
	return max, err
}

func (cloud *PointCloud) bounds() (r3.Vector, r3.Vector, error) {
	cloud.boundsMu.RLock()
	if cloud.hasBounds {
		min, max := cloud.minBound, cloud.maxBound
		cloud.boundsMu.RUnlock()
		return min, max, nil
	}
	cloud.boundsMu.RUnlock()

	cloud.boundsMu.Lock()
	defer cloud.boundsMu.Unlock()
	if cloud.hasBounds {
		return cloud.minBound, cloud.maxBound, nil
	}
	if len(cloud.points) == 0 {
		return r3.Vector{}, r3.Vector{}, errors.New("cannot compute bounds of an empty point cloud")
	}
	acc, err := utils.ParallelReduce(len(cloud.points), func(from, to int) (boundsAccum, error) {
		part := boundsAccum{min: cloud.points[from].Position, max: cloud.points[from].Position, valid: true}
		for i := from + 1; i < to; i++ {
			pos := cloud.points[i].Position
			part.min = r3.Vector{X: minF(part.min.X, pos.X), Y: minF(part.min.Y, pos.Y), Z: minF(part.min.Z, pos.Z)}
			part.max = r3.Vector{X: maxF(part.max.X, pos.X), Y: maxF(part.max.Y, pos.Y), Z: maxF(part.max.Z, pos.Z)}
		}
		return part, nil
	}, mergeBounds)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, err
	}
	cloud.minBound = acc.min
	cloud.maxBound = acc.max
	cloud.hasBounds = true
	return cloud.minBound, cloud.maxBound, nil
}

func (cloud *PointCloud) invalidateBounds() {
	cloud.boundsMu.Lock()
	cloud.hasBounds = false
	cloud.boundsMu.Unlock()
}
