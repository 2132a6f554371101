package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// RadiusOutlierRemoval keeps every point with at least minNeighbors points
// (itself included) within the given radius and stream-compacts the kept
// points, in input order, into a new cloud. Bounds of the result are not
// inherited since the operation may prune extrema.
func RadiusOutlierRemoval(cloud *PointCloud, radius float64, minNeighbors int) (*PointCloud, error) {
	if radius <= 0 {
		err := errors.Errorf("radius must be positive, got %v", radius)
		golog.Global().Warnw("radius outlier removal failed", "error", err)
		return nil, err
	}
	if minNeighbors <= 0 {
		err := errors.Errorf("min neighbor count must be positive, got %d", minNeighbors)
		golog.Global().Warnw("radius outlier removal failed", "error", err)
		return nil, err
	}
	n := cloud.Size()
	if n == 0 {
		return New(), nil
	}
	cellSide := 2 * radius
	grid, err := gridOverCloud(cloud, cellSide, 1.5*cellSide)
	if err != nil {
		golog.Global().Warnw("radius outlier removal failed", "error", err)
		return nil, err
	}
	radiusSq := radius * radius
	keep := make([]bool, n)
	utils.ParallelForEachPoint(n, func(i int) {
		count := 0
		grid.forEachNeighbor(cloud.points[i].Position, radiusSq, cloud.points, func(int32, float64) {
			count++
		})
		keep[i] = count >= minNeighbors
	})
	out := NewWithCapacity(n)
	for i, p := range cloud.points {
		if keep[i] {
			out.points = append(out.points, p)
		}
	}
	return out, nil
}
