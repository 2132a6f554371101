package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// VoxelGridDownsample collapses every occupied voxel of the given size to a
// single point whose position and color are the arithmetic mean over the
// voxel's members and whose property is PropertyInactive. Voxels with fewer
// than minPointsPerVoxel members (optional, at most one value) are dropped.
// The output is ordered by voxel key, not by input order. On failure it
// returns nil.
func VoxelGridDownsample(cloud *PointCloud, voxelSize float64, minPointsPerVoxel ...int) (*PointCloud, error) {
	if voxelSize <= 0 {
		err := errors.Errorf("voxel size must be positive, got %v", voxelSize)
		golog.Global().Warnw("voxel grid down-sample failed", "error", err)
		return nil, err
	}
	if len(minPointsPerVoxel) > 1 {
		err := errors.Errorf("at most one min points per voxel value, got %d", len(minPointsPerVoxel))
		golog.Global().Warnw("voxel grid down-sample failed", "error", err)
		return nil, err
	}
	minPoints := 1
	if len(minPointsPerVoxel) == 1 {
		minPoints = minPointsPerVoxel[0]
	}
	if cloud.Size() == 0 {
		return New(), nil
	}

	// voxel keys are anchored at the min bound with no padding
	min, err := cloud.MinBound()
	if err != nil {
		golog.Global().Warnw("voxel grid down-sample failed", "error", err)
		return nil, err
	}
	max, err := cloud.MaxBound()
	if err != nil {
		golog.Global().Warnw("voxel grid down-sample failed", "error", err)
		return nil, err
	}
	grid, err := buildHashGrid(cloud.points, min, voxelSize, max.Sub(min))
	if err != nil {
		golog.Global().Warnw("voxel grid down-sample failed", "error", err)
		return nil, err
	}

	// the sorted layout groups each voxel's members into one contiguous run
	n := len(grid.sortedKeys)
	runStarts := make([]int, 0)
	for i := 0; i < n; i++ {
		if i == 0 || grid.sortedKeys[i] != grid.sortedKeys[i-1] {
			runStarts = append(runStarts, i)
		}
	}
	runStarts = append(runStarts, n)

	voxels := make([]Point, len(runStarts)-1)
	kept := make([]bool, len(runStarts)-1)
	utils.ParallelForEachPoint(len(runStarts)-1, func(v int) {
		from, to := runStarts[v], runStarts[v+1]
		if to-from < minPoints {
			return
		}
		var acc Point
		for i := from; i < to; i++ {
			p := cloud.points[grid.sortedIndices[i]]
			acc.Position = acc.Position.Add(p.Position)
			acc.Color = acc.Color.Add(p.Color)
		}
		count := float64(to - from)
		voxels[v] = Point{
			Position: acc.Position.Mul(1 / count),
			Color:    acc.Color.Div(count),
			Property: PropertyInactive,
		}
		kept[v] = true
	})

	out := NewWithCapacity(len(voxels))
	for v, p := range voxels {
		if kept[v] {
			out.points = append(out.points, p)
		}
	}
	return out, nil
}
