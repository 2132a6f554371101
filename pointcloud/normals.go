package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/percept/utils"
)

// minNeighborsForNormal is the smallest neighborhood a covariance is fit on;
// below it the point gets a zero normal.
const minNeighborsForNormal = 3

// EstimateNormals fits, for every point, a local covariance over the
// neighbors within searchRadius and stores the unit eigenvector of the
// smallest eigenvalue as the point's normal. Points with fewer than three
// neighbors get a zero vector. The sign of each normal is unspecified;
// consumers that need consistent orientation must reorient.
func (cloud *PointCloud) EstimateNormals(searchRadius float64) error {
	if searchRadius <= 0 {
		err := errors.Errorf("search radius must be positive, got %v", searchRadius)
		golog.Global().Warnw("normal estimation failed", "error", err)
		return err
	}
	n := cloud.Size()
	if n == 0 {
		cloud.normals = []r3.Vector{}
		return nil
	}
	grid, err := gridOverCloud(cloud, searchRadius, 1.5*searchRadius)
	if err != nil {
		golog.Global().Warnw("normal estimation failed", "error", err)
		return err
	}
	radiusSq := searchRadius * searchRadius
	normals := make([]r3.Vector, n)
	utils.ParallelForEachPoint(n, func(i int) {
		var sum r3.Vector
		var outer utils.SymMat3
		count := 0
		grid.forEachNeighbor(cloud.points[i].Position, radiusSq, cloud.points, func(j int32, _ float64) {
			pos := cloud.points[j].Position
			sum = sum.Add(pos)
			outer.AddOuter(pos)
			count++
		})
		if count < minNeighborsForNormal {
			return
		}
		// covariance around the neighborhood centroid
		inv := 1 / float64(count)
		mean := sum.Mul(inv)
		outer.Scale(inv)
		cov := outer
		var centered utils.SymMat3
		centered.AddOuter(mean)
		cov.XX -= centered.XX
		cov.XY -= centered.XY
		cov.XZ -= centered.XZ
		cov.YY -= centered.YY
		cov.YZ -= centered.YZ
		cov.ZZ -= centered.ZZ

		_, vecs, ok := utils.EigenSym3(cov)
		if !ok {
			return
		}
		normals[i] = vecs[0].Normalize()
	})
	cloud.normals = normals
	return nil
}
