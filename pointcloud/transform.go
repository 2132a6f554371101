package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/percept/utils"
)

// Transform applies the given rigid 4×4 transform to every point position. If
// normals are present they are rotated by the upper-left 3×3 block; the caller
// guarantees the transform carries no scale. Cached bounds are invalidated and
// recomputed lazily on next access.
func (cloud *PointCloud) Transform(m *mat.Dense) error {
	if m == nil {
		return errors.New("transform matrix is nil")
	}
	if r, c := m.Dims(); r != 4 || c != 4 {
		return errors.Errorf("transform matrix must be 4x4, got %dx%d", r, c)
	}
	utils.ParallelForEachPoint(len(cloud.points), func(i int) {
		pos := cloud.points[i].Position
		cloud.points[i].Position = r3.Vector{
			X: m.At(0, 0)*pos.X + m.At(0, 1)*pos.Y + m.At(0, 2)*pos.Z + m.At(0, 3),
			Y: m.At(1, 0)*pos.X + m.At(1, 1)*pos.Y + m.At(1, 2)*pos.Z + m.At(1, 3),
			Z: m.At(2, 0)*pos.X + m.At(2, 1)*pos.Y + m.At(2, 2)*pos.Z + m.At(2, 3),
		}
		if cloud.normals != nil {
			n := cloud.normals[i]
			cloud.normals[i] = r3.Vector{
				X: m.At(0, 0)*n.X + m.At(0, 1)*n.Y + m.At(0, 2)*n.Z,
				Y: m.At(1, 0)*n.X + m.At(1, 1)*n.Y + m.At(1, 2)*n.Z,
				Z: m.At(2, 0)*n.X + m.At(2, 1)*n.Y + m.At(2, 2)*n.Z,
			}
		}
	})
	cloud.invalidateBounds()
	return nil
}
