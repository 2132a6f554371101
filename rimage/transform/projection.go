package transform

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/percept/pointcloud"
	"go.viam.com/percept/rimage"
	"go.viam.com/percept/utils"
)

// RGBDToPointCloud projects a Z16 depth frame and its BGR8 color frame to a
// point cloud using the sensor pair's camera parameters. Depth codes whose
// metric depth falls outside [zMin, zMax], and depth pixels that do not map
// inside the color frame, are marked invalid and compacted away. The output
// holds active points with colors normalized to [0,1].
func RGBDToPointCloud(
	depth *rimage.DepthMap,
	color *rimage.Image,
	params *DepthColorIntrinsicsExtrinsics,
	zMin, zMax float64,
) (*pointcloud.PointCloud, error) {
	if err := params.CheckValid(); err != nil {
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}
	if depth == nil || !depth.HasData() {
		err := errors.New("depth frame is missing")
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}
	if color == nil {
		err := errors.New("color frame is missing")
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}
	if depth.Width() != params.DepthCamera.Width || depth.Height() != params.DepthCamera.Height {
		err := errors.Errorf("depth frame dimensions (%d, %d) do not match depth intrinsics (%d, %d)",
			depth.Width(), depth.Height(), params.DepthCamera.Width, params.DepthCamera.Height)
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}
	if color.Width() != params.ColorCamera.Width || color.Height() != params.ColorCamera.Height {
		err := errors.Errorf("color frame dimensions (%d, %d) do not match color intrinsics (%d, %d)",
			color.Width(), color.Height(), params.ColorCamera.Width, params.ColorCamera.Height)
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}
	if zMin < 0 || zMax <= zMin {
		err := errors.Errorf("invalid depth window [%v, %v]", zMin, zMax)
		golog.Global().Warnw("rgbd projection failed", "error", err)
		return nil, err
	}

	width, height := depth.Width(), depth.Height()
	points := make([]pointcloud.Point, width*height)
	utils.ParallelForEachPoint(width*height, func(i int) {
		u := i % width
		v := i / width
		z := float64(depth.GetDepth(u, v)) * params.DepthScale
		if z < zMin || z > zMax {
			return
		}
		x, y, z := params.DepthCamera.PixelToPoint(float64(u), float64(v), z)
		inColor := params.ExtrinsicD2C.TransformPointToPoint(x, y, z)
		cu, cv := params.ColorCamera.PointToPixel(inColor.X, inColor.Y, inColor.Z)
		cx, cy := int(math.Round(cu)), int(math.Round(cv))
		if !color.Contains(cx, cy) {
			return
		}
		px := color.GetXY(cx, cy)
		points[i] = pointcloud.Point{
			Position: r3.Vector{X: x, Y: y, Z: z},
			Color: pointcloud.Color{
				R: float32(px.R) / 255.0,
				G: float32(px.G) / 255.0,
				B: float32(px.B) / 255.0,
			},
			Property: pointcloud.PropertyActive,
		}
	})
	return pointcloud.NewFromPoints(points).Compact(), nil
}
