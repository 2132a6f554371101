package transform

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/percept/pointcloud"
	"go.viam.com/percept/rimage"
)

func testFrames(params *DepthColorIntrinsicsExtrinsics) (*rimage.DepthMap, *rimage.Image) {
	depth := rimage.NewEmptyDepthMap(params.DepthCamera.Width, params.DepthCamera.Height)
	color := rimage.NewImage(params.ColorCamera.Width, params.ColorCamera.Height)
	return depth, color
}

func TestRGBDToPointCloud(t *testing.T) {
	params := testParams()
	depth, color := testFrames(params)

	// one meter straight ahead of the principal point, pure red
	depth.Set(320, 240, 1000)
	color.SetXY(320, 240, rimage.ColorBGR{R: 255})
	// out of the depth window
	depth.Set(100, 100, 5000)
	depth.Set(200, 200, 100)

	cloud, err := RGBDToPointCloud(depth, color, params, 0.3, 1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 1)
	p := cloud.At(0)
	test.That(t, p.Position.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, p.Position.Y, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, p.Position.Z, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, p.Color.R, test.ShouldEqual, float32(1))
	test.That(t, p.Color.G, test.ShouldEqual, float32(0))
	test.That(t, p.Property, test.ShouldEqual, pointcloud.PropertyActive)
}

func TestRGBDToPointCloudColorLookup(t *testing.T) {
	params := testParams()
	// shift the color camera so the depth point lands on a different pixel
	params.ExtrinsicD2C.TranslationVector = []float64{0.1, 0, 0}
	depth, color := testFrames(params)

	depth.Set(320, 240, 1000)
	// (0.1, 0, 1) in the color frame projects to pixel x = 320 + 600*0.1 = 380
	color.SetXY(380, 240, rimage.ColorBGR{G: 128})

	cloud, err := RGBDToPointCloud(depth, color, params, 0.3, 1.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 1)
	test.That(t, cloud.At(0).Color.G, test.ShouldAlmostEqual, 128.0/255.0, 1e-6)
}

func TestRGBDToPointCloudInvalid(t *testing.T) {
	params := testParams()
	depth, color := testFrames(params)

	_, err := RGBDToPointCloud(nil, color, params, 0.3, 1.5)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = RGBDToPointCloud(depth, nil, params, 0.3, 1.5)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = RGBDToPointCloud(depth, color, params, 1.5, 0.3)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = RGBDToPointCloud(depth, color, params, -1, 1.5)
	test.That(t, err, test.ShouldNotBeNil)

	small := rimage.NewEmptyDepthMap(10, 10)
	_, err = RGBDToPointCloud(small, color, params, 0.3, 1.5)
	test.That(t, err, test.ShouldNotBeNil)

	bad := testParams()
	bad.DepthScale = -1
	_, err = RGBDToPointCloud(depth, color, bad, 0.3, 1.5)
	test.That(t, err, test.ShouldNotBeNil)
}
