package transform

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func testParams() *DepthColorIntrinsicsExtrinsics {
	return &DepthColorIntrinsicsExtrinsics{
		ColorCamera:  PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 600, Fy: 600, Ppx: 320, Ppy: 240},
		DepthCamera:  PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 580, Fy: 580, Ppx: 320, Ppy: 240},
		ExtrinsicD2C: Extrinsics{RotationMatrix: []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, TranslationVector: []float64{0, 0, 0}},
		DepthScale:   0.001,
	}
}

func TestIntrinsicsCheckValid(t *testing.T) {
	params := testParams()
	test.That(t, params.CheckValid(), test.ShouldBeNil)

	bad := testParams()
	bad.DepthCamera.Fx = 0
	err := bad.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Fx")

	bad = testParams()
	bad.ColorCamera.Width = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)

	bad = testParams()
	bad.ExtrinsicD2C.RotationMatrix = []float64{1, 0, 0}
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)

	bad = testParams()
	bad.DepthScale = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)

	var nilParams *DepthColorIntrinsicsExtrinsics
	test.That(t, nilParams.CheckValid(), test.ShouldNotBeNil)
}

func TestPixelToPointRoundTrip(t *testing.T) {
	intrinsics := &testParams().DepthCamera
	x, y, z := intrinsics.PixelToPoint(400, 300, 2.0)
	test.That(t, z, test.ShouldEqual, 2.0)
	px, py := intrinsics.PointToPixel(x, y, z)
	test.That(t, px, test.ShouldAlmostEqual, 400, 1e-9)
	test.That(t, py, test.ShouldAlmostEqual, 300, 1e-9)

	// zero depth projects out of frame
	px, py = intrinsics.PointToPixel(0.5, 0.5, 0)
	test.That(t, px, test.ShouldEqual, -1.0)
	test.That(t, py, test.ShouldEqual, -1.0)
}

func TestExtrinsicsTransform(t *testing.T) {
	// identity rotation with a translation along z
	e := Extrinsics{
		RotationMatrix:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		TranslationVector: []float64{0, 0, 1},
	}
	v := e.TransformPointToPoint(0, 0, 1)
	test.That(t, v.X, test.ShouldEqual, 0.0)
	test.That(t, v.Y, test.ShouldEqual, 0.0)
	test.That(t, v.Z, test.ShouldEqual, 2.0)

	// rotation in the (z,x) plane of 90 degrees
	e = Extrinsics{
		RotationMatrix:    []float64{0, 0, 1, 0, 1, 0, -1, 0, 0},
		TranslationVector: []float64{0, 2, 0},
	}
	v = e.TransformPointToPoint(0, 0, 1)
	test.That(t, v.X, test.ShouldEqual, 1.0)
	test.That(t, v.Y, test.ShouldEqual, 2.0)
	test.That(t, v.Z, test.ShouldEqual, 0.0)
}

func TestNewDepthColorIntrinsicsExtrinsicsFromJSONFile(t *testing.T) {
	params := testParams()
	data, err := json.Marshal(params)
	test.That(t, err, test.ShouldBeNil)
	jsonPath := filepath.Join(t.TempDir(), "intel515_parameters.json")
	test.That(t, os.WriteFile(jsonPath, data, 0o600), test.ShouldBeNil)

	loaded, err := NewDepthColorIntrinsicsExtrinsicsFromJSONFile(jsonPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.DepthCamera.Fx, test.ShouldEqual, 580.0)
	test.That(t, loaded.ColorCamera.Height, test.ShouldEqual, 480)
	test.That(t, loaded.DepthScale, test.ShouldEqual, 0.001)
	test.That(t, len(loaded.ExtrinsicD2C.RotationMatrix), test.ShouldEqual, 9)

	_, err = NewDepthColorIntrinsicsExtrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
