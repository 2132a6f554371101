// Package transform provides the camera models used to project RGB-D frames
// into point clouds: pinhole intrinsics, depth-to-color extrinsics and the
// depth scale of the sensor.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective
// projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return ErrNoIntrinsics
	}
	if params.Width <= 0 || params.Height <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid size (%d, %d)", params.Width, params.Height)
	}
	if params.Fx <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid focal length Fx = %v", params.Fx)
	}
	if params.Fy <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid focal length Fy = %v", params.Fy)
	}
	if params.Ppx < 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid principal X point Ppx = %v", params.Ppx)
	}
	if params.Ppy < 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid principal Y point Ppy = %v", params.Ppy)
	}
	return nil
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera
// frame. The intrinsics parameters should be the ones of the sensor used to
// obtain the image that contains the pixel.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// PointToPixel projects a 3D point to a pixel in an image plane. If depth is
// zero at the point, negative coordinates are returned so that cropping to
// image bounds filters it out.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		return (x/z)*params.Fx + params.Ppx, (y/z)*params.Fy + params.Ppy
	}
	return -1.0, -1.0
}

// Extrinsics is the rigid body transform between two sensors: a 3×3 rotation
// in row-major order plus a translation.
type Extrinsics struct {
	RotationMatrix    []float64 `json:"rotation"`
	TranslationVector []float64 `json:"translation"`
}

// CheckValid checks that the extrinsics have the right shape.
func (e *Extrinsics) CheckValid() error {
	if e == nil {
		return errors.New("extrinsic parameters are not available")
	}
	if len(e.RotationMatrix) != 9 {
		return errors.Errorf("rotation matrix must have 9 elements, got %d", len(e.RotationMatrix))
	}
	if len(e.TranslationVector) != 3 {
		return errors.Errorf("translation vector must have 3 elements, got %d", len(e.TranslationVector))
	}
	return nil
}

// TransformPointToPoint applies the rigid body transform to a 3D point.
func (e *Extrinsics) TransformPointToPoint(x, y, z float64) r3.Vector {
	rot := e.RotationMatrix
	t := e.TranslationVector
	return r3.Vector{
		X: rot[0]*x + rot[1]*y + rot[2]*z + t[0],
		Y: rot[3]*x + rot[4]*y + rot[5]*z + t[1],
		Z: rot[6]*x + rot[7]*y + rot[8]*z + t[2],
	}
}

// DepthColorIntrinsicsExtrinsics holds the camera parameters of an RGB-D
// sensor pair: depth and color intrinsics, the depth-to-color rigid transform,
// and the depth scale in meters per depth code.
type DepthColorIntrinsicsExtrinsics struct {
	ColorCamera  PinholeCameraIntrinsics `json:"color"`
	DepthCamera  PinholeCameraIntrinsics `json:"depth"`
	ExtrinsicD2C Extrinsics              `json:"extrinsics_depth_to_color"`
	DepthScale   float64                 `json:"depth_scale_meters"`
}

// CheckValid checks all the parameters of the sensor pair.
func (dcie *DepthColorIntrinsicsExtrinsics) CheckValid() error {
	if dcie == nil {
		return errors.New("camera parameters are not available")
	}
	if err := dcie.ColorCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "color camera")
	}
	if err := dcie.DepthCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "depth camera")
	}
	if err := dcie.ExtrinsicD2C.CheckValid(); err != nil {
		return err
	}
	if dcie.DepthScale <= 0 {
		return errors.Errorf("depth scale must be positive, got %v", dcie.DepthScale)
	}
	return nil
}

// NewDepthColorIntrinsicsExtrinsicsFromJSONFile takes in a file path to a JSON
// and turns it into DepthColorIntrinsicsExtrinsics.
func NewDepthColorIntrinsicsExtrinsicsFromJSONFile(jsonPath string) (*DepthColorIntrinsicsExtrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	params := &DepthColorIntrinsicsExtrinsics{}
	if err := json.Unmarshal(byteValue, params); err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("error parsing JSON from %s", jsonPath))
	}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params, nil
}
