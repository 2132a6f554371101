package segmentation

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	pc "go.viam.com/percept/pointcloud"
)

// foldedSurface samples two planar patches meeting along the y axis at x = 0,
// viewed from a sensor at the origin looking down +z. The fold is at z = 1;
// each face tilts by foldDeg/2 away from flat. Positive foldDeg folds toward
// the sensor (a ridge, dihedral < 180°), negative away (a trench,
// dihedral > 180°).
func foldedSurface(foldDeg float64) *pc.PointCloud {
	slope := math.Tan(foldDeg / 2 * math.Pi / 180)
	cloud := pc.New()
	for i := -25; i <= 25; i++ {
		for j := 0; j <= 50; j++ {
			x := float64(i) * 0.01
			y := float64(j) * 0.01
			z := 1 - math.Abs(x)*slope
			cloud.Add(pc.NewPoint(x, y, z))
		}
	}
	return cloud
}

func TestConvexObjectSegmentationDihedral(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// a 170° dihedral meeting at a convex edge stays one object
	ridge := foldedSurface(10)
	test.That(t, ridge.EstimateNormals(0.03), test.ShouldBeNil)
	objects, err := ConvexObjectSegmentation(ridge, 0.02, 100, 100000, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 1)

	// the same geometry with a concave 190° edge splits in two
	trench := foldedSurface(-10)
	test.That(t, trench.EstimateNormals(0.03), test.ShouldBeNil)
	objects, err = ConvexObjectSegmentation(trench, 0.02, 100, 100000, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 2)
}

func TestConvexObjectSegmentationDisjoint(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := foldedSurface(-10)
	test.That(t, cloud.EstimateNormals(0.03), test.ShouldBeNil)
	objects, err := ConvexObjectSegmentation(cloud, 0.02, 50, 100000, logger)
	test.That(t, err, test.ShouldBeNil)

	seen := make(map[int]bool)
	for _, obj := range objects {
		for k, idx := range obj {
			test.That(t, seen[idx], test.ShouldBeFalse)
			seen[idx] = true
			test.That(t, idx, test.ShouldBeBetween, -1, cloud.Size())
			if k > 0 {
				// indices within an object are ascending
				test.That(t, idx, test.ShouldBeGreaterThan, obj[k-1])
			}
		}
	}
}

func TestConvexObjectSegmentationSeparateClusters(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// two flat patches far apart are two objects
	cloud := pc.New()
	for _, offset := range []float64{0, 5} {
		for i := 0; i <= 20; i++ {
			for j := 0; j <= 20; j++ {
				cloud.Add(pc.NewPoint(offset+float64(i)*0.01, float64(j)*0.01, 1))
			}
		}
	}
	test.That(t, cloud.EstimateNormals(0.03), test.ShouldBeNil)
	objects, err := ConvexObjectSegmentation(cloud, 0.02, 100, 100000, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 2)
}

func TestConvexObjectSegmentationRequiresNormals(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := foldedSurface(10)
	_, err := ConvexObjectSegmentation(cloud, 0.02, 100, 100000, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConvexObjectSegmentationInvalid(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := foldedSurface(10)
	test.That(t, cloud.EstimateNormals(0.03), test.ShouldBeNil)
	_, err := ConvexObjectSegmentation(cloud, 0.02, 0, 100, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ConvexObjectSegmentation(cloud, 0.02, 100, 50, logger)
	test.That(t, err, test.ShouldNotBeNil)

	empty := pc.New()
	test.That(t, empty.EstimateNormals(0.03), test.ShouldBeNil)
	objects, err := ConvexObjectSegmentation(empty, 0.02, 1, 100, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(objects), test.ShouldEqual, 0)
}
