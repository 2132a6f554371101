package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestDepthMap(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	test.That(t, dm.Width(), test.ShouldEqual, 4)
	test.That(t, dm.Height(), test.ShouldEqual, 3)
	test.That(t, dm.HasData(), test.ShouldBeTrue)

	dm.Set(2, 1, 1000)
	test.That(t, dm.GetDepth(2, 1), test.ShouldEqual, Depth(1000))
	test.That(t, dm.Get(image.Point{X: 2, Y: 1}), test.ShouldEqual, Depth(1000))
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, Depth(0))

	test.That(t, dm.Contains(3, 2), test.ShouldBeTrue)
	test.That(t, dm.Contains(4, 2), test.ShouldBeFalse)
	test.That(t, dm.Contains(-1, 0), test.ShouldBeFalse)

	var empty DepthMap
	test.That(t, empty.HasData(), test.ShouldBeFalse)
	test.That(t, MaxDepth, test.ShouldEqual, Depth(65535))
}

func TestDepthMapFromData(t *testing.T) {
	data := []Depth{1, 2, 3, 4, 5, 6}
	dm := NewDepthMapFromData(3, 2, data)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, Depth(1))
	test.That(t, dm.GetDepth(2, 0), test.ShouldEqual, Depth(3))
	test.That(t, dm.GetDepth(0, 1), test.ShouldEqual, Depth(4))
	test.That(t, dm.GetDepth(2, 1), test.ShouldEqual, Depth(6))
}

func TestImage(t *testing.T) {
	img := NewImage(3, 2)
	test.That(t, img.Width(), test.ShouldEqual, 3)
	test.That(t, img.Height(), test.ShouldEqual, 2)

	img.SetXY(1, 1, ColorBGR{B: 10, G: 20, R: 30})
	test.That(t, img.GetXY(1, 1), test.ShouldResemble, ColorBGR{B: 10, G: 20, R: 30})
	test.That(t, img.Get(image.Point{X: 1, Y: 1}).R, test.ShouldEqual, uint8(30))
	test.That(t, img.Contains(2, 1), test.ShouldBeTrue)
	test.That(t, img.Contains(3, 1), test.ShouldBeFalse)
}
