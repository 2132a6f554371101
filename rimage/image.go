package rimage

import "image"

// ColorBGR is one BGR8 pixel, in sensor byte order.
type ColorBGR struct {
	B, G, R uint8
}

// Image is a width×height grid of BGR8 pixels.
type Image struct {
	width  int
	height int
	data   []ColorBGR
}

// NewImage returns a zeroed BGR8 image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{width: width, height: height, data: make([]ColorBGR, width*height)}
}

// NewImageFromData wraps raw row-major BGR8 data. The data is not copied.
func NewImageFromData(width, height int, data []ColorBGR) *Image {
	return &Image{width: width, height: height, data: data}
}

// Width returns the width in pixels.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height in pixels.
func (i *Image) Height() int {
	return i.height
}

// GetXY returns the pixel at (x, y).
func (i *Image) GetXY(x, y int) ColorBGR {
	return i.data[y*i.width+x]
}

// Get returns the pixel at an image point.
func (i *Image) Get(p image.Point) ColorBGR {
	return i.data[p.Y*i.width+p.X]
}

// SetXY writes the pixel at (x, y).
func (i *Image) SetXY(x, y int, c ColorBGR) {
	i.data[y*i.width+x] = c
}

// Contains reports whether (x, y) is inside the image.
func (i *Image) Contains(x, y int) bool {
	return x >= 0 && x < i.width && y >= 0 && y < i.height
}
