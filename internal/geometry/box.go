package geometry

import "image"

// Box is an axis-aligned bounding box in pixel space, origin top-left.
type Box struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// NewBox builds a box, clamping negative sizes to zero.
func NewBox(x, y, w, h int) Box {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Box{X: x, Y: y, W: w, H: h}
}

// FromCorners builds a box from top-left and bottom-right corners.
func FromCorners(x0, y0, x1, y1 int) Box {
	return NewBox(x0, y0, x1-x0, y1-y0)
}

// FromRectangle converts an image.Rectangle.
func FromRectangle(r image.Rectangle) Box {
	r = r.Canon()
	return NewBox(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

func (b Box) Right() int  { return b.X + b.W }
func (b Box) Bottom() int { return b.Y + b.H }

// Center returns the center point with sub-pixel precision.
func (b Box) Center() (float64, float64) {
	return float64(b.X) + float64(b.W)/2, float64(b.Y) + float64(b.H)/2
}

// ContainsPoint reports whether (x, y) lies inside the box, edges included.
func (b Box) ContainsPoint(x, y float64) bool {
	return float64(b.X) <= x && x <= float64(b.Right()) &&
		float64(b.Y) <= y && y <= float64(b.Bottom())
}

// Contains reports whether o lies entirely inside b.
func (b Box) Contains(o Box) bool {
	return b.X <= o.X && b.Y <= o.Y && o.Right() <= b.Right() && o.Bottom() <= b.Bottom()
}

// Union returns the smallest box covering both b and o.
func (b Box) Union(o Box) Box {
	return FromCorners(
		min(b.X, o.X),
		min(b.Y, o.Y),
		max(b.Right(), o.Right()),
		max(b.Bottom(), o.Bottom()),
	)
}

// Rectangle converts the box to an image.Rectangle.
func (b Box) Rectangle() image.Rectangle {
	return image.Rect(b.X, b.Y, b.Right(), b.Bottom())
}

// UnionAll returns the union of all boxes and false when boxes is empty.
func UnionAll(boxes []Box) (Box, bool) {
	if len(boxes) == 0 {
		return Box{}, false
	}
	u := boxes[0]
	for _, b := range boxes[1:] {
		u = u.Union(b)
	}
	return u, true
}
