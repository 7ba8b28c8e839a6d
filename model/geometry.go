package model

// Point is an absolute coordinate, used for flow waypoints.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is the resolved position and size of an element or container.
// Coordinates are absolute - relative to the document origin, not to a parent.
type Geometry struct {
	X      float64 `json:"x"`      // Left edge.
	Y      float64 `json:"y"`      // Top edge.
	Width  float64 `json:"width"`  // Horizontal extent.
	Height float64 `json:"height"` // Vertical extent.
}

func (g Geometry) Bottom() float64 {
	return g.Y + g.Height
}

func (g Geometry) Center() Point {
	return Point{X: g.X + g.Width/2, Y: g.Y + g.Height/2}
}

// Contains determines if a point lies within the rectangle, edges included.
func (g Geometry) Contains(p Point) bool {
	return p.X >= g.X && p.X <= g.Right() && p.Y >= g.Y && p.Y <= g.Bottom()
}

// Encloses determines if another rectangle lies fully within this one.
func (g Geometry) Encloses(o Geometry) bool {
	return o.X >= g.X && o.Right() <= g.Right() && o.Y >= g.Y && o.Bottom() <= g.Bottom()
}

// Overlaps determines if two rectangles share interior area.
// Rectangles that only touch at an edge do not overlap.
func (g Geometry) Overlaps(o Geometry) bool {
	return g.X < o.Right() && o.X < g.Right() && g.Y < o.Bottom() && o.Y < g.Bottom()
}

func (g Geometry) Right() float64 {
	return g.X + g.Width
}

// Union returns the smallest rectangle that encloses both rectangles.
func (g Geometry) Union(o Geometry) Geometry {
	x := min(g.X, o.X)
	y := min(g.Y, o.Y)
	return Geometry{
		X:      x,
		Y:      y,
		Width:  max(g.Right(), o.Right()) - x,
		Height: max(g.Bottom(), o.Bottom()) - y,
	}
}
