// Package geom provides the small 2D primitives used by the coverage
// planner: points, axis-aligned rectangles and one-dimensional x-intervals.
package geom

import (
	"encoding/json"
	"fmt"
)

// Point is a single 2D waypoint. It serialises as a two-element JSON array
// [x, y], which is the format stored in the trajectories table and consumed
// by the playback UI.
type Point struct {
	X float64
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle. MinX/MinY is the bottom-left corner,
// MaxX/MaxY the top-right. Used for both the coverage area and obstacles.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// RectFromSize builds a Rect from a bottom-left corner plus width and height,
// the shape obstacles arrive in over the API.
func RectFromSize(x, y, width, height float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + width, MaxY: y + height}
}

// Valid reports whether the rectangle has strictly positive extent on both
// axes.
func (r Rect) Valid() bool {
	return r.MinX < r.MaxX && r.MinY < r.MaxY
}

func (r Rect) Width() float64 {
	return r.MaxX - r.MinX
}

func (r Rect) Height() float64 {
	return r.MaxY - r.MinY
}

// SpansY reports whether the rectangle's closed y-range covers the given
// y-coordinate. A scan line grazing an obstacle's top or bottom edge counts
// as blocked.
func (r Rect) SpansY(y float64) bool {
	return r.MinY <= y && y <= r.MaxY
}

// XInterval returns the rectangle's x-extent as an Interval.
func (r Rect) XInterval() Interval {
	return Interval{Lo: r.MinX, Hi: r.MaxX}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %g,%g]", r.MinX, r.MinY, r.MaxX, r.MaxY)
}
