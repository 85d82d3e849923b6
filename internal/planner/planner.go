// Package planner generates boustrophedon coverage paths for a rectangular
// area containing rectangular obstacles.
//
// The planner is a pure function: identical inputs always produce the
// identical waypoint sequence, nothing is retained between calls, and it is
// safe to call from concurrent request handlers.
package planner

import (
	"fmt"
	"math"

	"github.com/sweepline-robotics/coverage.plan/internal/geom"
)

// Path is an ordered waypoint sequence. The order defines travel order; the
// machine visits each point in turn with straight segments between them.
type Path []geom.Point

// InvalidInputError reports malformed planner input: a non-positive step or
// a rectangle with inverted or zero extent. It is the only error kind Plan
// returns, and it is always detected before any computation starts.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid planner input: " + e.Reason
}

// Plan computes a boustrophedon coverage path over area, sweeping horizontal
// scan lines spaced step apart and carving out the supplied obstacles.
//
// Scan lines run from area.MinY upward. If the final increment would leave a
// strip narrower than step uncovered, one extra line is emitted at exactly
// area.MaxY. Each line contributes two waypoints per free x-interval, with
// the traversal direction alternating by scan-line index: even lines
// left-to-right, odd lines right-to-left. A fully obstructed line emits no
// waypoints but still counts toward the alternation, so the direction of
// every line depends only on its index.
//
// Consecutive waypoints are connected by straight segments. The guarantee is
// that no waypoint and no coverage segment (the pair emitted for one free
// interval) enters an obstacle interior; transition segments between
// intervals and between lines are straight and may pass over blocked gaps.
func Plan(area geom.Rect, obstacles []geom.Rect, step float64) (Path, error) {
	if step <= 0 {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("step must be positive, got %g", step)}
	}
	if !area.Valid() {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("area %v has no extent", area)}
	}
	for i, obs := range obstacles {
		if !obs.Valid() {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("obstacle %d %v has no extent", i, obs)}
		}
	}

	span := area.XInterval()
	var path Path

	for idx, y := range scanLines(area.MinY, area.MaxY, step) {
		free := geom.SubtractIntervals(span, blockedAt(obstacles, y))
		if len(free) == 0 {
			// Fully obstructed line: contributes nothing, but the
			// direction still alternates by line index.
			continue
		}

		leftToRight := idx%2 == 0
		if leftToRight {
			for _, iv := range free {
				path = append(path, geom.Point{X: iv.Lo, Y: y}, geom.Point{X: iv.Hi, Y: y})
			}
		} else {
			for i := len(free) - 1; i >= 0; i-- {
				path = append(path, geom.Point{X: free[i].Hi, Y: y}, geom.Point{X: free[i].Lo, Y: y})
			}
		}
	}

	return path, nil
}

// scanLines returns the y-coordinates minY, minY+step, ... up to maxY. When
// the stepping sequence stops short of maxY a final line at exactly maxY is
// appended so the top strip is never silently truncated.
func scanLines(minY, maxY, step float64) []float64 {
	var ys []float64
	for y := minY; y <= maxY; y += step {
		ys = append(ys, y)
	}
	if last := ys[len(ys)-1]; last < maxY {
		ys = append(ys, maxY)
	}
	return ys
}

// blockedAt collects the x-intervals of every obstacle whose closed y-range
// covers the scan line at y.
func blockedAt(obstacles []geom.Rect, y float64) []geom.Interval {
	var blocked []geom.Interval
	for _, obs := range obstacles {
		if obs.SpansY(y) {
			blocked = append(blocked, obs.XInterval())
		}
	}
	return blocked
}

// Length returns the total travel distance of the path, including the
// transition segments between scan lines.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += math.Hypot(p[i].X-p[i-1].X, p[i].Y-p[i-1].Y)
	}
	return total
}
