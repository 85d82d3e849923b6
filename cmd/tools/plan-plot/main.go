// plan-plot renders a stored coverage trajectory to a PNG for offline
// inspection: the waypoint path as a line, obstacles as shaded boxes, plus a
// short summary of the segment-length distribution on stdout.
//
// Usage:
//
//	plan-plot -db trajectories.db -id 3 -out trajectory-3.png
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sweepline-robotics/coverage.plan/internal/db"
)

var (
	dbFile = flag.String("db", "trajectories.db", "Path to the sqlite database")
	id     = flag.Int64("id", 0, "Trajectory ID to plot")
	out    = flag.String("out", "", "Output PNG path (default trajectory-<id>.png)")
)

func main() {
	flag.Parse()

	if *id < 1 {
		log.Fatal("a trajectory -id is required")
	}
	outPath := *out
	if outPath == "" {
		outPath = fmt.Sprintf("trajectory-%d.png", *id)
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	trajectory, err := database.GetTrajectory(*id)
	if err != nil {
		log.Fatalf("failed to load trajectory %d: %v", *id, err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trajectory %d (%gx%g, step %g)",
		trajectory.ID, trajectory.WallWidth, trajectory.WallHeight, trajectory.Step)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = 0, trajectory.WallWidth
	p.Y.Min, p.Y.Max = 0, trajectory.WallHeight

	// obstacles first so the path draws over them
	for _, o := range trajectory.Obstacles {
		box := plotter.XYs{
			{X: o.X, Y: o.Y},
			{X: o.X + o.Width, Y: o.Y},
			{X: o.X + o.Width, Y: o.Y + o.Height},
			{X: o.X, Y: o.Y + o.Height},
			{X: o.X, Y: o.Y},
		}
		poly, err := plotter.NewPolygon(box)
		if err != nil {
			log.Fatalf("failed to build obstacle polygon: %v", err)
		}
		poly.Color = color.RGBA{R: 180, G: 60, B: 60, A: 120}
		p.Add(poly)
	}

	pts := make(plotter.XYs, 0, len(trajectory.Path))
	for _, wp := range trajectory.Path {
		pts = append(pts, plotter.XY{X: wp.X, Y: wp.Y})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build path line: %v", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 40, G: 160, B: 100, A: 255}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, outPath); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}

	printSegmentStats(trajectory)
	fmt.Printf("wrote %s\n", outPath)
}

// printSegmentStats summarises the travel-segment lengths of the path.
func printSegmentStats(t *db.Trajectory) {
	if len(t.Path) < 2 {
		return
	}

	segments := make([]float64, 0, len(t.Path)-1)
	for i := 1; i < len(t.Path); i++ {
		dx := t.Path[i].X - t.Path[i-1].X
		dy := t.Path[i].Y - t.Path[i-1].Y
		segments = append(segments, math.Hypot(dx, dy))
	}

	// Quantile needs sorted input.
	sorted := append([]float64(nil), segments...)
	sort.Float64s(sorted)

	fmt.Printf("waypoints: %d  total travel: %.2f m\n", len(t.Path), t.PathLength)
	fmt.Printf("segment length: mean %.3f  p50 %.3f  p95 %.3f\n",
		stat.Mean(segments, nil),
		stat.Quantile(0.5, stat.Empirical, sorted, nil),
		stat.Quantile(0.95, stat.Empirical, sorted, nil),
	)
}
