package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sweepline-robotics/coverage.plan/internal/httputil"
)

// showTrajectoryChart renders a quick scatter plot (HTML) of the stored
// waypoint sequence using go-echarts. Waypoints are coloured by travel
// order so the boustrophedon sweep is visible without the playback UI.
// This is a debugging endpoint; the canvas frontend is the real surface.
func (s *Server) showTrajectoryChart(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	trajectory, err := s.loadTrajectory(w, id)
	if trajectory == nil || err != nil {
		return
	}

	data := make([]opts.ScatterData, 0, len(trajectory.Path))
	for i, p := range trajectory.Path {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y, i}})
	}

	// Pad the axes so edge waypoints stay visible.
	padX := trajectory.WallWidth * 0.05
	padY := trajectory.WallHeight * 0.05

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Coverage Trajectory", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Trajectory %d", trajectory.ID),
			Subtitle: fmt.Sprintf("wall=%gx%g step=%g waypoints=%d obstacles=%d", trajectory.WallWidth, trajectory.WallHeight, trajectory.Step, len(trajectory.Path), len(trajectory.Obstacles)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -padX, Max: trajectory.WallWidth + padX, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -padY, Max: trajectory.WallHeight + padY, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(len(trajectory.Path)),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)

	scatter.AddSeries("waypoints", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
