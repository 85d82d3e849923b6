// Package api implements the HTTP surface of the coverage planning service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sweepline-robotics/coverage.plan/internal/db"
	"github.com/sweepline-robotics/coverage.plan/internal/geom"
	"github.com/sweepline-robotics/coverage.plan/internal/httputil"
	"github.com/sweepline-robotics/coverage.plan/internal/machinelink"
	"github.com/sweepline-robotics/coverage.plan/internal/planner"
)

// DefaultStep is the scan-line spacing used when a plan request omits step.
const DefaultStep = 0.25

type Server struct {
	db   *db.DB
	link machinelink.LinkInterface
}

// NewServer creates an API server over the trajectory store. link may be nil
// when no machine is connected; dispatch requests then fail with 409.
func NewServer(database *db.DB, link machinelink.LinkInterface) *Server {
	return &Server{
		db:   database,
		link: link,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", s.handlePlan)
	mux.HandleFunc("/trajectories", s.listTrajectories)
	mux.HandleFunc("/trajectories/", s.trajectoryRoutes)
	return mux
}

// PlanRequest is the request body for POST /plan. The wall is anchored at
// the origin; obstacles are given as bottom-left corner plus extent, the
// same shape they are stored and played back in.
type PlanRequest struct {
	WallWidth  float64       `json:"wall_width"`
	WallHeight float64       `json:"wall_height"`
	Step       float64       `json:"step,omitempty"`
	Obstacles  []db.Obstacle `json:"obstacles"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.WallWidth <= 0 || req.WallHeight <= 0 {
		httputil.BadRequest(w, "wall_width and wall_height must be positive")
		return
	}
	step := req.Step
	if step == 0 {
		step = DefaultStep
	}

	area := geom.Rect{MinX: 0, MinY: 0, MaxX: req.WallWidth, MaxY: req.WallHeight}
	obstacles := make([]geom.Rect, len(req.Obstacles))
	for i, o := range req.Obstacles {
		obstacles[i] = o.Rect()
	}

	path, err := planner.Plan(area, obstacles, step)
	if err != nil {
		var invalid *planner.InvalidInputError
		if errors.As(err, &invalid) {
			httputil.BadRequest(w, invalid.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("planning failed: %v", err))
		return
	}

	trajectory := &db.Trajectory{
		WallWidth:  req.WallWidth,
		WallHeight: req.WallHeight,
		Step:       step,
		Obstacles:  req.Obstacles,
		Path:       path,
		PathLength: path.Length(),
	}
	if trajectory.Obstacles == nil {
		trajectory.Obstacles = []db.Obstacle{}
	}
	if err := s.db.InsertTrajectory(trajectory); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store trajectory: %v", err))
		return
	}

	httputil.WriteJSONOK(w, trajectory)
}

func (s *Server) listTrajectories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	trajectories, err := s.db.ListTrajectories(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list trajectories: %v", err))
		return
	}
	if trajectories == nil {
		trajectories = []*db.Trajectory{}
	}
	httputil.WriteJSONOK(w, trajectories)
}

// trajectoryRoutes dispatches /trajectories/{id}, /trajectories/{id}/chart
// and /trajectories/{id}/dispatch.
func (s *Server) trajectoryRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/trajectories/")
	idPart, action, _ := strings.Cut(rest, "/")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		httputil.BadRequest(w, "invalid trajectory id")
		return
	}

	switch action {
	case "":
		s.getTrajectory(w, r, id)
	case "chart":
		s.showTrajectoryChart(w, r, id)
	case "dispatch":
		s.dispatchTrajectory(w, r, id)
	default:
		httputil.NotFound(w, "not found")
	}
}

func (s *Server) getTrajectory(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	trajectory, err := s.loadTrajectory(w, id)
	if trajectory == nil || err != nil {
		return
	}
	httputil.WriteJSONOK(w, trajectory)
}

func (s *Server) dispatchTrajectory(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.link == nil {
		httputil.Conflict(w, "no machine link configured")
		return
	}

	trajectory, err := s.loadTrajectory(w, id)
	if trajectory == nil || err != nil {
		return
	}

	if err := s.link.SendPath(trajectory.Path); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to dispatch path: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":    "dispatched",
		"id":        id,
		"waypoints": len(trajectory.Path),
	})
}

// loadTrajectory fetches the trajectory, writing the error response itself
// when the lookup fails.
func (s *Server) loadTrajectory(w http.ResponseWriter, id int64) (*db.Trajectory, error) {
	trajectory, err := s.db.GetTrajectory(id)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, fmt.Sprintf("trajectory %d not found", id))
		return nil, err
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load trajectory: %v", err))
		return nil, err
	}
	return trajectory, nil
}
