// Package db wraps the sqlite database that stores generated coverage
// trajectories.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweepline-robotics/coverage.plan/internal/geom"
)

// ErrNotFound is returned when a requested trajectory does not exist.
var ErrNotFound = errors.New("trajectory not found")

type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at path and brings
// the schema up to date by running all pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// OpenDB opens the database without touching the schema. Used by the migrate
// subcommand, which manages schema state itself.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// Obstacle is the wire and storage form of a rectangular obstacle: a
// bottom-left corner plus extent.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect converts the obstacle to its min/max rectangle form.
func (o Obstacle) Rect() geom.Rect {
	return geom.RectFromSize(o.X, o.Y, o.Width, o.Height)
}

// Trajectory is one stored planning result: the wall and obstacle inputs
// together with the generated waypoint sequence.
type Trajectory struct {
	ID         int64        `json:"id"`
	WallWidth  float64      `json:"wall_width"`
	WallHeight float64      `json:"wall_height"`
	Step       float64      `json:"step"`
	Obstacles  []Obstacle   `json:"obstacles"`
	Path       []geom.Point `json:"path"`
	PathLength float64      `json:"path_length"`
	CreatedAt  time.Time    `json:"created_at"`
}

// InsertTrajectory stores the trajectory and fills in its ID and CreatedAt.
// Obstacles and path are stored as JSON text columns.
func (db *DB) InsertTrajectory(t *Trajectory) error {
	obstacles, err := json.Marshal(t.Obstacles)
	if err != nil {
		return fmt.Errorf("failed to encode obstacles: %w", err)
	}
	path, err := json.Marshal(t.Path)
	if err != nil {
		return fmt.Errorf("failed to encode path: %w", err)
	}

	now := time.Now().Unix()
	res, err := db.Exec(
		`INSERT INTO trajectories (
			wall_width, wall_height, step, obstacles, path, path_length, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.WallWidth, t.WallHeight, t.Step,
		string(obstacles), string(path), t.PathLength, now,
	)
	if err != nil {
		return fmt.Errorf("insert trajectory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert trajectory id: %w", err)
	}
	t.ID = id
	t.CreatedAt = time.Unix(now, 0)
	return nil
}

// GetTrajectory loads a stored trajectory by ID. Returns ErrNotFound when no
// row exists.
func (db *DB) GetTrajectory(id int64) (*Trajectory, error) {
	row := db.QueryRow(
		`SELECT id, wall_width, wall_height, step, obstacles, path, path_length, created_at
		 FROM trajectories WHERE id = ?`, id)

	t, err := scanTrajectory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trajectory %d: %w", id, err)
	}
	return t, nil
}

// ListTrajectories returns the most recent trajectories, newest first.
func (db *DB) ListTrajectories(limit int) ([]*Trajectory, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.Query(
		`SELECT id, wall_width, wall_height, step, obstacles, path, path_length, created_at
		 FROM trajectories ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list trajectories: %w", err)
	}
	defer rows.Close()

	var trajectories []*Trajectory
	for rows.Next() {
		t, err := scanTrajectory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan trajectory: %w", err)
		}
		trajectories = append(trajectories, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trajectories, nil
}

func scanTrajectory(scan func(...any) error) (*Trajectory, error) {
	var t Trajectory
	var obstacles, path string
	var createdAtUnix int64

	if err := scan(
		&t.ID, &t.WallWidth, &t.WallHeight, &t.Step,
		&obstacles, &path, &t.PathLength, &createdAtUnix,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(obstacles), &t.Obstacles); err != nil {
		return nil, fmt.Errorf("failed to decode obstacles: %w", err)
	}
	if err := json.Unmarshal([]byte(path), &t.Path); err != nil {
		return nil, fmt.Errorf("failed to decode path: %w", err)
	}
	t.CreatedAt = time.Unix(createdAtUnix, 0)
	return &t, nil
}
