package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// Pipeline stages recorded in the archive.
const (
	StageCollect = "collect"
	StageValue   = "value"
	StagePublish = "publish"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one archived pipeline stage execution.
type Run struct {
	ID        int64     `db:"id" json:"id"`
	Stage     string    `db:"stage" json:"stage"`
	Race      string    `db:"race" json:"race"`
	Riders    int       `db:"riders" json:"riders"`
	P10       float64   `db:"p10" json:"p10"`
	P99       float64   `db:"p99" json:"p99"`
	Target    string    `db:"target" json:"target"` // output file or sheet tab
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RunRider is a rider row as it was written by a run.
type RunRider struct {
	RunID    int64   `db:"run_id" json:"run_id"`
	Position int     `db:"position" json:"position"`
	Rider    string  `db:"rider" json:"rider"`
	Team     string  `db:"team" json:"team"`
	URL      string  `db:"url" json:"url"`
	Role     string  `db:"role" json:"role"`
	Value    float64 `db:"value" json:"value"`
	Adj      float64 `db:"adj" json:"adj"`
	Points   float64 `db:"points" json:"points"`
}

// RunListOpts controls run listing.
type RunListOpts struct {
	Stage string
	Limit int
}

// Store is the persistence interface.
type Store interface {
	RecordRun(ctx context.Context, run *Run, riders []RunRider) error
	ListRuns(ctx context.Context, opts RunListOpts) ([]Run, error)
	GetRun(ctx context.Context, id int64) (*Run, error)
	ListRunRiders(ctx context.Context, runID int64) ([]RunRider, error)
	LatestRun(ctx context.Context, stage string) (*Run, error)

	Close() error
}

// RidersFromRecords converts records to archive rows. points may be nil or
// parallel to records.
func RidersFromRecords(records []rider.Record, points []float64) []RunRider {
	out := make([]RunRider, len(records))
	for i, r := range records {
		out[i] = RunRider{
			Position: i + 1,
			Rider:    r.Rider,
			Team:     r.Team,
			URL:      r.URL,
			Role:     r.Role,
			Value:    r.Value,
			Adj:      r.Adj,
		}
		if i < len(points) {
			out[i].Points = points[i]
		}
	}
	return out
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run *Run, riders []RunRider) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Riders = len(riders)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (stage, race, riders, p10, p99, target, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Stage, run.Race, run.Riders, run.P10, run.P99, run.Target, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i := range riders {
		riders[i].RunID = id
		if riders[i].Position == 0 {
			riders[i].Position = i + 1
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO run_riders (run_id, position, rider, team, url, role, value, adj, points)
			VALUES (:run_id, :position, :rider, :team, :url, :role, :value, :adj, :points)
		`, riders[i])
		if err != nil {
			return fmt.Errorf("insert rider %s: %w", riders[i].Rider, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	run.ID = id
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts RunListOpts) ([]Run, error) {
	query := "SELECT * FROM runs WHERE 1=1"
	var args []any

	if opts.Stage != "" {
		query += " AND stage = ?"
		args = append(args, opts.Stage)
	}

	query += " ORDER BY id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return &run, nil
}

func (s *SQLiteStore) ListRunRiders(ctx context.Context, runID int64) ([]RunRider, error) {
	var riders []RunRider
	err := s.db.SelectContext(ctx, &riders,
		"SELECT * FROM run_riders WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("list riders of run %d: %w", runID, err)
	}
	return riders, nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context, stage string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run,
		"SELECT * FROM runs WHERE stage = ? ORDER BY id DESC LIMIT 1", stage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest %s run: %w", stage, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s run: %w", stage, err)
	}
	return &run, nil
}
