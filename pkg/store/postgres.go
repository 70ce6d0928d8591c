package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq"
	"github.com/limaJavier/timetabling/pkg/config"
	"github.com/limaJavier/timetabling/pkg/model"
)

var ErrSolutionNotFound = errors.New("solution not found")

const schema = `
CREATE TABLE IF NOT EXISTS timetable_runs (
    id UUID PRIMARY KEY,
    instance TEXT NOT NULL,
    strategy TEXT NOT NULL,
    seed BIGINT NOT NULL,
    feasible BOOLEAN NOT NULL,
    hard_cost INTEGER NOT NULL,
    soft_cost DOUBLE PRECISION NOT NULL,
    statistics JSONB NOT NULL,
    result JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS timetable_assignments (
    run_id UUID NOT NULL REFERENCES timetable_runs(id) ON DELETE CASCADE,
    session_id BIGINT NOT NULL,
    start_timeslot BIGINT NOT NULL,
    classroom_id BIGINT NOT NULL,
    PRIMARY KEY (run_id, session_id)
);`

func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// runRow mirrors timetable_runs. The seed is stored bit for bit in a signed column
type runRow struct {
	ID         string         `db:"id"`
	Instance   string         `db:"instance"`
	Strategy   string         `db:"strategy"`
	Seed       int64          `db:"seed"`
	Feasible   bool           `db:"feasible"`
	HardCost   int            `db:"hard_cost"`
	SoftCost   float64        `db:"soft_cost"`
	Statistics types.JSONText `db:"statistics"`
	Result     types.JSONText `db:"result"`
	CreatedAt  time.Time      `db:"created_at"`
}

type assignmentRow struct {
	RunID string `db:"run_id"`
	model.Assignment
}

// PostgresStore persists solutions in timetable_runs and timetable_assignments
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := store.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create timetable schema: %w", err)
	}
	return nil
}

// Save inserts the run and its assignments in one transaction
func (store *PostgresStore) Save(ctx context.Context, solution *Solution) (err error) {
	if solution == nil {
		return fmt.Errorf("solution payload is nil")
	}

	row, err := toRunRow(solution)
	if err != nil {
		return err
	}

	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const runQuery = `
INSERT INTO timetable_runs (id, instance, strategy, seed, feasible, hard_cost, soft_cost, statistics, result, created_at)
VALUES (:id, :instance, :strategy, :seed, :feasible, :hard_cost, :soft_cost, :statistics, :result, :created_at)`
	if _, err = tx.NamedExecContext(ctx, runQuery, row); err != nil {
		return fmt.Errorf("insert timetable run: %w", err)
	}

	const assignmentQuery = `
INSERT INTO timetable_assignments (run_id, session_id, start_timeslot, classroom_id)
VALUES (:run_id, :session_id, :start_timeslot, :classroom_id)`
	for _, assignment := range solution.Assignments {
		if _, err = tx.NamedExecContext(ctx, assignmentQuery, assignmentRow{RunID: solution.ID, Assignment: assignment}); err != nil {
			return fmt.Errorf("insert timetable assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable run: %w", err)
	}
	return nil
}

func (store *PostgresStore) Load(ctx context.Context, id string) (*Solution, error) {
	const runQuery = `SELECT id, instance, strategy, seed, feasible, hard_cost, soft_cost, statistics, result, created_at
FROM timetable_runs WHERE id = $1`
	var row runRow
	if err := store.db.GetContext(ctx, &row, runQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSolutionNotFound
		}
		return nil, fmt.Errorf("get timetable run: %w", err)
	}

	const assignmentQuery = `SELECT session_id, start_timeslot, classroom_id
FROM timetable_assignments WHERE run_id = $1 ORDER BY session_id ASC`
	var assignments []model.Assignment
	if err := store.db.SelectContext(ctx, &assignments, assignmentQuery, id); err != nil {
		return nil, fmt.Errorf("list timetable assignments: %w", err)
	}

	solution, err := fromRunRow(row)
	if err != nil {
		return nil, err
	}
	solution.Assignments = assignments
	return solution, nil
}

// List returns the runs of an instance, newest first, without their assignments
func (store *PostgresStore) List(ctx context.Context, instance string) ([]*Solution, error) {
	const query = `SELECT id, instance, strategy, seed, feasible, hard_cost, soft_cost, statistics, result, created_at
FROM timetable_runs WHERE instance = $1 ORDER BY created_at DESC`
	var rows []runRow
	if err := store.db.SelectContext(ctx, &rows, query, instance); err != nil {
		return nil, fmt.Errorf("list timetable runs: %w", err)
	}

	solutions := make([]*Solution, 0, len(rows))
	for _, row := range rows {
		solution, err := fromRunRow(row)
		if err != nil {
			return nil, err
		}
		solutions = append(solutions, solution)
	}
	return solutions, nil
}

func toRunRow(solution *Solution) (runRow, error) {
	statistics, err := json.Marshal(solution.Statistics)
	if err != nil {
		return runRow{}, fmt.Errorf("marshal statistics: %w", err)
	}
	result, err := json.Marshal(solution.Result)
	if err != nil {
		return runRow{}, fmt.Errorf("marshal result: %w", err)
	}

	return runRow{
		ID:         solution.ID,
		Instance:   solution.Instance,
		Strategy:   solution.Strategy,
		Seed:       int64(solution.Seed),
		Feasible:   solution.Statistics.Feasible,
		HardCost:   solution.Statistics.HardCost,
		SoftCost:   solution.SoftCost,
		Statistics: types.JSONText(statistics),
		Result:     types.JSONText(result),
		CreatedAt:  solution.CreatedAt,
	}, nil
}

func fromRunRow(row runRow) (*Solution, error) {
	solution := &Solution{
		ID:        row.ID,
		Instance:  row.Instance,
		Strategy:  row.Strategy,
		Seed:      uint64(row.Seed),
		SoftCost:  row.SoftCost,
		CreatedAt: row.CreatedAt,
	}
	if err := row.Statistics.Unmarshal(&solution.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshal statistics: %w", err)
	}
	if err := row.Result.Unmarshal(&solution.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return solution, nil
}
