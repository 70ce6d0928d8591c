package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/limaJavier/timetabling/pkg/model"
	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/limaJavier/timetabling/pkg/timetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runColumns = []string{"id", "instance", "strategy", "seed", "feasible", "hard_cost", "soft_cost", "statistics", "result", "created_at"}

func newStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresStore(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func newTestSolution(t *testing.T) *Solution {
	instance := model.NewTestInstance(1, 4, 2,
		model.NewTestSession(0, 0, 0, model.Lecture, 2, []uint64{0}, []uint64{0, 1}),
		model.NewTestSession(1, 0, 1, model.Exercise, 1, []uint64{1}, []uint64{0, 1}),
	)
	state, err := timetable.Initialize(instance)
	require.NoError(t, err)

	result := optimizer.Result{Repair: &optimizer.RepairResult{Feasible: true}}
	return NewSolution("small", "repair", 42, state, result, optimizer.DefaultConfig().Weights)
}

func TestNewSolution(t *testing.T) {
	//** Arrange
	solution := newTestSolution(t)

	//** Assert
	assert.Len(t, solution.ID, 36)
	assert.Equal(t, "small", solution.Instance)
	assert.Equal(t, uint64(42), solution.Seed)
	assert.True(t, solution.Statistics.Feasible)
	assert.Len(t, solution.Assignments, 2)
	assert.Equal(t, uint64(0), solution.Assignments[0].Session)
	assert.False(t, solution.CreatedAt.IsZero())
}

func TestSolutionJSON(t *testing.T) {
	t.Run("Correct flow", func(t *testing.T) {
		//** Arrange
		solution := newTestSolution(t)
		path := filepath.Join(t.TempDir(), "solution.json")

		//** Act
		require.NoError(t, solution.WriteJSON(path))
		read, err := ReadJSON(path)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, solution.ID, read.ID)
		assert.Equal(t, solution.Assignments, read.Assignments)
		assert.Equal(t, solution.Statistics.HardCost, read.Statistics.HardCost)
		require.NotNil(t, read.Result.Repair)
		assert.Nil(t, read.Result.Anneal)
	})

	t.Run("Invalid id", func(t *testing.T) {
		//** Arrange
		solution := newTestSolution(t)
		solution.ID = "run-1"
		path := filepath.Join(t.TempDir(), "solution.json")
		require.NoError(t, solution.WriteJSON(path))

		//** Act
		_, err := ReadJSON(path)

		//** Assert
		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestPostgresStoreSave(t *testing.T) {
	t.Run("Correct flow", func(t *testing.T) {
		//** Arrange
		store, mock, cleanup := newStoreMock(t)
		defer cleanup()
		solution := newTestSolution(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_runs")).
			WithArgs(solution.ID, "small", "repair", 42, true, 0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		for _, assignment := range solution.Assignments {
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_assignments")).
				WithArgs(solution.ID, assignment.Session, assignment.Start, assignment.Classroom).
				WillReturnResult(sqlmock.NewResult(1, 1))
		}
		mock.ExpectCommit()

		//** Act
		err := store.Save(context.Background(), solution)

		//** Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on failed assignment", func(t *testing.T) {
		//** Arrange
		store, mock, cleanup := newStoreMock(t)
		defer cleanup()
		solution := newTestSolution(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_runs")).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_assignments")).
			WillReturnError(errors.New("duplicate key"))
		mock.ExpectRollback()

		//** Act
		err := store.Save(context.Background(), solution)

		//** Assert
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert timetable assignment")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nil solution", func(t *testing.T) {
		store, _, cleanup := newStoreMock(t)
		defer cleanup()
		assert.Error(t, store.Save(context.Background(), nil))
	})
}

func TestPostgresStoreLoad(t *testing.T) {
	t.Run("Correct flow", func(t *testing.T) {
		//** Arrange
		store, mock, cleanup := newStoreMock(t)
		defer cleanup()
		id := "7f0c5a8e-54a3-4c55-9c1d-0d7c3c7b8a10"
		createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, instance, strategy, seed, feasible, hard_cost, soft_cost, statistics, result, created_at\nFROM timetable_runs WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(runColumns).
				AddRow(id, "small", "full", int64(-1), true, 0, 1.5, []byte(`{"feasible":true,"hard_cost":0}`), []byte(`{"anneal":{"iterations":10}}`), createdAt))
		mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_assignments WHERE run_id = $1 ORDER BY session_id ASC")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"session_id", "start_timeslot", "classroom_id"}).
				AddRow(0, 0, 0).
				AddRow(1, 2, 1))

		//** Act
		solution, err := store.Load(context.Background(), id)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, "full", solution.Strategy)
		assert.Equal(t, ^uint64(0), solution.Seed)
		assert.Equal(t, 1.5, solution.SoftCost)
		assert.True(t, solution.Statistics.Feasible)
		require.NotNil(t, solution.Result.Anneal)
		assert.Equal(t, 10, solution.Result.Anneal.Iterations)
		assert.Equal(t, []model.Assignment{{Session: 0, Start: 0, Classroom: 0}, {Session: 1, Start: 2, Classroom: 1}}, solution.Assignments)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		//** Arrange
		store, mock, cleanup := newStoreMock(t)
		defer cleanup()
		mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_runs WHERE id = $1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		//** Act
		_, err := store.Load(context.Background(), "missing")

		//** Assert
		assert.ErrorIs(t, err, ErrSolutionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreList(t *testing.T) {
	//** Arrange
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_runs WHERE instance = $1 ORDER BY created_at DESC")).
		WithArgs("small").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-2", "small", "anneal", int64(2), false, 3, 4.0, []byte(`{}`), []byte(`{}`), now).
			AddRow("run-1", "small", "repair", int64(1), true, 0, 2.0, []byte(`{}`), []byte(`{}`), now.Add(-time.Hour)))

	//** Act
	solutions, err := store.List(context.Background(), "small")

	//** Assert
	require.NoError(t, err)
	require.Len(t, solutions, 2)
	assert.Equal(t, "run-2", solutions[0].ID)
	assert.Empty(t, solutions[0].Assignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreEnsureSchema(t *testing.T) {
	//** Arrange
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS timetable_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	//** Act
	err := store.EnsureSchema(context.Background())

	//** Assert
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
