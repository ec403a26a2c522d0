package deal

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealRepository_PipelineFollowsFunnelOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"stage", "count", "total"}).
		AddRow(StageClosedWon, 2, 5000.0).
		AddRow(StageLead, 4, 1200.5).
		AddRow(StageProposal, 1, 0.0)
	mock.ExpectQuery(`SELECT stage, count\(\*\), COALESCE\(sum\(value\), 0\)::float8 FROM deals GROUP BY stage`).
		WillReturnRows(rows)

	summary, err := NewPgxRepository(mock).Pipeline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []StageSummary{
		{Stage: StageLead, Count: 4, TotalValue: 1200.5},
		{Stage: StageProposal, Count: 1, TotalValue: 0},
		{Stage: StageClosedWon, Count: 2, TotalValue: 5000},
	}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealRepository_PipelineEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM deals GROUP BY stage`).
		WillReturnRows(pgxmock.NewRows([]string{"stage", "count", "total"}))

	summary, err := NewPgxRepository(mock).Pipeline(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}

func TestDealRepository_HasDependents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM tasks WHERE deal_id = \$1\)`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	busy, err := NewPgxRepository(mock).HasDependents(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, busy)
}

func TestDealRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM deals WHERE id = \$1`).
			WithArgs(int64(4)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		assert.ErrorIs(t, NewPgxRepository(mock).Delete(ctx, 4), ErrNotFound)
	})

	t.Run("Referenced Row", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`DELETE FROM deals`).
			WithArgs(int64(4)).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		assert.ErrorIs(t, NewPgxRepository(mock).Delete(ctx, 4), ErrHasDependents)
	})

	t.Run("Driver Failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		boom := errors.New("connection reset")
		mock.ExpectExec(`DELETE FROM deals`).
			WithArgs(int64(4)).
			WillReturnError(boom)
		assert.ErrorIs(t, NewPgxRepository(mock).Delete(ctx, 4), boom)
	})
}
