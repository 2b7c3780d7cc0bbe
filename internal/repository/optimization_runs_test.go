package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	return NewRepository(cfg, db), mock
}

func TestCompleteOptimizationRun(t *testing.T) {
	best, mean, stddev := 123.45, 150.0, 12.5

	newRun := func() *domain.OptimizationRun {
		return &domain.OptimizationRun{
			ID:             42,
			Status:         domain.RunStatusRunning,
			BestDistance:   &best,
			MeanDistance:   &mean,
			StdDevDistance: &stddev,
			Stops: []domain.OptimizationRunStop{
				{Position: 0, WaypointID: 7},
				{Position: 1, WaypointID: 8},
			},
			Version: 3,
		}
	}

	t.Run("提交成功", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		run := newRun()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE optimization_runs").
			WillReturnRows(sqlmock.NewRows([]string{"finished_at", "version"}).AddRow(time.Now(), int32(4)))
		mock.ExpectExec("INSERT INTO optimization_run_stops").
			WithArgs(int64(42), int32(0), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO optimization_run_stops").
			WithArgs(int64(42), int32(1), int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.CompleteOptimizationRun(run))
		require.Equal(t, domain.RunStatusFinished, run.Status)
		require.Equal(t, int32(4), run.Version)
		require.NotNil(t, run.FinishedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("插入停靠点失败后回滚", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		run := newRun()

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE optimization_runs").
			WillReturnRows(sqlmock.NewRows([]string{"finished_at", "version"}).AddRow(time.Now(), int32(4)))
		mock.ExpectExec("INSERT INTO optimization_run_stops").
			WillReturnError(errors.New("插入停靠点失败"))
		mock.ExpectRollback()

		require.Error(t, repo.CompleteOptimizationRun(run))

		// 事务回滚后 run 不能带上没有提交成功的版本号，
		// 否则之后无法再按原版本号更新这次运行
		require.Equal(t, int32(3), run.Version)
		require.Equal(t, domain.RunStatusRunning, run.Status)
		require.Nil(t, run.FinishedAt)

		// 按原版本号把这次运行标记为失败必须能够成功
		mock.ExpectQuery("UPDATE optimization_runs").
			WithArgs(domain.RunStatusFailed, "求解过程出错", int64(42), int32(3)).
			WillReturnRows(sqlmock.NewRows([]string{"finished_at", "version"}).AddRow(time.Now(), int32(4)))

		require.NoError(t, repo.FailOptimizationRun(run, "求解过程出错"))
		require.Equal(t, domain.RunStatusFailed, run.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
