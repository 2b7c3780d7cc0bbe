package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

func (r *Repository) CreateOptimizationRun(run *domain.OptimizationRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO optimization_runs (waypoint_set_id, requester_id, population_size, max_generations, elite_rate, mutation_rate, seed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at, version
	`

	args := []any{
		run.WaypointSetID,
		run.RequesterID,
		run.Parameters.PopulationSize,
		run.Parameters.MaxGenerations,
		run.Parameters.EliteRate,
		run.Parameters.MutationRate,
		run.Parameters.Seed,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.Status, &run.CreatedAt, &run.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetOptimizationRunByID(id int64) (*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			run.waypoint_set_id,
			run.requester_id,
			run.status,
			run.population_size,
			run.max_generations,
			run.elite_rate,
			run.mutation_rate,
			run.seed,
			run.best_distance,
			run.mean_distance,
			run.stddev_distance,
			run.error_message,
			run.created_at,
			run.finished_at,
			run.version,
			stop.position,
			stop.waypoint_id
		FROM optimization_runs run
		LEFT JOIN optimization_run_stops stop ON run.id = stop.run_id
		WHERE run.id = $1
		ORDER BY stop.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run := &domain.OptimizationRun{
		ID:    id,
		Stops: make([]domain.OptimizationRunStop, 0),
	}
	found := false

	for rows.Next() {
		var position sql.NullInt32
		var waypointID sql.NullInt64

		dst := []any{
			&run.WaypointSetID,
			&run.RequesterID,
			&run.Status,
			&run.Parameters.PopulationSize,
			&run.Parameters.MaxGenerations,
			&run.Parameters.EliteRate,
			&run.Parameters.MutationRate,
			&run.Parameters.Seed,
			&run.BestDistance,
			&run.MeanDistance,
			&run.StdDevDistance,
			&run.ErrorMessage,
			&run.CreatedAt,
			&run.FinishedAt,
			&run.Version,
			&position,
			&waypointID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		found = true

		// 如果 position 为空，则表示这次运行还没有产生路线，跳过停靠点解析的部分
		if !position.Valid {
			continue
		}

		run.Stops = append(run.Stops, domain.OptimizationRunStop{
			Position:   position.Int32,
			WaypointID: waypointID.Int64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	return run, nil
}

func (r *Repository) GetAllOptimizationRunsByWaypointSetID(waypointSetID int64) ([]*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// 列表里不带停靠点，需要路线详情时再单独查询某次运行
	query := `
		SELECT id, requester_id, status, population_size, max_generations, elite_rate, mutation_rate, seed,
			best_distance, mean_distance, stddev_distance, error_message, created_at, finished_at, version
		FROM optimization_runs
		WHERE waypoint_set_id = $1
		ORDER BY id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, waypointSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.OptimizationRun, 0)
	for rows.Next() {
		run := &domain.OptimizationRun{
			WaypointSetID: waypointSetID,
			Stops:         make([]domain.OptimizationRunStop, 0),
		}

		dst := []any{
			&run.ID,
			&run.RequesterID,
			&run.Status,
			&run.Parameters.PopulationSize,
			&run.Parameters.MaxGenerations,
			&run.Parameters.EliteRate,
			&run.Parameters.MutationRate,
			&run.Parameters.Seed,
			&run.BestDistance,
			&run.MeanDistance,
			&run.StdDevDistance,
			&run.ErrorMessage,
			&run.CreatedAt,
			&run.FinishedAt,
			&run.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// ClaimOptimizationRun 把一次等待中的运行标记为运行中
// 如果这次运行已经被其他消费者认领，则返回 sql.ErrNoRows
func (r *Repository) ClaimOptimizationRun(run *domain.OptimizationRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimization_runs
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`

	args := []any{domain.RunStatusRunning, run.ID, domain.RunStatusPending}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return err
	}

	run.Status = domain.RunStatusRunning
	return nil
}

func (r *Repository) CompleteOptimizationRun(run *domain.OptimizationRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE optimization_runs
		SET
			status = $1,
			best_distance = $2,
			mean_distance = $3,
			stddev_distance = $4,
			finished_at = now(),
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING finished_at, version
	`

	// 提交前先扫描到局部变量，事务回滚后 run 里的版本号必须和数据库保持一致，
	// 否则之后按版本号把这次运行标记为失败时会匹配不到任何记录
	var finishedAt time.Time
	var version int32

	args := []any{domain.RunStatusFinished, run.BestDistance, run.MeanDistance, run.StdDevDistance, run.ID, run.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&finishedAt, &version); err != nil {
		return err
	}

	for _, stop := range run.Stops {
		query = `
			INSERT INTO optimization_run_stops (run_id, position, waypoint_id)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, run.ID, stop.Position, stop.WaypointID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	run.Status = domain.RunStatusFinished
	run.FinishedAt = &finishedAt
	run.Version = version
	return nil
}

func (r *Repository) FailOptimizationRun(run *domain.OptimizationRun, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimization_runs
		SET status = $1, error_message = $2, finished_at = now(), version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING finished_at, version
	`

	args := []any{domain.RunStatusFailed, message, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.FinishedAt, &run.Version); err != nil {
		return err
	}

	run.Status = domain.RunStatusFailed
	run.ErrorMessage = &message
	return nil
}

func (r *Repository) DeleteOptimizationRun(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM optimization_runs WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
