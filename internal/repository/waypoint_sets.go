package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

func (r *Repository) GetAllWaypointSets() ([]*domain.WaypointSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ws.id,
			ws.name,
			ws.description,
			ws.created_at,
			ws.version,
			w.id,
			w.name,
			w.x,
			w.y
		FROM waypoint_sets ws
		LEFT JOIN waypoints w ON ws.id = w.waypoint_set_id
		ORDER BY ws.id, w.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// 按查询顺序组装，行已经按点位集和点位位置排好序
	sets := make([]*domain.WaypointSet, 0)
	setsMap := make(map[int64]*domain.WaypointSet)

	for rows.Next() {
		var row struct {
			ID          int64
			Name        string
			Description string
			CreatedAt   time.Time
			Version     int32

			WaypointID   sql.NullInt64
			WaypointName sql.NullString
			X            sql.NullFloat64
			Y            sql.NullFloat64
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.CreatedAt,
			&row.Version,
			&row.WaypointID,
			&row.WaypointName,
			&row.X,
			&row.Y,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		set, exists := setsMap[row.ID]
		if !exists {
			// 说明此时是第一次查到这个点位集，需要初始化这个点位集
			set = &domain.WaypointSet{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				Waypoints:   make([]domain.Waypoint, 0),
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			setsMap[row.ID] = set
			sets = append(sets, set)
		}

		// 如果 waypointID 为空，则表示这个点位集不包含任何巡检点，跳过点位解析的部分
		if !row.WaypointID.Valid {
			continue
		}

		set.Waypoints = append(set.Waypoints, domain.Waypoint{
			ID:   row.WaypointID.Int64,
			Name: row.WaypointName.String,
			X:    row.X.Float64,
			Y:    row.Y.Float64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sets, nil
}

func (r *Repository) CreateWaypointSet(ws *domain.WaypointSet) error {
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
		INSERT INTO waypoint_sets (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, ws.Name, ws.Description).Scan(&ws.ID, &ws.CreatedAt, &ws.Version); err != nil {
		return err
	}

	for i := range ws.Waypoints {
		query = `
			INSERT INTO waypoints (waypoint_set_id, position, name, x, y)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		params := []any{ws.ID, i, ws.Waypoints[i].Name, ws.Waypoints[i].X, ws.Waypoints[i].Y}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&ws.Waypoints[i].ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetWaypointSet(id int64) (*domain.WaypointSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ws.name,
			ws.description,
			ws.created_at,
			ws.version,
			w.id,
			w.name,
			w.x,
			w.y
		FROM waypoint_sets ws
		LEFT JOIN waypoints w ON ws.id = w.waypoint_set_id
		WHERE ws.id = $1
		ORDER BY w.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ws := &domain.WaypointSet{
		ID:        id,
		Waypoints: make([]domain.Waypoint, 0),
	}
	found := false

	for rows.Next() {
		var row struct {
			Name        string
			Description string
			CreatedAt   time.Time
			Version     int32

			WaypointID   sql.NullInt64
			WaypointName sql.NullString
			X            sql.NullFloat64
			Y            sql.NullFloat64
		}

		dst := []any{
			&row.Name,
			&row.Description,
			&row.CreatedAt,
			&row.Version,
			&row.WaypointID,
			&row.WaypointName,
			&row.X,
			&row.Y,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			// 说明此时是第一次查到这个点位集，需要初始化这个点位集
			ws.Name = row.Name
			ws.Description = row.Description
			ws.CreatedAt = row.CreatedAt
			ws.Version = row.Version
			found = true
		}

		if !row.WaypointID.Valid {
			// 说明该点位集不包含任何巡检点
			continue
		}

		ws.Waypoints = append(ws.Waypoints, domain.Waypoint{
			ID:   row.WaypointID.Int64,
			Name: row.WaypointName.String,
			X:    row.X.Float64,
			Y:    row.Y.Float64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	return ws, nil
}

func (r *Repository) UpdateWaypointSet(ws *domain.WaypointSet) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE waypoint_sets
		SET
			name = $1,
			description = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	params := []any{ws.Name, ws.Description, ws.ID, ws.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&ws.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteWaypointSet(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM waypoint_sets WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
