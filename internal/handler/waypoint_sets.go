package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"
)

func (h *Handler) GetAllWaypointSets(w http.ResponseWriter, r *http.Request) {
	wss, err := h.repository.GetAllWaypointSets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有点位集成功", wss)
}

func (h *Handler) CreateWaypointSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Waypoints   []struct {
			Name string  `json:"name" validate:"required"`
			X    float64 `json:"x"`
			Y    float64 `json:"y"`
		} `json:"waypoints" validate:"required,min=2,dive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ws := &domain.WaypointSet{
		Name:        req.Name,
		Description: req.Description,
		Waypoints:   make([]domain.Waypoint, 0, len(req.Waypoints)),
	}

	for _, wp := range req.Waypoints {
		ws.Waypoints = append(ws.Waypoints, domain.Waypoint{
			Name: wp.Name,
			X:    wp.X,
			Y:    wp.Y,
		})
	}

	if err := utils.ValidateWaypointSetPoints(ws); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateWaypointSet(ws); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "waypoint_sets_name_key":
				h.errorResponse(w, r, "点位集名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建点位集成功", ws)
}

func (h *Handler) GetWaypointSet(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)

	h.successResponse(w, r, "获取点位集成功", ws)
}

func (h *Handler) UpdateWaypointSet(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)

	// 点位一旦创建就不允许修改，否则历史优化结果会失去参照，这里只允许更新元信息
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		ws.Name = *req.Name
	}
	if req.Description != nil {
		ws.Description = *req.Description
	}

	if err := h.repository.UpdateWaypointSet(ws); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "waypoint_sets_name_key":
				h.errorResponse(w, r, "点位集名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新点位集成功", ws)
}

func (h *Handler) DeleteWaypointSet(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)

	if err := h.repository.DeleteWaypointSet(ws.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "optimization_runs_waypoint_set_id_fkey":
				h.errorResponse(w, r, "该点位集已有优化任务记录，无法删除")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除点位集成功", nil)
}
