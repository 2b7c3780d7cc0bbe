package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/solver"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"
)

func (h *Handler) PreviewRoute(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)

	// 获取参数
	var req struct {
		PopulationSize int32   `json:"populationSize" validate:"required,min=1"`
		MaxGenerations int32   `json:"maxGenerations" validate:"required,min=1"`
		EliteRate      float64 `json:"eliteRate" validate:"min=0,max=1"`
		MutationRate   float64 `json:"mutationRate" validate:"min=0,max=1"`
		Seed           int64   `json:"seed"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params := domain.RunParameters{
		PopulationSize: req.PopulationSize,
		MaxGenerations: req.MaxGenerations,
		EliteRate:      req.EliteRate,
		MutationRate:   req.MutationRate,
		Seed:           req.Seed,
	}

	if err := utils.ValidateRunParametersWithinLimits(&params, h.config.Solver.MaxPopulationSize, h.config.Solver.MaxGenerations); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 没有指定种子时用当前时间生成一个
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}

	// 构建参数并规划路线
	parameters := &solver.Parameters{
		PopulationSize: params.PopulationSize,
		MaxGenerations: params.MaxGenerations,
		EliteRate:      params.EliteRate,
		MutationRate:   params.MutationRate,
		Seed:           params.Seed,
	}

	s, err := solver.New(parameters, ws.Waypoints)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	res, err := s.Solve()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "路线规划成功", res)
}

func (h *Handler) CreateOptimizationRun(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// 获取参数
	var req struct {
		PopulationSize int32   `json:"populationSize" validate:"required,min=1"`
		MaxGenerations int32   `json:"maxGenerations" validate:"required,min=1"`
		EliteRate      float64 `json:"eliteRate" validate:"min=0,max=1"`
		MutationRate   float64 `json:"mutationRate" validate:"min=0,max=1"`
		Seed           int64   `json:"seed"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	params := domain.RunParameters{
		PopulationSize: req.PopulationSize,
		MaxGenerations: req.MaxGenerations,
		EliteRate:      req.EliteRate,
		MutationRate:   req.MutationRate,
		Seed:           req.Seed,
	}

	if err := utils.ValidateRunParametersWithinLimits(&params, h.config.Solver.MaxPopulationSize, h.config.Solver.MaxGenerations); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 没有指定种子时用当前时间生成一个，并随任务一起保存，方便以后复现结果
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}

	// 将任务插入数据库
	run := &domain.OptimizationRun{
		WaypointSetID: ws.ID,
		RequesterID:   myInfo.ID,
		Parameters:    params,
	}

	if err := h.repository.CreateOptimizationRun(run); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 准备任务载荷
	task := domain.RunTask{
		RunID: run.ID,
	}

	taskData, err := json.Marshal(task)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 将任务发送到消息队列
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := h.taskChannel.PublishWithContext(
		ctx,
		"",
		"route_run_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        taskData,
		},
	); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 成功响应
	h.successResponse(w, r, "优化任务创建成功", run)
}

func (h *Handler) GetWaypointSetOptimizationRuns(w http.ResponseWriter, r *http.Request) {
	ws := r.Context().Value(WaypointSetCtx).(*domain.WaypointSet)

	runs, err := h.repository.GetAllOptimizationRunsByWaypointSetID(ws.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取优化任务列表成功", runs)
}

func (h *Handler) GetOptimizationRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(OptimizationRunCtx).(*domain.OptimizationRun)

	h.successResponse(w, r, "获取优化任务成功", run)
}

func (h *Handler) DeleteOptimizationRun(w http.ResponseWriter, r *http.Request) {
	run := r.Context().Value(OptimizationRunCtx).(*domain.OptimizationRun)

	// 运行中的任务删除后 worker 的写回会失败，这里直接禁止删除
	if run.Status == domain.RunStatusRunning {
		h.errorResponse(w, r, "优化任务正在运行中，无法删除")
		return
	}

	if err := h.repository.DeleteOptimizationRun(run.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除优化任务成功", nil)
}
