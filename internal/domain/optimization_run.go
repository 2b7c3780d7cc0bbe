package domain

import "time"

type RunStatus string

const (
	RunStatusPending  RunStatus = "等待中"
	RunStatusRunning  RunStatus = "运行中"
	RunStatusFinished RunStatus = "已完成"
	RunStatusFailed   RunStatus = "失败"
)

// RunParameters: 遗传算法的运行参数，随运行记录一起持久化，保证结果可以复现
type RunParameters struct {
	PopulationSize int32   `json:"populationSize"`
	MaxGenerations int32   `json:"maxGenerations"`
	EliteRate      float64 `json:"eliteRate"`
	MutationRate   float64 `json:"mutationRate"`
	Seed           int64   `json:"seed"`
}

type OptimizationRunStop struct {
	Position   int32 `json:"position"`
	WaypointID int64 `json:"waypointID"`
}

type OptimizationRun struct {
	ID             int64                 `json:"id"`
	WaypointSetID  int64                 `json:"waypointSetID"`
	RequesterID    int64                 `json:"requesterID"`
	Status         RunStatus             `json:"status"`
	Parameters     RunParameters         `json:"parameters"`
	BestDistance   *float64              `json:"bestDistance"`   // 为 nil 表示运行还没有产生结果
	MeanDistance   *float64              `json:"meanDistance"`   // 最终种群的平均路线长度
	StdDevDistance *float64              `json:"stdDevDistance"` // 最终种群路线长度的标准差
	ErrorMessage   *string               `json:"errorMessage"`
	Stops          []OptimizationRunStop `json:"stops"`
	CreatedAt      time.Time             `json:"createdAt"`
	FinishedAt     *time.Time            `json:"finishedAt"`
	Version        int32                 `json:"-"`
}

// RunTask: 发布到 route_run_queue 中的任务载荷
type RunTask struct {
	RunID int64 `json:"runID"`
}
