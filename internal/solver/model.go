package solver

import "github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"

// chromosome: 一条候选巡检路线（巡检点的一个排列）及其适应度
type chromosome struct {
	route   []domain.Waypoint
	fitness float64
}

// 遗传算法参数
type Parameters struct {
	PopulationSize int32   // 种群大小
	MaxGenerations int32   // 最大迭代次数
	EliteRate      float64 // 精英比例
	MutationRate   float64 // 变异概率
	Seed           int64   // 随机数种子，相同的参数和种子可以复现同一结果
}

// Result: 一次求解的最终结果，求解结束后不再被修改
type Result struct {
	BestFitness   float64           `json:"bestFitness"`
	BestRoute     []domain.Waypoint `json:"bestRoute"`
	MeanFitness   float64           `json:"meanFitness"`
	StdDevFitness float64           `json:"stdDevFitness"`
}
