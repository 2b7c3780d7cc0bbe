package solver

import (
	"math"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

// distance 两个巡检点之间的欧几里得距离
func distance(a, b domain.Waypoint) float64 {
	return math.Sqrt(math.Pow(a.X-b.X, 2) + math.Pow(a.Y-b.Y, 2))
}

// routeFitness 路线的适应度：按访问顺序累加相邻巡检点之间的距离
// （开放路径，不折返回起点），值越小表示路线越短
func routeFitness(route []domain.Waypoint) float64 {
	fitness := 0.0
	for i := 0; i+1 < len(route); i++ {
		fitness += distance(route[i], route[i+1])
	}
	return fitness
}

func calcFitness(ch *chromosome) {
	ch.fitness = routeFitness(ch.route)
}

func totalFitness(pop []*chromosome) float64 {
	sumFit := 0.0
	for _, ch := range pop {
		sumFit += ch.fitness
	}
	return sumFit
}

func cloneRoute(route []domain.Waypoint) []domain.Waypoint {
	cloned := make([]domain.Waypoint, len(route))
	copy(cloned, route)
	return cloned
}

// swapStops 交换路线中 i、j 两个位置上的巡检点，i == j 时不做任何事
func swapStops(route []domain.Waypoint, i, j int) {
	if i == j {
		return
	}
	route[i], route[j] = route[j], route[i]
}
