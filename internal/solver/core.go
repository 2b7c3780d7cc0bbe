package solver

import (
	"math"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

// randomRoute 随机生成一条巡检路线（Fisher-Yates 洗牌，每个排列等概率）
func (s *Solver) randomRoute() []domain.Waypoint {
	route := cloneRoute(s.waypoints)
	for i := len(route) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		swapStops(route, i, j)
	}
	return route
}

// 使用轮盘赌来进行选择，个体被选中的概率正比于其适应度在总适应度中的占比
func (s *Solver) selectByRoulette(pop []*chromosome, sumFit float64) *chromosome {
	pick := s.rng.Float64() * sumFit
	partial := 0.0

	for _, ch := range pop {
		partial += ch.fitness
		if partial >= pick {
			return ch
		}
	}

	// 浮点数舍入可能导致累加和达不到 pick，此时回退到最后一个个体
	return pop[len(pop)-1]
}

// crossover 随机选取交叉区间后执行顺序交叉
func (s *Solver) crossover(parent1, parent2 []domain.Waypoint) []domain.Waypoint {
	length := len(parent1)
	start := s.rng.Intn(length)
	end := start + 1 + s.rng.Intn(length-start)
	return orderedCrossover(parent1, parent2, start, end)
}

// orderedCrossover 顺序交叉 (OX)：把 parent1 在 [start, end) 区间内的巡检点
// 原位复制到后代中，其余位置按 parent2 中的相对顺序从左到右填充，
// 后代仍然是同一组巡检点的一个合法排列。
// 区间允许为空，此时后代完全按照 parent2 的顺序生成
func orderedCrossover(parent1, parent2 []domain.Waypoint, start, end int) []domain.Waypoint {
	length := len(parent1)

	child := make([]domain.Waypoint, length)
	filled := make([]bool, length)
	inChild := make(map[int64]bool, end-start)

	for i := start; i < end; i++ {
		child[i] = parent1[i]
		filled[i] = true
		inChild[parent1[i].ID] = true
	}

	next := 0
	for _, stop := range parent2 {
		if inChild[stop.ID] {
			continue
		}
		for next < length && filled[next] {
			next++
		}
		if next == length {
			break
		}
		child[next] = stop
		filled[next] = true
	}

	return child
}

// swapMutate 交换变异：在路线的副本上随机交换两个不同位置的巡检点，
// 原路线保持不变
func (s *Solver) swapMutate(route []domain.Waypoint) []domain.Waypoint {
	mutated := cloneRoute(route)

	i := s.rng.Intn(len(mutated))
	j := s.rng.Intn(len(mutated))
	for j == i {
		j = s.rng.Intn(len(mutated))
	}

	swapStops(mutated, i, j)
	return mutated
}

// evolve 繁殖出下一代种群，种群大小保持不变
func (s *Solver) evolve(pop []*chromosome) []*chromosome {
	sumFit := totalFitness(pop)
	newPop := make([]*chromosome, 0, s.parameters.PopulationSize)

	// 保留精英
	eliteCount := int(math.Round(float64(s.parameters.PopulationSize) * s.parameters.EliteRate))
	for i := 0; i < eliteCount && len(newPop) < int(s.parameters.PopulationSize); i++ {
		elite := s.selectByRoulette(pop, sumFit)
		ch := &chromosome{route: cloneRoute(elite.route)}
		calcFitness(ch)
		newPop = append(newPop, ch)
	}

	// 在剩余的名额中进行交叉和变异
	for len(newPop) < int(s.parameters.PopulationSize) {
		// 选择两个父本
		parent1 := s.selectByRoulette(pop, sumFit)
		parent2 := s.selectByRoulette(pop, sumFit)

		child := &chromosome{route: s.crossover(parent1.route, parent2.route)}

		if s.rng.Float64() < s.parameters.MutationRate {
			child.route = s.swapMutate(child.route)
		}

		calcFitness(child)
		newPop = append(newPop, child)
	}

	return newPop
}
