package solver

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"
)

func lineWaypoints(n int) []domain.Waypoint {
	waypoints := make([]domain.Waypoint, n)
	for i := range waypoints {
		waypoints[i] = domain.Waypoint{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("巡检点%02d", i+1),
			X:    float64(i * 3),
			Y:    float64(i % 4),
		}
	}
	return waypoints
}

func newTestSolver(t *testing.T, waypoints []domain.Waypoint, seed int64) *Solver {
	t.Helper()

	s, err := New(&Parameters{
		PopulationSize: 10,
		MaxGenerations: 5,
		EliteRate:      0.2,
		MutationRate:   0.1,
		Seed:           seed,
	}, waypoints)
	require.NoError(t, err)

	return s
}

func assertIsPermutation(t *testing.T, route []domain.Waypoint, waypoints []domain.Waypoint) {
	t.Helper()
	require.NoError(t, utils.ValidateRouteIsPermutation(route, waypoints))
}

func TestRandomRoute(t *testing.T) {
	waypoints := lineWaypoints(6)
	s := newTestSolver(t, waypoints, 1)

	routes := make(map[string]bool)
	for i := 0; i < 20; i++ {
		route := s.randomRoute()
		assertIsPermutation(t, route, waypoints)
		routes[fmt.Sprint(route)] = true
	}

	// 多次洗牌应该产生不止一种排列
	require.Greater(t, len(routes), 1)
}

func TestOrderedCrossover(t *testing.T) {
	waypoints := lineWaypoints(5)
	parent1 := waypoints
	parent2 := []domain.Waypoint{waypoints[2], waypoints[0], waypoints[1], waypoints[4], waypoints[3]}

	t.Run("中间区间", func(t *testing.T) {
		// parent1 的 [1, 3) 区间原位保留，其余位置按 parent2 的相对顺序填充
		child := orderedCrossover(parent1, parent2, 1, 3)
		expected := []domain.Waypoint{waypoints[0], waypoints[1], waypoints[2], waypoints[4], waypoints[3]}
		require.Equal(t, expected, child)
	})

	t.Run("完整区间", func(t *testing.T) {
		child := orderedCrossover(parent1, parent2, 0, 5)
		require.Equal(t, parent1, child)
	})

	t.Run("单个位置的区间", func(t *testing.T) {
		child := orderedCrossover(parent1, parent2, 4, 5)
		expected := []domain.Waypoint{waypoints[2], waypoints[0], waypoints[1], waypoints[3], waypoints[4]}
		require.Equal(t, expected, child)
	})

	t.Run("空区间", func(t *testing.T) {
		// 没有任何巡检点来自 parent1，后代就是 parent2 的顺序拷贝
		child := orderedCrossover(parent1, parent2, 2, 2)
		require.Equal(t, parent2, child)
	})
}

func TestOrderedCrossoverAllIntervals(t *testing.T) {
	waypoints := lineWaypoints(7)
	s := newTestSolver(t, waypoints, 3)

	parent1 := s.randomRoute()
	parent2 := s.randomRoute()

	// 任何交叉区间（包括空区间）都必须产生合法的排列
	for start := 0; start <= len(waypoints); start++ {
		for end := start; end <= len(waypoints); end++ {
			child := orderedCrossover(parent1, parent2, start, end)
			assertIsPermutation(t, child, waypoints)
			require.Equal(t, parent1[start:end], child[start:end])

			if start == end {
				require.Equal(t, parent2, child)
			}
		}
	}
}

func TestSelectByRoulette(t *testing.T) {
	t.Run("只有一个个体时总是返回它", func(t *testing.T) {
		s := newTestSolver(t, lineWaypoints(3), 1)
		pop := []*chromosome{{fitness: 12.5}}

		for i := 0; i < 10; i++ {
			require.Same(t, pop[0], s.selectByRoulette(pop, pop[0].fitness))
		}
	})

	t.Run("累加和达不到 pick 时回退到最后一个个体", func(t *testing.T) {
		s := newTestSolver(t, lineWaypoints(3), 1)

		// 所有个体的适应度都为 0 而传入的总和不为 0，模拟浮点误差导致累加和不够的情况
		pop := []*chromosome{{fitness: 0}, {fitness: 0}, {fitness: 0}}
		require.Same(t, pop[2], s.selectByRoulette(pop, 1.0))
	})
}

func TestSwapMutate(t *testing.T) {
	waypoints := lineWaypoints(8)
	s := newTestSolver(t, waypoints, 7)

	for i := 0; i < 50; i++ {
		route := s.randomRoute()
		snapshot := cloneRoute(route)

		mutated := s.swapMutate(route)

		// 原路线保持不变
		require.Equal(t, snapshot, route)

		// 变异结果仍然是合法排列，且恰好有两个位置发生了交换
		assertIsPermutation(t, mutated, waypoints)

		diff := 0
		for k := range route {
			if route[k] != mutated[k] {
				diff++
			}
		}
		require.Equal(t, 2, diff)
	}
}

func TestEvolve(t *testing.T) {
	waypoints := lineWaypoints(6)

	tests := []struct {
		name      string
		eliteRate float64
	}{
		{"没有精英", 0},
		{"部分精英", 0.3},
		{"全部精英", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parameters := &Parameters{
				PopulationSize: 20,
				MaxGenerations: 10,
				EliteRate:      tt.eliteRate,
				MutationRate:   0.3,
				Seed:           99,
			}
			s, err := New(parameters, waypoints)
			require.NoError(t, err)

			pop := make([]*chromosome, parameters.PopulationSize)
			for i := range pop {
				pop[i] = &chromosome{route: s.randomRoute()}
				calcFitness(pop[i])
			}

			// 每一代的每条路线都必须是合法排列，种群大小保持不变
			for gen := 0; gen < 10; gen++ {
				pop = s.evolve(pop)
				require.Len(t, pop, int(parameters.PopulationSize))

				for _, ch := range pop {
					assertIsPermutation(t, ch.route, waypoints)
					require.Equal(t, routeFitness(ch.route), ch.fitness)
				}
			}
		})
	}
}
