package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

// 五个构成凸多边形的巡检点
func convexWaypoints() []domain.Waypoint {
	return []domain.Waypoint{
		{ID: 1, Name: "图书馆", X: 0, Y: 0},
		{ID: 2, Name: "教学楼", X: 4, Y: 0},
		{ID: 3, Name: "实验楼", X: 5, Y: 3},
		{ID: 4, Name: "行政楼", X: 2, Y: 5},
		{ID: 5, Name: "体育馆", X: -1, Y: 3},
	}
}

func TestNew(t *testing.T) {
	waypoints := convexWaypoints()

	valid := func() *Parameters {
		return &Parameters{
			PopulationSize: 50,
			MaxGenerations: 30,
			EliteRate:      0.2,
			MutationRate:   0.1,
			Seed:           8403,
		}
	}

	t.Run("合法参数", func(t *testing.T) {
		s, err := New(valid(), waypoints)
		require.NoError(t, err)
		require.NotNil(t, s)
	})

	tests := []struct {
		name      string
		modify    func(p *Parameters)
		waypoints []domain.Waypoint
	}{
		{"种群大小为零", func(p *Parameters) { p.PopulationSize = 0 }, waypoints},
		{"种群大小为负数", func(p *Parameters) { p.PopulationSize = -5 }, waypoints},
		{"迭代次数为负数", func(p *Parameters) { p.MaxGenerations = -1 }, waypoints},
		{"精英比例为负数", func(p *Parameters) { p.EliteRate = -0.2 }, waypoints},
		{"精英比例大于一", func(p *Parameters) { p.EliteRate = 1.5 }, waypoints},
		{"变异概率为负数", func(p *Parameters) { p.MutationRate = -0.1 }, waypoints},
		{"变异概率大于一", func(p *Parameters) { p.MutationRate = 2 }, waypoints},
		{"巡检点数量不足", func(p *Parameters) {}, waypoints[:1]},
		{"巡检点重复", func(p *Parameters) {}, []domain.Waypoint{waypoints[0], waypoints[1], waypoints[0]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parameters := valid()
			tt.modify(parameters)

			_, err := New(parameters, tt.waypoints)
			require.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestSolveReturnsValidRoute(t *testing.T) {
	waypoints := convexWaypoints()
	s, err := New(&Parameters{
		PopulationSize: 50,
		MaxGenerations: 30,
		EliteRate:      0.2,
		MutationRate:   0.1,
		Seed:           42,
	}, waypoints)
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)

	assertIsPermutation(t, result.BestRoute, waypoints)
	require.Equal(t, routeFitness(result.BestRoute), result.BestFitness)
	require.GreaterOrEqual(t, result.BestFitness, 0.0)

	require.Greater(t, result.MeanFitness, 0.0)
	require.GreaterOrEqual(t, result.StdDevFitness, 0.0)
	require.False(t, math.IsNaN(result.StdDevFitness))
}

func TestSolveDeterministicWithSeed(t *testing.T) {
	parameters := &Parameters{
		PopulationSize: 50,
		MaxGenerations: 30,
		EliteRate:      0.2,
		MutationRate:   0.1,
		Seed:           8403,
	}

	run := func() *Result {
		s, err := New(parameters, convexWaypoints())
		require.NoError(t, err)

		result, err := s.Solve()
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	// 相同的参数和种子必须复现出完全一致的结果
	require.Equal(t, first.BestFitness, second.BestFitness)
	require.Equal(t, first.BestRoute, second.BestRoute)
	require.Equal(t, first.MeanFitness, second.MeanFitness)
	require.Equal(t, first.StdDevFitness, second.StdDevFitness)
}

func TestSolveZeroGenerations(t *testing.T) {
	s, err := New(&Parameters{
		PopulationSize: 10,
		MaxGenerations: 0,
		EliteRate:      0.2,
		MutationRate:   0.1,
		Seed:           1,
	}, convexWaypoints())
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)

	// 没有迭代时不产生任何解
	require.True(t, math.IsInf(result.BestFitness, 1))
	require.Nil(t, result.BestRoute)
}
