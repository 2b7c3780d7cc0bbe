package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

func TestDistance(t *testing.T) {
	a := domain.Waypoint{ID: 1, Name: "图书馆", X: 0, Y: 0}
	b := domain.Waypoint{ID: 2, Name: "教学楼", X: 3, Y: 4}

	require.Equal(t, 5.0, distance(a, b))
	require.Equal(t, distance(a, b), distance(b, a))
	require.Equal(t, 0.0, distance(a, a))
}

func TestRouteFitness(t *testing.T) {
	a := domain.Waypoint{ID: 1, Name: "图书馆", X: 0, Y: 0}
	b := domain.Waypoint{ID: 2, Name: "教学楼", X: 3, Y: 0}
	c := domain.Waypoint{ID: 3, Name: "实验楼", X: 3, Y: 4}

	// 开放路径：只累加相邻巡检点之间的距离，没有回到起点的一段
	require.Equal(t, 7.0, routeFitness([]domain.Waypoint{a, b, c}))

	require.Equal(t, 0.0, routeFitness(nil))
	require.Equal(t, 0.0, routeFitness([]domain.Waypoint{a}))
}

func TestTotalFitness(t *testing.T) {
	pop := []*chromosome{
		{fitness: 1.5},
		{fitness: 2.5},
		{fitness: 4},
	}

	require.Equal(t, 8.0, totalFitness(pop))
	require.Equal(t, 0.0, totalFitness(nil))
}

func TestCloneRoute(t *testing.T) {
	route := []domain.Waypoint{
		{ID: 1, Name: "图书馆", X: 0, Y: 0},
		{ID: 2, Name: "教学楼", X: 3, Y: 4},
	}

	cloned := cloneRoute(route)
	require.Equal(t, route, cloned)

	// 修改副本不影响原路线
	cloned[0], cloned[1] = cloned[1], cloned[0]
	require.Equal(t, int64(1), route[0].ID)
	require.Equal(t, int64(2), cloned[0].ID)
}

func TestSwapStops(t *testing.T) {
	route := []domain.Waypoint{
		{ID: 1, Name: "图书馆"},
		{ID: 2, Name: "教学楼"},
		{ID: 3, Name: "实验楼"},
	}

	swapStops(route, 0, 2)
	require.Equal(t, int64(3), route[0].ID)
	require.Equal(t, int64(1), route[2].ID)

	// i == j 时不做任何事
	snapshot := cloneRoute(route)
	swapStops(route, 1, 1)
	require.Equal(t, snapshot, route)
}
