package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

func testWaypoints() []domain.Waypoint {
	return []domain.Waypoint{
		{ID: 1, Name: "图书馆", X: 0, Y: 0},
		{ID: 2, Name: "教学楼", X: 3, Y: 4},
		{ID: 3, Name: "实验楼", X: 6, Y: 1},
	}
}

func TestValidateWaypointSetPoints(t *testing.T) {
	t.Run("合法点位集", func(t *testing.T) {
		ws := &domain.WaypointSet{Waypoints: testWaypoints()}
		require.NoError(t, ValidateWaypointSetPoints(ws))
	})

	t.Run("横坐标为 NaN", func(t *testing.T) {
		waypoints := testWaypoints()
		waypoints[1].X = math.NaN()

		ws := &domain.WaypointSet{Waypoints: waypoints}
		require.Error(t, ValidateWaypointSetPoints(ws))
	})

	t.Run("纵坐标为无穷大", func(t *testing.T) {
		waypoints := testWaypoints()
		waypoints[2].Y = math.Inf(-1)

		ws := &domain.WaypointSet{Waypoints: waypoints}
		require.Error(t, ValidateWaypointSetPoints(ws))
	})

	t.Run("点位名称重复", func(t *testing.T) {
		waypoints := testWaypoints()
		waypoints[2].Name = waypoints[0].Name

		ws := &domain.WaypointSet{Waypoints: waypoints}
		require.ErrorContains(t, ValidateWaypointSetPoints(ws), "重复")
	})
}

func TestValidateRunParametersWithinLimits(t *testing.T) {
	params := func() *domain.RunParameters {
		return &domain.RunParameters{
			PopulationSize: 100,
			MaxGenerations: 500,
			EliteRate:      0.2,
			MutationRate:   0.1,
		}
	}

	t.Run("参数在上限内", func(t *testing.T) {
		require.NoError(t, ValidateRunParametersWithinLimits(params(), 500, 5000))
	})

	t.Run("种群大小超出上限", func(t *testing.T) {
		p := params()
		p.PopulationSize = 501
		require.ErrorContains(t, ValidateRunParametersWithinLimits(p, 500, 5000), "种群大小")
	})

	t.Run("迭代次数超出上限", func(t *testing.T) {
		p := params()
		p.MaxGenerations = 5001
		require.ErrorContains(t, ValidateRunParametersWithinLimits(p, 500, 5000), "迭代次数")
	})
}

func TestValidateRouteIsPermutation(t *testing.T) {
	waypoints := testWaypoints()

	t.Run("合法排列", func(t *testing.T) {
		route := []domain.Waypoint{waypoints[2], waypoints[0], waypoints[1]}
		require.NoError(t, ValidateRouteIsPermutation(route, waypoints))
	})

	t.Run("数量不匹配", func(t *testing.T) {
		route := []domain.Waypoint{waypoints[0], waypoints[1]}
		require.ErrorContains(t, ValidateRouteIsPermutation(route, waypoints), "不匹配")
	})

	t.Run("巡检点重复", func(t *testing.T) {
		route := []domain.Waypoint{waypoints[0], waypoints[1], waypoints[1]}
		require.ErrorContains(t, ValidateRouteIsPermutation(route, waypoints), "重复")
	})

	t.Run("巡检点遗漏", func(t *testing.T) {
		extra := domain.Waypoint{ID: 99, Name: "行政楼", X: 1, Y: 1}
		route := []domain.Waypoint{waypoints[0], waypoints[1], extra}
		require.ErrorContains(t, ValidateRouteIsPermutation(route, waypoints), "不在路线中")
	})
}
