package utils

import (
	"fmt"
	"math"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
)

// ValidateWaypointSetPoints 检查点位集中每个巡检点的坐标是否为有效数值，
// 以及点位名称在集合内是否重复
func ValidateWaypointSetPoints(set *domain.WaypointSet) error {
	seenNames := make(map[string]bool)

	for i, wp := range set.Waypoints {
		if math.IsNaN(wp.X) || math.IsInf(wp.X, 0) {
			return fmt.Errorf("巡检点 %d 的横坐标不是有效的数值", i+1)
		}
		if math.IsNaN(wp.Y) || math.IsInf(wp.Y, 0) {
			return fmt.Errorf("巡检点 %d 的纵坐标不是有效的数值", i+1)
		}
		if seenNames[wp.Name] {
			return fmt.Errorf("巡检点名称 %s 重复出现", wp.Name)
		}
		seenNames[wp.Name] = true
	}

	return nil
}

// ValidateRunParametersWithinLimits 检查运行参数是否超出配置允许的上限
func ValidateRunParametersWithinLimits(params *domain.RunParameters, maxPopulationSize int32, maxGenerations int32) error {
	if params.PopulationSize > maxPopulationSize {
		return fmt.Errorf("种群大小不能超过 %d", maxPopulationSize)
	}
	if params.MaxGenerations > maxGenerations {
		return fmt.Errorf("迭代次数不能超过 %d", maxGenerations)
	}
	return nil
}

// ValidateRouteIsPermutation 检查路线是否恰好访问了点位集中的每个巡检点一次
// （没有重复，也没有遗漏）
func ValidateRouteIsPermutation(route []domain.Waypoint, waypoints []domain.Waypoint) error {
	if len(route) != len(waypoints) {
		return fmt.Errorf("路线中的巡检点数量 %d 和点位集中的数量 %d 不匹配", len(route), len(waypoints))
	}

	seen := make(map[int64]bool, len(route))
	for _, stop := range route {
		if seen[stop.ID] {
			return fmt.Errorf("巡检点 %s 在路线中重复出现", stop.Name)
		}
		seen[stop.ID] = true
	}

	for _, wp := range waypoints {
		if !seen[wp.ID] {
			return fmt.Errorf("巡检点 %s 不在路线中", wp.Name)
		}
	}

	return nil
}
