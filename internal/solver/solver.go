package solver

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidConfiguration 表示调用方传入的参数不合法，这类错误不会被重试
var ErrInvalidConfiguration = errors.New("无效配置")

type Solver struct {
	parameters *Parameters
	waypoints  []domain.Waypoint
	rng        *rand.Rand
}

func New(parameters *Parameters, waypoints []domain.Waypoint) (*Solver, error) {
	if parameters.PopulationSize <= 0 {
		return nil, fmt.Errorf("%w: 种群大小必须为正数", ErrInvalidConfiguration)
	}
	if parameters.MaxGenerations < 0 {
		return nil, fmt.Errorf("%w: 迭代次数不能为负数", ErrInvalidConfiguration)
	}
	if parameters.EliteRate < 0 || parameters.EliteRate > 1 {
		return nil, fmt.Errorf("%w: 精英比例必须在 [0, 1] 之间", ErrInvalidConfiguration)
	}
	if parameters.MutationRate < 0 || parameters.MutationRate > 1 {
		return nil, fmt.Errorf("%w: 变异概率必须在 [0, 1] 之间", ErrInvalidConfiguration)
	}
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: 巡检点数量不能少于 2 个", ErrInvalidConfiguration)
	}

	// 交叉算子要求两个父本包含同一组巡检点，因此这里要保证点位不重复
	seen := make(map[int64]bool, len(waypoints))
	for _, wp := range waypoints {
		if seen[wp.ID] {
			return nil, fmt.Errorf("%w: 巡检点 %d 重复出现", ErrInvalidConfiguration, wp.ID)
		}
		seen[wp.ID] = true
	}

	return &Solver{
		parameters: parameters,
		waypoints:  cloneRoute(waypoints),
		rng:        rand.New(rand.NewSource(parameters.Seed)),
	}, nil
}

func (s *Solver) Solve() (*Result, error) {
	// 生成初始种群
	pop := make([]*chromosome, s.parameters.PopulationSize)
	for i := range pop {
		pop[i] = &chromosome{route: s.randomRoute()}
		calcFitness(pop[i])
	}

	// 迭代
	result := &Result{
		BestFitness: math.Inf(1),
		BestRoute:   nil,
	}

	for gen := 0; gen < int(s.parameters.MaxGenerations); gen++ {
		pop = s.evolve(pop)

		// 用轮盘赌选出本代的代表样本，和历史最优比较
		representative := s.selectByRoulette(pop, totalFitness(pop))
		if representative.fitness < result.BestFitness {
			result.BestFitness = representative.fitness
			// 这里需要使用深拷贝，防止后续繁殖的过程中导致路线被修改
			result.BestRoute = cloneRoute(representative.route)
		}
	}

	// 统计最终种群的适应度分布
	fitnesses := make([]float64, len(pop))
	for i, ch := range pop {
		fitnesses[i] = ch.fitness
	}
	result.MeanFitness = stat.Mean(fitnesses, nil)
	if len(fitnesses) > 1 {
		result.StdDevFitness = stat.StdDev(fitnesses, nil)
	}

	// 还需要检查一下结果是否仍然是原巡检点集的一个合法排列
	if result.BestRoute != nil {
		if err := utils.ValidateRouteIsPermutation(result.BestRoute, s.waypoints); err != nil {
			return nil, err
		}
	}

	return result, nil
}
