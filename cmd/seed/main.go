package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/solver"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var waypointSetID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机点位集, 3: 为指定点位集插入随机优化任务, 4: 插入真实点位数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&waypointSetID, "waypoint-set-id", 0, "随机插入优化任务的点位集 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的点位集数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				ws := utils.GenerateRandomWaypointSet()
				if err := repo.CreateWaypointSet(ws); err != nil {
					slog.Error("无法插入点位集", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入点位集成功", slog.Int("count", n-cnt))
		}
	case 3:
		if waypointSetID <= 0 {
			slog.Error("请输入合法的点位集 ID")
			return
		}

		// 获取对应的点位集
		ws, err := repo.GetWaypointSet(waypointSetID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				slog.Error("指定的点位集不存在", slog.Int64("waypoint_set_id", waypointSetID))
			default:
				slog.Error("无法获取点位集", slog.String("error", err.Error()))
			}
			return
		}

		// 任务需要一个发起人，从现有用户中随机挑选
		users, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取用户列表", slog.String("error", err.Error()))
			return
		}
		if len(users) == 0 {
			slog.Error("数据库中没有用户，请先插入用户")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			requester := users[rand.Intn(len(users))]

			run := &domain.OptimizationRun{
				WaypointSetID: ws.ID,
				RequesterID:   requester.ID,
				Parameters:    utils.GenerateRandomRunParameters(),
			}

			if err := repo.CreateOptimizationRun(run); err != nil {
				slog.Error("无法插入优化任务", slog.String("error", err.Error()))
				continue
			}

			// 这里不经过消息队列，直接在本地执行并写回结果
			if err := repo.ClaimOptimizationRun(run); err != nil {
				slog.Error("无法认领优化任务", slog.String("error", err.Error()))
				continue
			}

			s, err := solver.New(&solver.Parameters{
				PopulationSize: run.Parameters.PopulationSize,
				MaxGenerations: run.Parameters.MaxGenerations,
				EliteRate:      run.Parameters.EliteRate,
				MutationRate:   run.Parameters.MutationRate,
				Seed:           run.Parameters.Seed,
			}, ws.Waypoints)
			if err != nil {
				if err := repo.FailOptimizationRun(run, err.Error()); err != nil {
					slog.Error("无法将优化任务标记为失败", slog.String("error", err.Error()))
				}
				continue
			}

			res, err := s.Solve()
			if err != nil {
				if err := repo.FailOptimizationRun(run, err.Error()); err != nil {
					slog.Error("无法将优化任务标记为失败", slog.String("error", err.Error()))
				}
				continue
			}

			run.BestDistance = &res.BestFitness
			run.MeanDistance = &res.MeanFitness
			run.StdDevDistance = &res.StdDevFitness
			run.Stops = make([]domain.OptimizationRunStop, 0, len(res.BestRoute))
			for j, wp := range res.BestRoute {
				run.Stops = append(run.Stops, domain.OptimizationRunStop{
					Position:   int32(j),
					WaypointID: wp.ID,
				})
			}

			if err := repo.CompleteOptimizationRun(run); err != nil {
				slog.Error("无法保存优化结果", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入优化任务成功", slog.Int("count", cnt))
	case 4:
		seed.SeedRealData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
