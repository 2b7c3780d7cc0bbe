package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/solver"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancelPing()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancelDial := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancelDial()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	taskQueue, err := ch.QueueDeclare(
		"route_run_queue", // 队列名称
		true,              // 是否持久化
		false,             // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,             // 是否独占，即是否允许多个消费者访问这个队列
		false,             // 是否不等待，设置为 false，即等待 RabbitMQ 确认队列是否创建成功
		nil,               // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	emailQueue, err := ch.QueueDeclare(
		"email_queue",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	taskMsgs, err := ch.Consume(
		taskQueue.Name, // 队列
		"",             // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,          // 是否自动确认消息
		false,          // 是否独占队列
		false,          // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,          // 是否不等待，等待 RabbitMQ 响应
		nil,            // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	emailMsgs, err := ch.Consume(
		emailQueue.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-taskMsgs:
				if !ok {
					// 通道关闭时说明连接已经断开，直接退出
					return
				}
				processRunTask(cfg, repo, ch, msg)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-emailMsgs:
				if !ok {
					return
				}
				processMailMessage(cfg, client, msg)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("worker 已成功关闭")
}

// processRunTask 认领一个优化任务，执行遗传算法并将结果写回数据库，
// 最后给任务发起人发送通知邮件
func processRunTask(cfg *config.Config, repo *repository.Repository, ch *amqp.Channel, msg amqp.Delivery) {
	slog.Info("收到优化任务", slog.String("message", string(msg.Body)))

	// 对任务载荷反序列化
	task := domain.RunTask{}
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		slog.Error("任务载荷反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	// 获取任务详情
	run, err := repo.GetOptimizationRunByID(task.RunID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 任务在执行之前就被删除了，直接丢弃消息
			slog.Error("优化任务不存在", slog.Int64("runID", task.RunID))
			_ = msg.Nack(false, false)
		default:
			slog.Error("无法获取优化任务", slog.String("error", err.Error()))
			_ = msg.Nack(false, true) // 可能是数据库临时故障，将消息重新入队
		}
		return
	}

	// 认领任务，防止多个 worker 同时执行同一个任务
	if err := repo.ClaimOptimizationRun(run); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			slog.Info("优化任务已被其他 worker 认领，跳过", slog.Int64("runID", run.ID))
			_ = msg.Ack(false)
		default:
			slog.Error("无法认领优化任务", slog.String("error", err.Error()))
			_ = msg.Nack(false, true)
		}
		return
	}

	// 认领成功后这条消息的使命就结束了，无论任务成功还是失败都不应该重新入队，
	// 否则重新投递的消息会因为认领失败而被直接丢弃，任务却一直停留在运行中
	ws, err := repo.GetWaypointSet(run.WaypointSetID)
	if err != nil {
		failRun(repo, run, "无法获取点位集: "+err.Error())
		_ = msg.Ack(false)
		return
	}

	// 执行遗传算法
	start := time.Now()

	s, err := solver.New(&solver.Parameters{
		PopulationSize: run.Parameters.PopulationSize,
		MaxGenerations: run.Parameters.MaxGenerations,
		EliteRate:      run.Parameters.EliteRate,
		MutationRate:   run.Parameters.MutationRate,
		Seed:           run.Parameters.Seed,
	}, ws.Waypoints)
	if err != nil {
		failRun(repo, run, err.Error())
		_ = msg.Ack(false)
		return
	}

	res, err := s.Solve()
	if err != nil {
		failRun(repo, run, err.Error())
		_ = msg.Ack(false)
		return
	}

	// 将结果写回数据库
	run.BestDistance = &res.BestFitness
	run.MeanDistance = &res.MeanFitness
	run.StdDevDistance = &res.StdDevFitness
	run.Stops = make([]domain.OptimizationRunStop, 0, len(res.BestRoute))
	for i, wp := range res.BestRoute {
		run.Stops = append(run.Stops, domain.OptimizationRunStop{
			Position:   int32(i),
			WaypointID: wp.ID,
		})
	}

	if err := repo.CompleteOptimizationRun(run); err != nil {
		slog.Error("无法保存优化结果", slog.String("error", err.Error()))
		failRun(repo, run, "保存优化结果失败: "+err.Error())
		_ = msg.Ack(false)
		return
	}

	slog.Info("优化任务完成",
		slog.Int64("runID", run.ID),
		slog.Float64("bestDistance", res.BestFitness),
		slog.Duration("duration", time.Since(start)),
	)

	// 通知任务发起人，邮件发送失败不影响任务本身的结果
	requester, err := repo.GetUserByID(run.RequesterID)
	if err != nil {
		slog.Error("无法获取任务发起人", slog.String("error", err.Error()))
		_ = msg.Ack(false)
		return
	}

	mailMessage := domain.MailMessage{
		Type: "run_finished",
		To:   requester.Email,
		Data: domain.RunFinishedMailData{
			FullName:        requester.FullName,
			RunID:           run.ID,
			WaypointSetName: ws.Name,
			BestDistance:    res.BestFitness,
		},
	}

	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		slog.Error("邮件信息序列化失败", slog.String("error", err.Error()))
		_ = msg.Ack(false)
		return
	}

	pubCtx, cancelPub := context.WithTimeout(context.Background(), time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancelPub()

	if err := ch.PublishWithContext(
		pubCtx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		slog.Error("无法发送通知邮件", slog.String("error", err.Error()))
	}

	// 确认消息
	_ = msg.Ack(false)
}

// failRun 将任务标记为失败，如果标记本身也失败了就只能记录日志
func failRun(repo *repository.Repository, run *domain.OptimizationRun, message string) {
	if err := repo.FailOptimizationRun(run, message); err != nil {
		slog.Error("无法将优化任务标记为失败", slog.Int64("runID", run.ID), slog.String("error", err.Error()))
	}
}

// processMailMessage 根据邮件类型渲染对应的模板并通过 SMTP 发送
func processMailMessage(cfg *config.Config, client *mail.Client, msg amqp.Delivery) {
	slog.Info("收到邮件消息", slog.String("message", string(msg.Body)))

	// 对邮件信息反序列化
	mailMessage := domain.MailMessage{}
	if err := json.Unmarshal(msg.Body, &mailMessage); err != nil {
		slog.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	// 构建邮件
	mail := mail.NewMsg()
	if err := mail.From(cfg.Email.SMTP.Username); err != nil {
		slog.Error("无法设置邮件发件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}
	if err := mail.To(mailMessage.To); err != nil {
		slog.Error("无法设置邮件收件人", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	// 根据邮件类型解析数据
	switch mailMessage.Type {
	case "create_user":
		tmpl, err := template.ParseFiles("./templates/new_account_email.html")
		if err != nil {
			slog.Error("无法解析邮件模板", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		if err := mail.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
			slog.Error("无法设置邮件正文", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		mail.Subject("ECNC 巡检路线规划系统 - 账户信息")
	case "reset_password":
		tmpl, err := template.ParseFiles("./templates/reset_password_otp_email.html")
		if err != nil {
			slog.Error("无法解析邮件模板", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		if err := mail.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
			slog.Error("无法设置邮件正文", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		mail.Subject("ECNC 巡检路线规划系统 - 重置密码")
	case "change_email":
		tmpl, err := template.ParseFiles("./templates/change_email_email.html")
		if err != nil {
			slog.Error("无法解析邮件模板", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		if err := mail.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
			slog.Error("无法设置邮件正文", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		mail.Subject("ECNC 巡检路线规划系统 - 修改邮箱")
	case "run_finished":
		tmpl, err := template.ParseFiles("./templates/run_finished_email.html")
		if err != nil {
			slog.Error("无法解析邮件模板", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		if err := mail.SetBodyHTMLTemplate(tmpl, mailMessage.Data); err != nil {
			slog.Error("无法设置邮件正文", slog.String("error", err.Error()))
			_ = msg.Nack(false, false)
			return
		}
		mail.Subject("ECNC 巡检路线规划系统 - 优化任务完成")
	default:
		slog.Error("不支持的邮件类型", slog.String("type", mailMessage.Type))
		_ = msg.Nack(false, false)
		return
	}

	// 发送邮件
	if err := client.DialAndSend(mail); err != nil {
		slog.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = msg.Nack(false, true) // 将消息重新入队
		return
	}

	// 确认消息
	_ = msg.Ack(false)
}
