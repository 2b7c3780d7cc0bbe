package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	taskChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, taskCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		taskChannel: taskCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有成员应该都有权限获取其他人的个人信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/waypoint-sets", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdmin})).Post("/", h.CreateWaypointSet)
			r.Get("/", h.GetAllWaypointSets) // 巡检员也需要查看点位集，读接口对所有角色开放
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.waypointSet)
				r.Get("/", h.GetWaypointSet)
				r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdmin})).Patch("/", h.UpdateWaypointSet)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteWaypointSet)
				r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdmin})).Post("/preview-route", h.PreviewRoute)
				r.Route("/optimization-runs", func(r chi.Router) {
					r.Get("/", h.GetWaypointSetOptimizationRuns)
					r.With(h.RequiredRole([]domain.Role{domain.RolePlanner, domain.RoleAdmin})).With(h.myInfo).With(h.preventInactiveUser).Post("/", h.CreateOptimizationRun)
				})
			})
		})

		r.Route("/optimization-runs/{id}", func(r chi.Router) {
			r.Use(h.optimizationRun)
			r.Get("/", h.GetOptimizationRun)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteOptimizationRun)
		})
	})
}
