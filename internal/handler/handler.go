package handler

import (
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client
	// 更新效率表时整体替换
	optimizer atomic.Pointer[scheduler.Optimizer]

	Mux *chi.Mux
}

// NewHandler 创建 Handler，mailCh 和 rdb 可以为 nil，此时不发送邮件、不缓存结果
func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client, optimizer *scheduler.Optimizer) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	h := &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}
	h.optimizer.Store(optimizer)

	return h, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 效率表信息不需要登录
	h.Mux.Get("/catalog", h.GetCatalog)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Get("/my-info", h.GetMyInfo)
		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/users", h.CreateUser)
		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/catalog", h.ReplaceCatalog)

		r.Route("/optimizations", func(r chi.Router) {
			r.Post("/", h.CreateOptimization)
			r.Get("/{key}", h.GetOptimization)
		})
	})
}
