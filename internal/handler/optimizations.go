package handler

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/report"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

// OptimizationResponse 是一次排班计算返回给客户端的内容，也是缓存的内容
type OptimizationResponse struct {
	Key            string    `json:"key"`
	RunID          string    `json:"runID"`
	CatalogVersion string    `json:"catalogVersion"`
	GeneratedAt    time.Time `json:"generatedAt"`
	Summary        string    `json:"summary"`
	Lines          []string  `json:"lines"`

	*scheduler.Outcome
}

// OptimizationKey 由效率表版本、干员和配置计算缓存键，干员顺序不影响结果
func OptimizationKey(catalogVersion string, workers []domain.Worker, cfg *domain.Configuration) (string, error) {
	sorted := slices.Clone(workers)
	slices.SortFunc(sorted, func(a, b domain.Worker) int {
		return cmp.Compare(a.ID, b.ID)
	})

	workersData, err := json.Marshal(sorted)
	if err != nil {
		return "", err
	}
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	hash := sha256.New()
	hash.Write([]byte(catalogVersion))
	hash.Write([]byte{0})
	hash.Write(workersData)
	hash.Write([]byte{0})
	hash.Write(cfgData)
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func optimizationCacheKey(key string) string {
	return fmt.Sprintf("optimization_%s", key)
}

func (h *Handler) CreateOptimization(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Operators   json.RawMessage `json:"operators" validate:"required"`
		Config      json.RawMessage `json:"config" validate:"required"`
		NotifyEmail bool            `json:"notifyEmail"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	workers, err := roster.Load(req.Operators)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	cfg, err := utils.ParseConfiguration(req.Config)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 本次请求固定使用同一份效率表
	optimizer := h.optimizer.Load()

	key, err := OptimizationKey(optimizer.Catalog().Version(), workers, cfg)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	resp, err := h.cachedOptimization(r.Context(), key)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if resp == nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Optimizer.Timeout)*time.Second)
		defer cancel()

		outcome, err := optimizer.Run(ctx, workers, cfg)
		if err != nil {
			h.optimizationError(w, r, err)
			return
		}

		resp = &OptimizationResponse{
			Key:            key,
			RunID:          uuid.NewString(),
			CatalogVersion: optimizer.Catalog().Version(),
			GeneratedAt:    time.Now(),
			Summary:        report.Summary(outcome.Current, outcome.Potential),
			Lines:          report.Lines(outcome.Upgrades),
			Outcome:        outcome,
		}

		if err := h.cacheOptimization(r.Context(), resp); err != nil {
			// 缓存失败不影响本次结果
			slog.Warn("缓存排班结果失败", "key", key, "error", err)
		}
	}

	if req.NotifyEmail {
		mailMessage := domain.MailMessage{
			Type: domain.MailTypeUpgradeReport,
			To:   myInfo.Email,
			Data: report.MailData(resp.RunID, resp.GeneratedAt, resp.Current, resp.Potential, resp.Upgrades),
		}
		if err := h.publishMail(mailMessage); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "排班计算成功", resp)
}

func (h *Handler) GetOptimization(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	resp, err := h.cachedOptimization(r.Context(), key)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if resp == nil {
		h.errorResponse(w, r, "计算结果不存在或已过期")
		return
	}

	h.successResponse(w, r, "获取计算结果成功", resp)
}

// optimizationError 把求解错误转换为响应，输入和配置错误原样返回给用户
func (h *Handler) optimizationError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		formatErr     *domain.InputFormatError
		infeasibleErr *domain.InfeasibleAssignmentError
	)

	switch {
	case errors.As(err, &formatErr), errors.As(err, &infeasibleErr):
		h.errorResponse(w, r, err.Error())
	case errors.Is(err, domain.ErrSearchBudgetExceeded):
		h.errorResponse(w, r, "搜索预算耗尽且没有找到可行的排班，请减少候选数量后重试")
	case errors.Is(err, context.DeadlineExceeded):
		h.errorResponse(w, r, "排班计算超时")
	default:
		h.internalServerError(w, r, err)
	}
}

// cachedOptimization 没有命中缓存时返回 nil
func (h *Handler) cachedOptimization(ctx context.Context, key string) (*OptimizationResponse, error) {
	if h.redisClient == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, optimizationCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	resp := &OptimizationResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (h *Handler) cacheOptimization(ctx context.Context, resp *OptimizationResponse) error {
	if h.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	return h.redisClient.Set(ctx, optimizationCacheKey(resp.Key), data, time.Duration(h.config.Redis.CacheExpiration)*time.Second).Err()
}
