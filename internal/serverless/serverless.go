// Package serverless 把排班计算包装成 Lambda Function URL 的处理函数
package serverless

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/report"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type optimizeRequest struct {
	Operators json.RawMessage `json:"operators"`
	Config    json.RawMessage `json:"config"`
}

type optimizeResponse struct {
	CatalogVersion string `json:"catalogVersion"`
	TimeMs         int64  `json:"timeMs"`
	Summary        string `json:"summary"`
	// upgrade_suggestions.txt 的内容
	Report string `json:"report"`

	*scheduler.Outcome
}

type Handler struct {
	optimizer *scheduler.Optimizer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewHandler(optimizer *scheduler.Optimizer, timeout time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		optimizer: optimizer,
		timeout:   timeout,
		logger:    logger,
	}
}

func (h *Handler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "请求体不是合法的 base64")
		}
		body = string(decoded)
	}

	var req optimizeRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(http.StatusBadRequest, "请求体不是合法的 JSON: "+err.Error())
	}
	if len(req.Operators) == 0 {
		return errResp(http.StatusBadRequest, "缺少 operators 字段")
	}

	workers, err := roster.Load(req.Operators)
	if err != nil {
		return errResp(http.StatusBadRequest, err.Error())
	}

	// 没有提供配置时使用默认配置
	cfg := domain.DefaultConfiguration()
	if len(req.Config) > 0 {
		cfg, err = utils.ParseConfiguration(req.Config)
		if err != nil {
			return errResp(http.StatusBadRequest, err.Error())
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := h.optimizer.Run(ctx, workers, cfg)
	if err != nil {
		var (
			formatErr     *domain.InputFormatError
			infeasibleErr *domain.InfeasibleAssignmentError
		)
		switch {
		case errors.As(err, &formatErr):
			return errResp(http.StatusBadRequest, err.Error())
		case errors.As(err, &infeasibleErr):
			return errResp(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrSearchBudgetExceeded), errors.Is(err, context.DeadlineExceeded):
			return errResp(http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("排班计算失败", "error", err)
			return errResp(http.StatusInternalServerError, "服务器内部错误")
		}
	}

	resp := optimizeResponse{
		CatalogVersion: h.optimizer.Catalog().Version(),
		TimeMs:         time.Since(start).Milliseconds(),
		Summary:        report.Summary(outcome.Current, outcome.Potential),
		Report:         report.UpgradeText(outcome.Upgrades, start),
		Outcome:        outcome,
	}
	respJSON, err := json.Marshal(resp)
	if err != nil {
		return errResp(http.StatusInternalServerError, "服务器内部错误")
	}
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
