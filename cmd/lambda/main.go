//go:build lambda

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/data"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/serverless"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 使用内置效率表，冷启动时解析一次
	cat, err := catalog.Load(data.Efficiency)
	if err != nil {
		logger.Error("无法加载内置效率表", "error", err)
		os.Exit(1)
	}

	optimizer := scheduler.NewOptimizer(cat, scheduler.DefaultParameters(), logger)
	h := serverless.NewHandler(optimizer, 25*time.Second, logger)

	lambda.Start(h.Handle)
}
