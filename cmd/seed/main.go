package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 导入效率表, 3: 生成随机干员数据)")
	flag.IntVar(&n, "n", 0, "要插入的记录数量，0 表示使用配置中的数量")
	flag.StringVar(&file, "file", "", "要导入的效率表文件，为空时使用配置中的文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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
			n = cfg.Seed.User.Count
		}

		cnt := 0
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

			cnt++
		}

		total, err := repo.CountUsers()
		if err != nil {
			slog.Error("无法统计用户数量", slog.String("error", err.Error()))
			return
		}
		slog.Info("插入用户成功", slog.Int("count", cnt), slog.Int64("total", total))
	case 2:
		if file == "" {
			file = cfg.Optimizer.EfficiencyFile
		}
		if _, err := seed.SeedEfficiency(repo, file); err != nil {
			slog.Error("无法导入效率表", slog.String("error", err.Error()))
		}
	case 3:
		if n <= 0 {
			n = cfg.Seed.RosterCount
		}

		entries, err := repo.GetAllEfficiencyEntries()
		if err != nil {
			slog.Error("无法读取效率表", slog.String("error", err.Error()))
			return
		}
		if len(entries) == 0 {
			slog.Error("数据库中没有效率表，请先导入效率表")
			return
		}

		cat, err := catalog.FromEntries(entries)
		if err != nil {
			slog.Error("效率表格式错误", slog.String("error", err.Error()))
			return
		}

		if _, err := seed.WriteRandomRosters(cat, cfg.Seed.RosterDir, n, cfg.Seed.OwnRate); err != nil {
			slog.Error("无法生成随机干员数据", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
