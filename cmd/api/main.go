package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/handler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"golang.org/x/crypto/bcrypt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// 与 cmd/mail 共用的队列名称
const reportQueue = "report_queue"

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	if err := ensureInitialAdmin(repo, cfg); err != nil {
		logger.Error("无法创建初始管理员", "error", err)
		return
	}

	/**********************************************
	 * 加载效率表
	 **********************************************/
	cat, err := loadCatalog(repo, cfg)
	if err != nil {
		logger.Error("无法加载效率表", "error", err)
		return
	}
	logger.Info("效率表已加载", "version", cat.Version(), "size", cat.Size())

	optimizer := scheduler.NewOptimizer(cat, scheduler.ParametersFromConfig(cfg), logger)

	/**********************************************
	 * 连接 rabbitmq，邮件通过 report_queue 交给 mail worker
	 **********************************************/
	conn, ch, err := openReportQueue(cfg)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()
	defer ch.Close()

	/**********************************************
	 * 连接 redis，用于缓存排班结果
	 **********************************************/
	rdb, err := openResultCache(cfg)
	if err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}
	defer rdb.Close()

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, repo, ch, rdb, optimizer)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}

// loadCatalog 优先使用数据库中的效率表，数据库为空时从文件导入
func loadCatalog(repo *repository.Repository, cfg *config.Config) (*catalog.Catalog, error) {
	entries, err := repo.GetAllEfficiencyEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return catalog.FromEntries(entries)
	}

	cat, err := catalog.LoadFile(cfg.Optimizer.EfficiencyFile)
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceEfficiencyEntries(cat.Entries()); err != nil {
		return nil, err
	}
	slog.Info("数据库中没有效率表，已从文件导入", "file", cfg.Optimizer.EfficiencyFile)

	return cat, nil
}

// ensureInitialAdmin 创建初始管理员，用户名已存在时视为已经创建过
func ensureInitialAdmin(repo *repository.Repository, cfg *config.Config) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = repo.CreateUser(&domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleAdmin,
	})
	if err != nil && !isDuplicateUsername(err) {
		return err
	}
	return nil
}

func isDuplicateUsername(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key"
}

// openReportQueue 连接 rabbitmq 并声明与 mail worker 共用的持久化队列
func openReportQueue(cfg *config.Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("无法建立通道: %w", err)
	}

	if _, err := ch.QueueDeclare(reportQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("无法声明队列 %s: %w", reportQueue, err)
	}

	return conn, ch, nil
}

func resultCacheOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	}
}

// openResultCache 连接 redis 并 ping 一次，确保启动时就能发现配置错误
func openResultCache(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(resultCacheOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
