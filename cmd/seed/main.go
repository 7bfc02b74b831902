package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/config"
	"github.com/bishwashp/shiftplanner/backend/internal/repository"
	"github.com/bishwashp/shiftplanner/backend/internal/seed"
	"github.com/bishwashp/shiftplanner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var regionID int64
	var csvPath string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机分析师, 2: 为所有分析师插入随机请假, 3: 插入随机节假日, 4: 从 CSV 导入分析师)")
	flag.IntVar(&n, "n", 0, "要插入的记录数量，默认使用 SEED_ 配置")
	flag.Int64Var(&regionID, "region-id", 0, "随机分析师所属的区域 ID，0 表示不设置")
	flag.StringVar(&csvPath, "csv", "./internal/seed/data/analysts.csv", "导入分析师所用的 CSV 文件")
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

	var region *int64
	if regionID > 0 {
		region = &regionID
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			n = cfg.Seed.Analysts
		}
		cnt := 0
		for i := 0; i < n; i++ {
			analyst := utils.GenerateRandomAnalyst(i, region)
			if err := repo.CreateAnalyst(analyst); err != nil {
				slog.Error("无法插入分析师", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入分析师成功", slog.Int("count", cnt))
	case 2:
		analysts, err := repo.GetAllAnalysts()
		if err != nil {
			slog.Error("无法获取所有分析师", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, analyst := range analysts {
			absence := utils.GenerateRandomAbsence(analyst.ID, time.Now())
			if err := repo.CreateAbsence(absence); err != nil {
				slog.Error("无法插入请假记录", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入请假记录成功", slog.Int("count", cnt))
	case 3:
		if n <= 0 {
			n = cfg.Seed.HolidayDays
		}
		cnt := 0
		for _, holiday := range utils.GenerateRandomHolidays(time.Now(), n) {
			if err := repo.CreateConstraint(holiday); err != nil {
				slog.Error("无法插入节假日", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入节假日成功", slog.Int("count", cnt))
	case 4:
		seed.SeedAnalystsFromCSV(repo, csvPath)
	default:
		slog.Error("指定的操作非法")
	}
}
