package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Tuncayozalici/ONERI-sub000/internal/config"
	"github.com/Tuncayozalici/ONERI-sub000/internal/logging"
	"github.com/Tuncayozalici/ONERI-sub000/internal/server"
)

var (
	configPath = flag.String("config", "", "配置文件路径 (默认: 可执行文件同目录的 config.toml)")
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	workbooks  = flag.String("workbooks", "", "Excel 工作簿目录 (覆盖配置文件与 ONERI_WORKBOOK_DIR)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  ONERI - Fabrika Performans Panosu")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := loadConfig()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *workbooks != "" {
		abs, err := filepath.Abs(*workbooks)
		if err != nil {
			abs = *workbooks
		}
		cfg.Data.WorkbookDir = abs
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败: %v", err)
	} else {
		fmt.Printf("数据目录: %s\n", dir)
	}
	fmt.Printf("工作簿目录: %s\n", cfg.WorkbookPath())

	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.LogPath(),
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer closeLog()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("服务初始化失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 后台刷新：立即导入一次，之后按间隔刷新
	srv.StartRefresh(ctx)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")
	<-ctx.Done()

	fmt.Println("\n正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.LoadConfigWithInfo()
}
