package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gameroom/server"
)

// gameroom 入口：加载配置，启动世界循环与 HTTP + WebSocket 服务
func main() {
	var (
		addr       string
		configPath string
	)
	flag.StringVar(&addr, "addr", "", "server listen address, overrides config (default 127.0.0.1:3512)")
	flag.StringVar(&configPath, "config", "", "path to JSON config file (falls back to $CONFIG_PATH)")
	flag.Parse()

	if err := run(addr, configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(addr, configPath string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer server.SyncLogger()

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, server.Log)
	if err != nil {
		server.Log.Errorw("startup failed", "err", err)
		return err
	}
	return app.Run(ctx)
}
