package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// App 管理世界、事件镜像与 HTTP 服务的生命周期（不使用全局单例）
type App struct {
	Config Config
	World  *World

	log    *zap.SugaredLogger
	srv    *http.Server
	mirror *EventMirror
	closer func() error
}

// NewApp 组装各组件；配置了 Redis 时连接并挂载事件镜像
func NewApp(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	w := NewWorld(cfg, log)
	app := &App{Config: cfg, World: w, log: log}

	if cfg.Redis.Addr != "" {
		pub, err := NewRedisPublisher(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		app.mirror = NewEventMirror(pub, cfg.Redis.Channel, log)
		app.closer = pub.Close
		w.SetMirror(app.mirror)
		log.Infow("event mirror enabled", "redis", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	app.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(w, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

// Run 启动所有组件，ctx 取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.World.Run(ctx)
	}()
	if a.mirror != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.mirror.Run(ctx)
		}()
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Infow("listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("listen %s: %w", a.srv.Addr, err)
		}
		close(errc)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errc:
		if ok {
			runErr = err
		}
	}

	a.log.Info("Shutting down...")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := a.srv.Shutdown(sctx); err != nil {
		a.log.Warnw("http shutdown", "err", err)
	}
	cancel()
	wg.Wait()
	if a.closer != nil {
		if err := a.closer(); err != nil {
			a.log.Warnw("close redis", "err", err)
		}
	}
	return runErr
}
