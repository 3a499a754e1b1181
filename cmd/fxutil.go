package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
)

// stopTimeout 是停止 app 时等待各模块 OnStop 的上限
const stopTimeout = 5 * time.Second

// runUntilSignal 启动 app，阻塞到 SIGINT/SIGTERM 或 app 自行关闭。
// OnStop 按注册的逆序执行：HTTP 先停止，companion 最后等待进行中的发送。
func runUntilSignal(app *fx.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		_ = stopApp(app)
		return err
	}
	defer func() { _ = stopApp(app) }()

	select {
	case <-ctx.Done():
		return nil
	case sig := <-app.Wait():
		if sig.ExitCode != 0 {
			return fmt.Errorf("companion stopped with exit code %d", sig.ExitCode)
		}
		return nil
	}
}

// runOnce 启动 app 并执行 fn。fn 成功后调用 drain 等待它引发的异步工作，
// drain 只受信号限制，不受 stopTimeout 限制。
func runOnce(app *fx.App, fn func(context.Context) error, drain func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		_ = stopApp(app)
		return err
	}
	defer func() { _ = stopApp(app) }()

	if err := fn(ctx); err != nil {
		return err
	}
	if drain == nil {
		return nil
	}
	if err := drain(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func stopApp(app *fx.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return app.Stop(ctx)
}
