package scheduler

import (
	"context"
	"time"
)

// Every 在独立 goroutine 中每隔 interval 调用一次 fn。
// fn 收到的 ctx 在 stop 后取消，正在执行的任务（如 VACUUM）随之中止；
// fn 执行期间到期的 tick 会被合并。stop 可以重复调用。
func Every(interval time.Duration, fn func(ctx context.Context)) (stop func()) {
	if interval <= 0 || fn == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
	return cancel
}
