package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gookit/event"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module 在宿主总线上按固定周期分发 scheduler.* 事件
type Module struct {
	bus   *host.Bus
	stops []func()
}

func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(func(bus *host.Bus) *Module { return &Module{bus: bus} }),
		fx.Invoke(registerSchedulerLifecycle),
	)
}

func registerSchedulerLifecycle(lc fx.Lifecycle, m *Module, _ *gorm.DB) {
	// _ *gorm.DB ensures DB is initialized before scheduler starts.
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			m.start()
			return nil
		},
		OnStop: func(context.Context) error {
			m.stop()
			return nil
		},
	})
}

func (m *Module) start() {
	m.stops = append(m.stops,
		Every(5*time.Minute, m.tick(eventType.SchedulerEvery5Minutes, "5m")),
		Every(1*time.Hour, m.tick(eventType.SchedulerEveryHour, "1h")),
		Every(24*time.Hour, m.tick(eventType.SchedulerEveryDay, "1d")),
	)
}

func (m *Module) stop() {
	for i := len(m.stops) - 1; i >= 0; i-- {
		m.stops[i]()
	}
	m.stops = nil
}

// tick 在宿主总线上分发定时事件，和其他宿主事件一样逐个处理
func (m *Module) tick(name, interval string) func(context.Context) {
	return func(ctx context.Context) {
		if err := m.bus.Dispatch(ctx, name, event.M{"interval": interval}); err != nil {
			slog.Warn("scheduled task failed", "event", name, "error", err)
		}
	}
}
