package companion

import (
	"context"

	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/options"
)

// Handler 每个宿主事件对应一个方法
type Handler interface {
	OnReady(ctx context.Context, e *host.Event) error
	OnShowConfiguration(ctx context.Context, e *host.Event) error
	OnWebviewClosed(ctx context.Context, e *host.Event) error
}

// URLOpener 是宿主"打开网页"的能力
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// Messenger 把 options 异步发给配对设备，结果通过 channel 返回一次
type Messenger interface {
	Send(ctx context.Context, o options.Options) <-chan device.Result
}

// Register 将 h 订阅到 bus 的三个宿主事件上
func Register(bus *host.Bus, h Handler) {
	bus.On(eventType.Ready, h.OnReady)
	bus.On(eventType.ShowConfiguration, h.OnShowConfiguration)
	bus.On(eventType.WebviewClosed, h.OnWebviewClosed)
}
