package empty

import (
	"context"
	"log/slog"

	"github.com/komari-monitor/companion/internal/device/factory"
)

// EmptySender 不连接任何设备，只记录日志
type EmptySender struct {
	Addition
}

type Addition struct{}

func (e *EmptySender) GetName() string {
	return "empty"
}

func (e *EmptySender) GetConfiguration() factory.Configuration {
	return &e.Addition
}

func (e *EmptySender) Init() error {
	return nil
}

func (e *EmptySender) Destroy() error {
	return nil
}

func (e *EmptySender) Send(_ context.Context, msg *factory.Message) error {
	slog.Debug("empty transport dropped message", "id", msg.ID, "payload", string(msg.Payload))
	return nil
}

func init() {
	factory.RegisterSender(func() factory.ISender {
		return &EmptySender{}
	})
}

var _ factory.ISender = (*EmptySender)(nil)
