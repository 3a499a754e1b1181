package websocket

import "github.com/komari-monitor/companion/internal/device/factory"

type Addition struct {
	Token        string `json:"token" help:"配对设备连接 /api/device/ws 时需携带 ?token=（可选）"`
	PingInterval int    `json:"ping_interval" default:"30" help:"心跳间隔（秒）"`
}

func init() {
	factory.RegisterSender(func() factory.ISender {
		return &WebsocketSender{Addition: Addition{PingInterval: 30}}
	})
}
